package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildforge/buildvc/internal/engine"
	"github.com/buildforge/buildvc/internal/model"
)

// NewRepoCommand creates the repo command group.
func NewRepoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage build repositories",
	}
	cmd.AddCommand(newRepoCreateCommand(rootOpts))
	cmd.AddCommand(newRepoGetCommand(rootOpts))
	cmd.AddCommand(newRepoDeleteCommand(rootOpts))
	return cmd
}

func newRepoCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var name, description, snapshotPath string

	cmd := &cobra.Command{
		Use:           "create <build-ref>",
		Short:         "Create a repository for a build",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			actor, err := requireActor(rootOpts)
			if err != nil {
				return err
			}

			var snap *model.Snapshot
			if snapshotPath != "" {
				snap, err = readSnapshotFile(snapshotPath)
				if err != nil {
					return err
				}
			}

			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			repo, err := e.CreateRepository(cmd.Context(), engine.CreateRepositoryParams{
				BuildRef:    args[0],
				Name:        name,
				Description: description,
				CreatedBy:   actor,
				Snapshot:    snap,
			})
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(repo)
			}
			fmt.Fprintf(formatter.Writer, "Created repository %s for build %s\n", repo.ID, repo.BuildRef)
			fmt.Fprintf(formatter.Writer, "Initial commit %s on %s\n", repo.RecentCommits[0].ID, repo.Branches[0].Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "repository display name")
	cmd.Flags().StringVar(&description, "description", "", "repository description")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "JSON file with the initial snapshot")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newRepoGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <build-ref>",
		Short:         "Show the repository versioning a build",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			repo, err := e.GetRepository(cmd.Context(), args[0])
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(repo)
			}
			fmt.Fprintf(formatter.Writer, "%s  %s (build %s)\n", repo.ID, repo.Name, repo.BuildRef)
			fmt.Fprintf(formatter.Writer, "Branches:\n")
			for _, b := range repo.Branches {
				marker := " "
				if b.IsDefault {
					marker = "*"
				}
				fmt.Fprintf(formatter.Writer, "  %s %-20s %s\n", marker, b.Name, b.HeadCommitID)
			}
			fmt.Fprintf(formatter.Writer, "Recent commits:\n")
			for _, c := range repo.RecentCommits {
				fmt.Fprintf(formatter.Writer, "  %s  %s\n", c.ID, c.Message)
			}
			return nil
		},
	}
}

func newRepoDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <repository-id>",
		Short:         "Delete a repository and all its history",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := e.DeleteRepository(cmd.Context(), args[0]); err != nil {
				return formatter.OperationError(err)
			}
			return formatter.Success("Deleted repository " + args[0])
		},
	}
}
