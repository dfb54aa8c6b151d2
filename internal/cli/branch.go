package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildforge/buildvc/internal/engine"
)

// NewBranchCommand creates the branch command group.
func NewBranchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Manage branches",
	}
	cmd.AddCommand(newBranchCreateCommand(rootOpts))
	cmd.AddCommand(newBranchListCommand(rootOpts))
	cmd.AddCommand(newBranchShowCommand(rootOpts))
	cmd.AddCommand(newBranchDeleteCommand(rootOpts))
	return cmd
}

func newBranchCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var description, fromCommit string

	cmd := &cobra.Command{
		Use:           "create <repository-id> <name>",
		Short:         "Create a branch",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			actor, err := requireActor(rootOpts)
			if err != nil {
				return err
			}

			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			branch, err := e.CreateBranch(cmd.Context(), engine.CreateBranchParams{
				RepositoryID: args[0],
				Name:         args[1],
				Description:  description,
				FromCommitID: fromCommit,
				CreatedBy:    actor,
			})
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(branch)
			}
			fmt.Fprintf(formatter.Writer, "Created branch %s (%s) at %s\n", branch.Name, branch.ID, branch.HeadCommitID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "branch description")
	cmd.Flags().StringVar(&fromCommit, "from", "", "starting commit (defaults to the default branch head)")
	return cmd
}

func newBranchListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list <repository-id>",
		Short:         "List branches with their heads",
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

			branches, err := e.GetBranches(cmd.Context(), args[0])
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(branches)
			}
			for _, b := range branches {
				marker := " "
				if b.IsDefault {
					marker = "*"
				}
				head := "(no commits)"
				if b.Head != nil {
					head = fmt.Sprintf("%s  %s", b.Head.ID, b.Head.Message)
				}
				fmt.Fprintf(formatter.Writer, "%s %-20s %s\n", marker, b.Name, head)
			}
			return nil
		},
	}
}

func newBranchShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <repository-id> <name>",
		Short:         "Show a branch head and its snapshot",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			summary, snap, err := e.SwitchBranch(cmd.Context(), args[0], args[1])
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(map[string]any{"branch": summary, "snapshot": snap})
			}
			fmt.Fprintf(formatter.Writer, "Branch %s (%s)\n", summary.Name, summary.ID)
			if summary.Head != nil {
				fmt.Fprintf(formatter.Writer, "Head: %s  %s\n", summary.Head.ID, summary.Head.Message)
			}
			fmt.Fprintf(formatter.Writer, "Parts: %d, optimizations: %d\n", len(snap.Parts), len(snap.Optimizations))
			return nil
		},
	}
}

func newBranchDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <branch-id>",
		Short:         "Delete a branch (commits are kept)",
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

			if err := e.DeleteBranch(cmd.Context(), args[0]); err != nil {
				return formatter.OperationError(err)
			}
			return formatter.Success("Deleted branch " + args[0])
		},
	}
}
