package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildforge/buildvc/internal/engine"
)

// NewTagCommand creates the tag command group.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}
	cmd.AddCommand(newTagCreateCommand(rootOpts))
	cmd.AddCommand(newTagListCommand(rootOpts))
	cmd.AddCommand(newTagDeleteCommand(rootOpts))
	return cmd
}

func newTagCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:           "create <repository-id> <commit-id> <name>",
		Short:         "Pin a name to a commit",
		Args:          cobra.ExactArgs(3),
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

			tag, err := e.CreateTag(cmd.Context(), engine.CreateTagParams{
				RepositoryID: args[0],
				CommitID:     args[1],
				Name:         args[2],
				Description:  description,
				CreatedBy:    actor,
			})
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(tag)
			}
			fmt.Fprintf(formatter.Writer, "Tagged %s as %s\n", tag.CommitID, tag.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "tag description")
	return cmd
}

func newTagListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list <repository-id>",
		Short:         "List tags",
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

			tags, err := e.GetTags(cmd.Context(), args[0])
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(tags)
			}
			for _, tag := range tags {
				fmt.Fprintf(formatter.Writer, "%-20s %s\n", tag.Name, tag.CommitID)
			}
			return nil
		},
	}
}

func newTagDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <tag-id>",
		Short:         "Delete a tag (the commit is untouched)",
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

			if err := e.DeleteTag(cmd.Context(), args[0]); err != nil {
				return formatter.OperationError(err)
			}
			return formatter.Success("Deleted tag " + args[0])
		},
	}
}
