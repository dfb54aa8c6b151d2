package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildforge/buildvc/internal/engine"
)

// NewCommentCommand creates the comment command group.
func NewCommentCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Discuss commits and merge requests",
	}
	cmd.AddCommand(newCommentAddCommand(rootOpts))
	cmd.AddCommand(newCommentListCommand(rootOpts))
	cmd.AddCommand(newCommentUpdateCommand(rootOpts))
	cmd.AddCommand(newCommentDeleteCommand(rootOpts))
	return cmd
}

func newCommentAddCommand(rootOpts *RootOptions) *cobra.Command {
	var commitID, mergeRequestID, parentID string

	cmd := &cobra.Command{
		Use:           "add <repository-id> <content>",
		Short:         "Comment on a commit or merge request",
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

			comment, err := e.AddComment(cmd.Context(), engine.AddCommentParams{
				RepositoryID:    args[0],
				CommitID:        commitID,
				MergeRequestID:  mergeRequestID,
				ParentCommentID: parentID,
				AuthorID:        actor,
				Content:         args[1],
			})
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(comment)
			}
			fmt.Fprintf(formatter.Writer, "Added comment %s\n", comment.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&commitID, "commit", "", "commit to comment on")
	cmd.Flags().StringVar(&mergeRequestID, "mr", "", "merge request to comment on")
	cmd.Flags().StringVar(&parentID, "reply-to", "", "parent comment id")
	return cmd
}

func newCommentListCommand(rootOpts *RootOptions) *cobra.Command {
	var commitID, mergeRequestID string

	cmd := &cobra.Command{
		Use:           "list <repository-id>",
		Short:         "List comments in chronological order",
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

			comments, err := e.GetComments(cmd.Context(), args[0], commitID, mergeRequestID)
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(comments)
			}
			for _, c := range comments {
				indent := ""
				if c.ParentCommentID != "" {
					indent = "  "
				}
				fmt.Fprintf(formatter.Writer, "%s%s  %s  %s: %s\n",
					indent, c.ID, c.CreatedAt.Format("2006-01-02 15:04"), c.AuthorID, c.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&commitID, "commit", "", "only comments on this commit")
	cmd.Flags().StringVar(&mergeRequestID, "mr", "", "only comments on this merge request")
	return cmd
}

func newCommentUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "update <comment-id> <content>",
		Short:         "Rewrite one of your comments",
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

			comment, err := e.UpdateComment(cmd.Context(), args[0], actor, args[1])
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(comment)
			}
			return formatter.Success("Updated comment " + comment.ID)
		},
	}
}

func newCommentDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <comment-id>",
		Short:         "Delete one of your comments",
		Args:          cobra.ExactArgs(1),
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

			if err := e.DeleteComment(cmd.Context(), args[0], actor); err != nil {
				return formatter.OperationError(err)
			}
			return formatter.Success("Deleted comment " + args[0])
		},
	}
}
