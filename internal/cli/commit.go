package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildforge/buildvc/internal/engine"
)

// NewCommitCommand creates the commit command group.
func NewCommitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Create and inspect commits",
	}
	cmd.AddCommand(newCommitCreateCommand(rootOpts))
	cmd.AddCommand(newCommitShowCommand(rootOpts))
	return cmd
}

func newCommitCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var branchID, parent, message, snapshotPath string

	cmd := &cobra.Command{
		Use:   "create <repository-id>",
		Short: "Commit a snapshot to a branch",
		Long: `Commit a snapshot to a branch. --parent names the commit the snapshot
was computed against (the observed branch head, empty for an empty
branch); if the head has moved since, the commit is rejected with a
CONFLICT and nothing is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			actor, err := requireActor(rootOpts)
			if err != nil {
				return err
			}
			snap, err := readSnapshotFile(snapshotPath)
			if err != nil {
				return err
			}

			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			commit, err := e.CreateCommit(cmd.Context(), engine.CreateCommitParams{
				RepositoryID:           args[0],
				BranchID:               branchID,
				ExpectedParentCommitID: parent,
				AuthorID:               actor,
				Message:                message,
				Snapshot:               snap,
			})
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(commit)
			}
			fmt.Fprintf(formatter.Writer, "Committed %s (%s)\n", commit.ID, commit.CommitHash[:12])
			return nil
		},
	}

	cmd.Flags().StringVar(&branchID, "branch", "", "branch id to commit to")
	cmd.Flags().StringVar(&parent, "parent", "", "expected parent commit id")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "JSON file with the snapshot")
	cmd.MarkFlagRequired("branch")
	cmd.MarkFlagRequired("message")
	cmd.MarkFlagRequired("snapshot")
	return cmd
}

func newCommitShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <commit-id>",
		Short:         "Show a commit with its snapshot",
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

			detail, err := e.GetCommit(cmd.Context(), args[0])
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(detail)
			}
			fmt.Fprintf(formatter.Writer, "commit %s\n", detail.ID)
			fmt.Fprintf(formatter.Writer, "hash   %s\n", detail.CommitHash)
			if detail.ParentCommitID != "" {
				fmt.Fprintf(formatter.Writer, "parent %s\n", detail.ParentCommitID)
			}
			fmt.Fprintf(formatter.Writer, "author %s\n", detail.AuthorID)
			fmt.Fprintf(formatter.Writer, "date   %s\n\n", detail.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Fprintf(formatter.Writer, "    %s\n\n", detail.Message)
			fmt.Fprintf(formatter.Writer, "Parts: %d, optimizations: %d\n",
				len(detail.Snapshot.Parts), len(detail.Snapshot.Optimizations))
			return nil
		},
	}
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "log <repository-id> <branch-name>",
		Short:         "Show branch history, newest first",
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

			commits, err := e.GetCommitHistory(cmd.Context(), args[0], args[1], limit)
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(commits)
			}
			for _, c := range commits {
				fmt.Fprintf(formatter.Writer, "%s  %s  %s  %s\n",
					c.ID, c.CreatedAt.Format("2006-01-02 15:04"), c.AuthorID, c.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum commits to show")
	return cmd
}
