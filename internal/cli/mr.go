package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildforge/buildvc/internal/engine"
	"github.com/buildforge/buildvc/internal/model"
)

// NewMRCommand creates the mr (merge request) command group.
func NewMRCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mr",
		Short: "Manage merge requests",
	}
	cmd.AddCommand(newMRCreateCommand(rootOpts))
	cmd.AddCommand(newMRListCommand(rootOpts))
	cmd.AddCommand(newMRShowCommand(rootOpts))
	cmd.AddCommand(newMRUpdateCommand(rootOpts))
	cmd.AddCommand(newMRMergeCommand(rootOpts))
	cmd.AddCommand(newMRCloseCommand(rootOpts))
	return cmd
}

func newMRCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var title, description, assignedTo string

	cmd := &cobra.Command{
		Use:           "create <repository-id> <source-branch-id> <target-branch-id>",
		Short:         "Open a merge request",
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

			mr, err := e.CreateMergeRequest(cmd.Context(), engine.CreateMergeRequestParams{
				RepositoryID:   args[0],
				SourceBranchID: args[1],
				TargetBranchID: args[2],
				Title:          title,
				Description:    description,
				CreatedBy:      actor,
				AssignedTo:     assignedTo,
			})
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(mr)
			}
			fmt.Fprintf(formatter.Writer, "Opened merge request %s: %s\n", mr.ID, mr.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "merge request title")
	cmd.Flags().StringVar(&description, "description", "", "merge request description")
	cmd.Flags().StringVar(&assignedTo, "assign", "", "assignee identity")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newMRListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list <repository-id>",
		Short:         "List merge requests, newest first",
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

			mrs, err := e.GetMergeRequests(cmd.Context(), args[0])
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(mrs)
			}
			for _, mr := range mrs {
				fmt.Fprintf(formatter.Writer, "%s  %-6s  %s\n", mr.ID, mr.Status, mr.Title)
			}
			return nil
		},
	}
}

func newMRShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <merge-request-id>",
		Short:         "Show a merge request",
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

			mr, err := e.GetMergeRequest(cmd.Context(), args[0])
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(mr)
			}
			printMergeRequest(formatter, mr)
			return nil
		},
	}
}

func printMergeRequest(formatter *OutputFormatter, mr *model.MergeRequest) {
	fmt.Fprintf(formatter.Writer, "%s  [%s]  %s\n", mr.ID, mr.Status, mr.Title)
	fmt.Fprintf(formatter.Writer, "  %s -> %s\n", mr.SourceBranchID, mr.TargetBranchID)
	if mr.AssignedTo != "" {
		fmt.Fprintf(formatter.Writer, "  assigned to %s\n", mr.AssignedTo)
	}
	if mr.Status == model.MergeRequestMerged {
		fmt.Fprintf(formatter.Writer, "  merged as %s at %s\n", mr.MergeCommitID, mr.MergedAt.Format("2006-01-02 15:04"))
	}
}

func newMRUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var title, description, assignedTo string

	cmd := &cobra.Command{
		Use:           "update <merge-request-id>",
		Short:         "Update an open merge request",
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

			mr, err := e.UpdateMergeRequest(cmd.Context(), args[0], engine.UpdateMergeRequestParams{
				Title:       title,
				Description: description,
				AssignedTo:  assignedTo,
			})
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(mr)
			}
			printMergeRequest(formatter, mr)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&assignedTo, "assign", "", "new assignee")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newMRMergeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <merge-request-id> <merge-commit-id>",
		Short: "Record a merge",
		Long: `Record a merge. The merge commit is one already created on the target
branch with "buildvc commit create"; merging only transitions the merge
request and stamps the commit and timestamp.`,
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

			mr, err := e.MergeMergeRequest(cmd.Context(), args[0], args[1])
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(mr)
			}
			printMergeRequest(formatter, mr)
			return nil
		},
	}
}

func newMRCloseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "close <merge-request-id>",
		Short:         "Close a merge request without merging",
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

			mr, err := e.CloseMergeRequest(cmd.Context(), args[0])
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(mr)
			}
			printMergeRequest(formatter, mr)
			return nil
		},
	}
}
