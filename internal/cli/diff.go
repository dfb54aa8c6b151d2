package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildforge/buildvc/internal/engine"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "diff <commit-a> <commit-b>",
		Short:         "Compare two commits structurally",
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

			cs, err := e.CompareCommits(cmd.Context(), args[0], args[1])
			if err != nil {
				return formatter.OperationError(err)
			}

			if formatter.Format == "json" {
				return formatter.JSON(map[string]any{
					"change_set": cs,
					"summary":    engine.GenerateCommitMessage(cs),
				})
			}

			fmt.Fprintln(formatter.Writer, engine.GenerateCommitMessage(cs))
			for _, p := range cs.Added {
				fmt.Fprintf(formatter.Writer, "  + %s\n", p.StableID())
			}
			for _, p := range cs.Removed {
				fmt.Fprintf(formatter.Writer, "  - %s\n", p.StableID())
			}
			for _, m := range cs.Modified {
				fmt.Fprintf(formatter.Writer, "  ~ %s\n", m.ID)
			}
			for _, o := range cs.OptimizationsChanged {
				fmt.Fprintf(formatter.Writer, "  @ %s: %q -> %q\n", o.Key, o.Before, o.After)
			}
			if cs.BuildDataDiff != "" {
				fmt.Fprintln(formatter.Writer)
				fmt.Fprint(formatter.Writer, cs.BuildDataDiff)
			}
			return nil
		},
	}
}
