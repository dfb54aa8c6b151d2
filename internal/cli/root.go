// Package cli implements the buildvc command line interface on top of
// the engine, mirroring the HTTP API surface for scripted and local use.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildforge/buildvc/internal/config"
	"github.com/buildforge/buildvc/internal/engine"
	"github.com/buildforge/buildvc/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DBPath     string
	Actor      string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the buildvc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "buildvc",
		Short: "Version control for configurable assembly builds",
		Long: `buildvc versions assembly build configurations: repositories per
build, branches with compare-and-swap head updates, immutable commits
with content-addressed snapshots, tags, merge requests and comments.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database path (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Actor, "actor", "", "acting identity for mutating operations")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRepoCommand(opts))
	cmd.AddCommand(NewBranchCommand(opts))
	cmd.AddCommand(NewCommitCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewTagCommand(opts))
	cmd.AddCommand(NewMRCommand(opts))
	cmd.AddCommand(NewCommentCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newFormatter builds the command's output formatter from global flags.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openEngine loads configuration, opens the store and builds an engine.
// The returned close func must be called when the command finishes.
func openEngine(opts *RootOptions) (*engine.Engine, func(), error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "load config", err)
	}
	dbPath := cfg.DatabasePath
	if opts.DBPath != "" {
		dbPath = opts.DBPath
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open database "+dbPath, err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel, opts.Verbose)}))
	e := engine.New(s, engine.WithLogger(log))
	return e, func() { s.Close() }, nil
}

func logLevel(level string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// requireActor returns the acting identity or a command error when the
// --actor flag is missing.
func requireActor(opts *RootOptions) (string, error) {
	if opts.Actor == "" {
		return "", NewExitError(ExitCommandError, "this operation requires --actor")
	}
	return opts.Actor, nil
}
