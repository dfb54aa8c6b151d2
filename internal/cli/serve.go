package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/buildforge/buildvc/internal/api"
	"github.com/buildforge/buildvc/internal/cache"
	"github.com/buildforge/buildvc/internal/config"
	"github.com/buildforge/buildvc/internal/engine"
	"github.com/buildforge/buildvc/internal/store"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the HTTP API server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, listenAddr)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides config)")
	return cmd
}

func runServe(opts *RootOptions, listenAddr string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.DBPath != "" {
		cfg.DatabasePath = opts.DBPath
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel, opts.Verbose)}))
	slog.SetDefault(log)

	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database "+cfg.DatabasePath, err)
	}
	defer s.Close()

	engineOpts := []engine.Option{engine.WithLogger(log)}
	if cfg.Cache.Enabled {
		snapCache, err := cache.New(cache.Config{
			Addr:     cfg.Cache.Addr,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			Database: cfg.Cache.Database,
			TTL:      cfg.Cache.TTL.Std(),
		}, log)
		if err != nil {
			return WrapExitError(ExitCommandError, "connect snapshot cache", err)
		}
		defer snapCache.Close()
		engineOpts = append(engineOpts, engine.WithSnapshotCache(snapCache))
		log.Info("snapshot cache enabled", "addr", cfg.Cache.Addr)
	}

	e := engine.New(s, engineOpts...)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewRouter(e, log),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr, "db", cfg.DatabasePath)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server failed", err)
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return WrapExitError(ExitFailure, "shutdown", err)
		}
	}
	return nil
}
