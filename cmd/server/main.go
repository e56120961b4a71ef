package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/akshar/internal/platform/config"
	"github.com/p-n-ai/akshar/internal/recommend"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "akshar",
		Short:         "Problem sharing server with graded answers and recommendations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				return err
			}
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), c.Log))
			cfg = c
			return nil
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	root.AddCommand(
		serve,
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "seed [dir]",
			Short: "Load problems from YAML seed files",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				dir := cfg.SeedPath
				if len(args) == 1 {
					dir = args[0]
				}
				return runSeed(cmd.Context(), cfg, dir)
			},
		},
	)
	root.RunE = serve.RunE
	return root
}

// newLogger builds the process logger. Unknown levels fall back to info.
func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("migrate needs AKSHAR_STORE=%s", config.StorePostgres)
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.db.Migrate(ctx)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", n)
	return nil
}

func runSeed(ctx context.Context, cfg *config.Config, dir string) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.seed(ctx, dir)
	if err != nil {
		return err
	}
	slog.Info("seed loaded", "dir", dir, "inserted", n)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// Memory mode starts empty, so load the seed set on boot.
	if cfg.Store == config.StoreMemory {
		if n, err := a.seed(ctx, cfg.SeedPath); err != nil {
			slog.Warn("seed skipped", "dir", cfg.SeedPath, "error", err)
		} else {
			slog.Info("seed loaded", "dir", cfg.SeedPath, "inserted", n)
		}
	}

	server, err := a.server()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store, "cache", cfg.HasCache())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return recommend.NewAuditor(a.ledger, cfg.Audit.Schedule).Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
