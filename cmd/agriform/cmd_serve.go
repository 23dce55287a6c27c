package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/agriform/internal/api"
	"github.com/MikeSquared-Agency/agriform/internal/config"
	"github.com/MikeSquared-Agency/agriform/internal/locale"
	"github.com/MikeSquared-Agency/agriform/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the survey conversation over HTTP",
	Long: `Starts the HTTP API. Sessions are kept in PostgreSQL when DATABASE_URL is set
and in memory otherwise. Lifecycle events go to NATS when NATS_URL is set.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logger := setupLogging(os.Stdout, cfg.LogLevel)
	logger.Info("agriform starting", "port", cfg.Port, "version", version)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	events, err := connectEvents(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	if events != nil {
		defer events.Close()
	}

	langs, err := locale.Load()
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg, langs, events, logger)
	if err != nil {
		return err
	}

	srv := api.NewServer(cfg.Port, cfg.APIToken, sessions, ctrl, langs, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if events != nil {
		if err := events.Publish("agriform.service.registered", map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
			"version":   version,
		}); err != nil {
			logger.Warn("failed to publish registration", "error", err)
		}
	}
	logger.Info("agriform ready", "port", cfg.Port)

	err = g.Wait()
	logger.Info("agriform stopped")
	return err
}

// openStore returns PostgreSQL storage when configured, memory otherwise.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (api.SessionStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, sessions kept in memory")
		return store.NewMemory(), func() {}, nil
	}

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("database connected")
	return db, db.Close, nil
}
