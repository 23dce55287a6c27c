package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/agriform/internal/anthropic"
	"github.com/MikeSquared-Agency/agriform/internal/config"
	"github.com/MikeSquared-Agency/agriform/internal/dialogue"
	"github.com/MikeSquared-Agency/agriform/internal/hermes"
	"github.com/MikeSquared-Agency/agriform/internal/insight"
	"github.com/MikeSquared-Agency/agriform/internal/locale"
	"github.com/MikeSquared-Agency/agriform/internal/validator"
)

func setupLogging(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// newValidator picks the remote endpoint, then the LLM judge, then none.
func newValidator(cfg config.Config, logger *slog.Logger) dialogue.Validator {
	switch {
	case cfg.ValidatorURL != "":
		logger.Info("semantic validation via endpoint", "url", cfg.ValidatorURL)
		return validator.NewHTTP(cfg.ValidatorURL, logger)
	case cfg.AnthropicAPIKey != "":
		llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		logger.Info("semantic validation via llm", "model", llm.Model())
		return validator.NewLLM(llm, logger)
	default:
		logger.Info("semantic validation disabled, local checks only")
		return nil
	}
}

// connectEvents returns nil when NATS is not configured.
func connectEvents(ctx context.Context, cfg config.Config, logger *slog.Logger) (*hermes.Client, error) {
	if cfg.NatsURL == "" {
		logger.Warn("NATS_URL not set, lifecycle events disabled")
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("NATS connected", "url", cfg.NatsURL)
	return client, nil
}

func newController(cfg config.Config, langs *locale.Table, events *hermes.Client, logger *slog.Logger) (*dialogue.Controller, error) {
	if cfg.InsightURL == "" {
		return nil, fmt.Errorf("AGRIFORM_INSIGHT_URL is required")
	}
	opts := dialogue.Options{
		Validator:      newValidator(cfg, logger),
		RemoteTimeout:  cfg.RemoteTimeout,
		InsightPageURL: cfg.InsightPageURL,
	}
	if events != nil {
		opts.Events = events
	}
	return dialogue.New(langs, insight.NewClient(cfg.InsightURL, logger), logger, opts), nil
}
