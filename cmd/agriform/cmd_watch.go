package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/agriform/internal/config"
	"github.com/MikeSquared-Agency/agriform/internal/hermes"
)

var watchSubject string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print agriform lifecycle events from NATS",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		if cfg.NatsURL == "" {
			return fmt.Errorf("NATS_URL is required")
		}
		logger := setupLogging(os.Stderr, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		events, err := connectEvents(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer events.Close()

		out := cmd.OutOrStdout()
		if err := events.Subscribe(watchSubject, func(subject string, data []byte) {
			printEvent(out, subject, data)
		}); err != nil {
			return err
		}
		logger.Info("watching events", "subject", watchSubject)

		<-ctx.Done()
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchSubject, "subject", hermes.SubjectAll, "NATS subject to watch")
}

// printEvent writes one event per line, compacting JSON payloads.
func printEvent(out io.Writer, subject string, data []byte) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		buf.Reset()
		buf.Write(data)
	}
	fmt.Fprintf(out, "%s %s\n", subject, buf.String())
}
