package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/agriform/internal/config"
	"github.com/MikeSquared-Agency/agriform/internal/dialogue"
	"github.com/MikeSquared-Agency/agriform/internal/locale"
)

var chatLanguage string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run one survey conversation on the terminal",
	Long: `Asks the four survey questions on stdout and reads answers from stdin.
Type "retry" after a failed hand-off to send the record again, "quit" to leave.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		logger := setupLogging(os.Stderr, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

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
		return runChat(ctx, ctrl, chatLanguage, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatLanguage, "language", "l", locale.DefaultLanguage, "conversation language (english, hindi, odia, tamil)")
}

// runChat drives one session from in to out until the record is delivered,
// the input ends, or the user quits.
func runChat(ctx context.Context, ctrl *dialogue.Controller, language string, in io.Reader, out io.Writer) error {
	sess, reply, err := ctrl.Start(language)
	if err != nil {
		return err
	}
	printReply(out, reply)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "quit"):
			return nil
		case sess.State == dialogue.Complete && strings.EqualFold(line, "retry"):
			reply, err = ctrl.Handoff(ctx, sess)
		default:
			reply, err = ctrl.Submit(ctx, sess, line, dialogue.SourceText)
		}

		if errors.Is(err, dialogue.ErrComplete) || errors.Is(err, dialogue.ErrHandoffNotPending) {
			fmt.Fprintln(out, "(survey complete, type retry after a failed hand-off or quit)")
			continue
		}
		if err != nil {
			return err
		}
		printReply(out, reply)

		if sess.State == dialogue.Complete && sess.Handoff == dialogue.HandoffDelivered {
			return nil
		}
	}
}

func printReply(out io.Writer, r dialogue.Reply) {
	for _, m := range r.Messages {
		fmt.Fprintln(out, m.Text)
	}
	if r.InsightPageURL != "" {
		fmt.Fprintln(out, r.InsightPageURL)
	}
}
