package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "agriform",
	Short: "Conversational farm survey",
	Long: `agriform asks a farmer four questions (location, farm size, crop, sowing date),
extracts structured values from free-text or transcribed answers, and hands the
completed record to the insight service.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.Version = version
}
