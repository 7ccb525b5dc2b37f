package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "promptbridge",
	Short: "OpenAI-compatible front end for native-prompt inference backends",
	Long: `promptbridge accepts OpenAI chat-completion requests, renders them into
the prompt dialect of the target model family, and relays them to a
llama.cpp-style inference backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
