package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Request a completion and print the result",
	Long: `Request a synchronous completion from the configured provider.

The prompt is taken from the arguments, or from stdin when no argument
is given:

  callisto complete "Write a haiku about the sea"
  echo "Write a haiku" | callisto complete --provider anthropic`,
	Args: cobra.ArbitraryArgs,
	RunE: runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	prompt, err := readPrompt(cmd, args)
	if err != nil {
		return err
	}

	provider, _ := cmd.Flags().GetString("provider")
	adapter, cleanup, err := buildAdapter(cfg, provider)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := adapter.GenerateCompletion(cmd.Context(), prompt, buildParams(cmd))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), resp.Text)

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "provider: %s  model: %s\n", resp.Provider, resp.Model)
		fmt.Fprintf(cmd.ErrOrStderr(), "tokens: %d prompt + %d completion = %d total\n",
			resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
		fmt.Fprintf(cmd.ErrOrStderr(), "time: %s", resp.Metrics.TotalTime.Round(time.Millisecond))
		if resp.Metrics.TokensPerSecond > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "  (%.1f tokens/s)", resp.Metrics.TokensPerSecond)
		}
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	return nil
}

func init() {
	addCompletionFlags(completeCmd)
	rootCmd.AddCommand(completeCmd)
}
