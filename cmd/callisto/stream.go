package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var streamCmd = &cobra.Command{
	Use:   "stream [prompt]",
	Short: "Request a streamed completion and print deltas as they arrive",
	Long: `Request a streamed completion from the configured provider. Text is
printed incrementally as the vendor produces it:

  callisto stream "Tell me a story about a lighthouse"
  callisto stream --provider gemini --max-tokens 200 "Explain SSE"`,
	Args: cobra.ArbitraryArgs,
	RunE: runStream,
}

func runStream(cmd *cobra.Command, args []string) error {
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

	chunks, err := adapter.StreamCompletion(cmd.Context(), prompt, buildParams(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for chunk := range chunks {
		if chunk.Done {
			fmt.Fprintln(out)
			if chunk.Err != nil {
				return chunk.Err
			}
			if verbose && chunk.Usage != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "tokens: %d prompt + %d completion = %d total\n",
					chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens, chunk.Usage.TotalTokens)
			}
			if verbose && chunk.Metrics != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "time: %s  first token: %s\n",
					chunk.Metrics.TotalTime.Round(time.Millisecond),
					chunk.Metrics.TimeToFirstToken.Round(time.Millisecond))
			}
			continue
		}
		fmt.Fprint(out, chunk.Delta)
	}

	return nil
}

func init() {
	addCompletionFlags(streamCmd)
	rootCmd.AddCommand(streamCmd)
}
