package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - provider-agnostic LLM completion client",
	Long: `Callisto is a unified command line client for LLM completion APIs.

It talks to OpenAI, Anthropic, and Gemini through a single adapter
contract, providing:
  - Synchronous and streamed completions with a uniform parameter surface
  - Shared retry with exponential backoff and normalized error reporting
  - Per-call token usage accounting with optional persistent storage
  - Provider health checks and model discovery`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "callisto.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
