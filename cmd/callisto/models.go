package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models a provider offers",
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider, _ := cmd.Flags().GetString("provider")
	adapter, cleanup, err := buildAdapter(cfg, provider)
	if err != nil {
		return err
	}
	defer cleanup()

	models, err := adapter.GetAvailableModels(cmd.Context())
	if err != nil {
		return err
	}

	for _, model := range models {
		fmt.Fprintln(cmd.OutOrStdout(), model)
	}
	return nil
}

func init() {
	modelsCmd.Flags().StringP("provider", "p", "", "provider to query (openai, anthropic, gemini)")
	rootCmd.AddCommand(modelsCmd)
}
