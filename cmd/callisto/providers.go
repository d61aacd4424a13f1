package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/adapterfactory"
	"mercator-hq/callisto/pkg/config"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show supported providers and their configuration state",
	RunE:  runProviders,
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	check, _ := cmd.Flags().GetBool("check")
	out := cmd.OutOrStdout()

	for _, name := range adapterfactory.SupportedProviders() {
		_, configured := cfg.Providers[name]

		marker := " "
		if name == cfg.DefaultProvider {
			marker = "*"
		}

		status := "not configured"
		if configured {
			status = "configured"
			if check {
				status = checkProvider(cmd, cfg, name)
			}
		}

		defaultModel, _ := adapterfactory.DefaultModel(name)
		fmt.Fprintf(out, "%s %-10s  %-14s  default model: %s\n", marker, name, status, defaultModel)
	}

	return nil
}

// checkProvider runs a health check against a configured provider.
func checkProvider(cmd *cobra.Command, cfg *config.Config, name string) string {
	adapter, cleanup, err := buildAdapter(cfg, name)
	if err != nil {
		return "error: " + err.Error()
	}
	defer cleanup()

	if err := adapter.HealthCheck(cmd.Context()); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func init() {
	providersCmd.Flags().Bool("check", false, "run a health check against configured providers")
	rootCmd.AddCommand(providersCmd)
}
