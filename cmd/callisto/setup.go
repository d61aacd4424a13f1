package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/adapterfactory"
	"mercator-hq/callisto/pkg/adapters"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/usage"
)

// loadConfig loads the configuration file if one exists, falling back to
// defaults plus environment overrides. Verbose mode forces debug logging.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if _, statErr := os.Stat(cfgFile); statErr == nil {
		cfg, err = config.LoadWithEnvOverrides(cfgFile)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}

	if _, err := logging.Install(&cfg.Logging); err != nil {
		return nil, err
	}

	return cfg, nil
}

// buildAdapter constructs the adapter for a provider from the loaded
// configuration. The returned cleanup closes the adapter and any usage
// store behind it.
func buildAdapter(cfg *config.Config, provider string) (adapters.Adapter, func(), error) {
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "" {
		name = cfg.DefaultProvider
	}

	providerCfg, ok := cfg.Providers[name]
	if !ok {
		return nil, nil, fmt.Errorf(
			"provider %q is not configured (set providers.%s.api_key in %s, or CALLISTO_PROVIDERS_%s_API_KEY)",
			name, name, cfgFile, strings.ToUpper(name))
	}

	var opts []adapters.Option
	var closers []io.Closer

	store, err := openUsageStore(&cfg.Usage)
	if err != nil {
		return nil, nil, err
	}
	if store != nil {
		opts = append(opts, adapters.WithSink(store))
		closers = append(closers, store)
	}

	adapter, err := adapterfactory.New(name, providerCfg.AdapterConfig(), opts...)
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		adapter.Close()
		for _, c := range closers {
			c.Close()
		}
	}
	return adapter, cleanup, nil
}

// openUsageStore opens the configured persistent usage backend. The memory
// backend returns nil: a one-shot process gains nothing from an in-memory
// sink on top of the adapter's own log.
func openUsageStore(cfg *config.UsageConfig) (usage.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		sqliteCfg := usage.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.SQLitePath
		return usage.NewSQLiteSink(sqliteCfg)
	default:
		return nil, nil
	}
}

// buildParams maps the completion flags to adapter parameters, honoring
// the unset/explicit-zero distinction via Changed.
func buildParams(cmd *cobra.Command) adapters.Params {
	params := adapters.Params{}

	if cmd.Flags().Changed("temperature") {
		v, _ := cmd.Flags().GetFloat64("temperature")
		params.Temperature = &v
	}
	if cmd.Flags().Changed("max-tokens") {
		v, _ := cmd.Flags().GetInt("max-tokens")
		params.MaxTokens = &v
	}
	if cmd.Flags().Changed("top-p") {
		v, _ := cmd.Flags().GetFloat64("top-p")
		params.TopP = &v
	}
	if cmd.Flags().Changed("stop") {
		v, _ := cmd.Flags().GetStringSlice("stop")
		params.StopSequences = v
	}
	if cmd.Flags().Changed("model") {
		v, _ := cmd.Flags().GetString("model")
		params.Model = v
	}

	return params
}

// addCompletionFlags registers the flags shared by complete and stream.
func addCompletionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("provider", "p", "", "provider to use (openai, anthropic, gemini)")
	cmd.Flags().StringP("model", "m", "", "model to use (provider default when omitted)")
	cmd.Flags().Float64P("temperature", "t", 0, "sampling temperature")
	cmd.Flags().Int("max-tokens", 0, "maximum completion tokens")
	cmd.Flags().Float64("top-p", 0, "nucleus sampling probability mass")
	cmd.Flags().StringSlice("stop", nil, "stop sequences")
}

// readPrompt takes the prompt from the arguments, or from stdin when no
// argument is given.
func readPrompt(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("empty prompt: pass it as an argument or on stdin")
	}
	return prompt, nil
}
