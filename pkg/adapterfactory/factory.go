// Package adapterfactory constructs vendor adapters from a provider name
// and manages collections of live adapter instances.
package adapterfactory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/callisto/pkg/adapters"
	"mercator-hq/callisto/pkg/adapters/anthropic"
	"mercator-hq/callisto/pkg/adapters/gemini"
	"mercator-hq/callisto/pkg/adapters/openai"
)

// HealthCheckInterval is the default probe interval for adapters created
// with NewWithHealthCheck.
const HealthCheckInterval = 30 * time.Second

// New creates an adapter for the named provider. The name is matched
// case-insensitively.
//
// Supported providers:
//   - "openai": OpenAI chat-completions API
//   - "anthropic": Anthropic text-completion API
//   - "gemini": Google generate-content API
//
// An unsupported name fails synchronously with an invalid-request error;
// so does an empty API key. No network access happens here.
//
// Example:
//
//	adapter, err := adapterfactory.New("openai", adapters.Config{APIKey: "sk-..."})
//	if err != nil {
//	    return err
//	}
//	defer adapter.Close()
func New(provider string, config adapters.Config, opts ...adapters.Option) (adapters.Adapter, error) {
	name := strings.ToLower(strings.TrimSpace(provider))

	slog.Debug("creating adapter",
		"provider", name,
		"base_url", config.BaseURL,
	)

	var adapter adapters.Adapter
	var err error

	switch name {
	case adapters.ProviderOpenAI:
		adapter, err = openai.New(config, opts...)

	case adapters.ProviderAnthropic:
		adapter, err = anthropic.New(config, opts...)

	case adapters.ProviderGemini:
		adapter, err = gemini.New(config, opts...)

	default:
		return nil, &adapters.Error{
			Kind:     adapters.KindInvalidRequest,
			Provider: name,
			Message: fmt.Sprintf("unsupported provider: %q (supported: %s)",
				provider, strings.Join(SupportedProviders(), ", ")),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s adapter: %w", name, err)
	}

	slog.Info("adapter created", "provider", name)

	return adapter, nil
}

// NewWithHealthCheck creates an adapter and starts its background health
// checker. The context stops the checker; the adapter's Close does too.
//
// Example:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	adapter, err := adapterfactory.NewWithHealthCheck(ctx, "gemini", config)
//	if err != nil {
//	    return err
//	}
//	defer adapter.Close()
func NewWithHealthCheck(ctx context.Context, provider string, config adapters.Config, opts ...adapters.Option) (adapters.Adapter, error) {
	adapter, err := New(provider, config, opts...)
	if err != nil {
		return nil, err
	}

	type checkerStarter interface {
		StartHealthChecker(ctx context.Context, interval time.Duration, check adapters.CheckFunc)
	}

	if cs, ok := adapter.(checkerStarter); ok {
		cs.StartHealthChecker(ctx, HealthCheckInterval, adapter.HealthCheck)
		slog.Debug("health checker started", "provider", adapter.Provider())
	}

	return adapter, nil
}

// SupportedProviders returns the provider names New accepts, in a stable
// order.
func SupportedProviders() []string {
	return []string{
		adapters.ProviderOpenAI,
		adapters.ProviderAnthropic,
		adapters.ProviderGemini,
	}
}

// IsSupported reports whether New accepts the provider name.
func IsSupported(provider string) bool {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case adapters.ProviderOpenAI, adapters.ProviderAnthropic, adapters.ProviderGemini:
		return true
	}
	return false
}

// DefaultModel returns the model an adapter for the named provider uses
// when the configuration names none.
func DefaultModel(provider string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case adapters.ProviderOpenAI:
		return openai.DefaultModel, nil
	case adapters.ProviderAnthropic:
		return anthropic.DefaultModel, nil
	case adapters.ProviderGemini:
		return gemini.DefaultModel, nil
	}
	return "", fmt.Errorf("unsupported provider: %q", provider)
}
