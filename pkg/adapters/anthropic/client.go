// Package anthropic implements the completion adapter for Anthropic's
// legacy text-completion API (/v1/complete).
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/callisto/pkg/adapters"
)

const (
	// DefaultBaseURL is the Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultModel is used when the config names no model.
	DefaultModel = "claude-2"

	// APIVersion is the pinned anthropic-version header. With this version
	// the streaming completion field is an incremental delta.
	APIVersion = "2023-06-01"
)

// knownModels is the static catalog returned by GetAvailableModels.
// The legacy completion API exposes no model-list endpoint.
var knownModels = []string{
	"claude-2.1",
	"claude-2",
	"claude-instant-1.2",
	"claude-instant-1",
}

// Adapter is the Anthropic adapter. It implements adapters.Adapter.
type Adapter struct {
	*adapters.Core
}

// New creates an Anthropic adapter. It fails synchronously when the API key
// is empty; no network access happens here.
func New(config adapters.Config, opts ...adapters.Option) (*Adapter, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}

	core, err := adapters.NewCore(adapters.ProviderAnthropic, config, opts...)
	if err != nil {
		return nil, err
	}

	slog.Info("anthropic adapter initialized", "base_url", config.BaseURL, "default_model", config.DefaultModel)

	return &Adapter{Core: core}, nil
}

// headers returns the per-request headers: the key goes into a custom
// header alongside the pinned API version.
func (a *Adapter) headers() map[string]string {
	return map[string]string{
		"x-api-key":         a.Config().APIKey,
		"anthropic-version": APIVersion,
		"Content-Type":      "application/json",
	}
}

// GenerateCompletion requests a full completion for prompt.
func (a *Adapter) GenerateCompletion(ctx context.Context, prompt string, params adapters.Params) (*adapters.CompletionResponse, error) {
	start := time.Now()
	p := adapters.Normalize(params, a.Config().DefaultModel)

	body, err := json.Marshal(buildRequest(prompt, p, false))
	if err != nil {
		return nil, adapters.Classify(a.Provider(), 0, err)
	}

	var resp completeResponse
	url := a.Config().BaseURL + "/v1/complete"
	if err := a.DoJSONRequest(ctx, "POST", url, body, &resp, a.headers()); err != nil {
		a.Observe(p.Model, start, err)
		return nil, err
	}

	// The legacy API reports no token usage, so both sides are estimated.
	usage := adapters.TokenUsage{
		PromptTokens:     a.EstimateTokenCount(prompt, p.Model),
		CompletionTokens: a.EstimateTokenCount(resp.Completion, p.Model),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	metrics := adapters.NewCallMetrics(start, time.Time{}, usage.TotalTokens)

	a.RecordUsage(ctx, p.Model, usage)
	a.Observe(p.Model, start, nil)

	slog.Debug("completion request succeeded",
		"provider", a.Provider(),
		"model", p.Model,
		"stop_reason", resp.StopReason,
		"tokens", usage.TotalTokens,
	)

	return &adapters.CompletionResponse{
		Text:     resp.Completion,
		Usage:    usage,
		Provider: a.Provider(),
		Model:    p.Model,
		Metrics:  metrics,
	}, nil
}

// StreamCompletion requests a streamed completion.
func (a *Adapter) StreamCompletion(ctx context.Context, prompt string, params adapters.Params) (<-chan *adapters.StreamChunk, error) {
	start := time.Now()
	p := adapters.Normalize(params, a.Config().DefaultModel)

	body, err := json.Marshal(buildRequest(prompt, p, true))
	if err != nil {
		return nil, adapters.Classify(a.Provider(), 0, err)
	}

	headers := a.headers()
	headers["Accept"] = "text/event-stream"

	url := a.Config().BaseURL + "/v1/complete"
	resp, err := a.DoRequest(ctx, "POST", url, body, headers)
	if err != nil {
		a.Observe(p.Model, start, err)
		return nil, err
	}

	reader := newStreamReader(a.Provider(), resp.Body)
	promptTokens := a.EstimateTokenCount(prompt, p.Model)

	return a.RunStream(ctx, reader, p.Model, promptTokens, start), nil
}

// GetAvailableModels returns the static model catalog. The legacy
// completion API has no list endpoint, so the catalog is fixed; it is still
// memoized through the shared cache for interface symmetry.
func (a *Adapter) GetAvailableModels(ctx context.Context) ([]string, error) {
	if cached, ok := a.CachedModels(); ok {
		return cached, nil
	}

	models := make([]string, len(knownModels))
	copy(models, knownModels)

	a.StoreModels(models)
	return models, nil
}

// HealthCheck probes the vendor with a minimal one-token completion, since
// no cheaper authenticated endpoint exists on the legacy API.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	one := 1
	probe := adapters.Params{MaxTokens: &one}

	if _, err := a.GenerateCompletion(ctx, "ping", probe); err != nil {
		return fmt.Errorf("anthropic health check: %w", err)
	}
	return nil
}
