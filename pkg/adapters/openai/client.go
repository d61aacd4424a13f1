// Package openai implements the completion adapter for OpenAI's
// chat-completions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/callisto/pkg/adapters"
)

const (
	// DefaultBaseURL is the OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when the config names no model.
	DefaultModel = "gpt-3.5-turbo"
)

// Adapter is the OpenAI adapter. It implements adapters.Adapter.
type Adapter struct {
	*adapters.Core
}

// New creates an OpenAI adapter. It fails synchronously when the API key
// is empty; no network access happens here.
func New(config adapters.Config, opts ...adapters.Option) (*Adapter, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}

	core, err := adapters.NewCore(adapters.ProviderOpenAI, config, opts...)
	if err != nil {
		return nil, err
	}

	slog.Info("openai adapter initialized", "base_url", config.BaseURL, "default_model", config.DefaultModel)

	return &Adapter{Core: core}, nil
}

// headers returns the per-request headers: bearer credential plus the
// optional organization header.
func (a *Adapter) headers() map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + a.Config().APIKey,
		"Content-Type":  "application/json",
	}
	if org := a.Config().Organization; org != "" {
		h["OpenAI-Organization"] = org
	}
	return h
}

// GenerateCompletion requests a full completion for prompt.
func (a *Adapter) GenerateCompletion(ctx context.Context, prompt string, params adapters.Params) (*adapters.CompletionResponse, error) {
	start := time.Now()
	p := adapters.Normalize(params, a.Config().DefaultModel)

	body, err := json.Marshal(buildRequest(prompt, p, false))
	if err != nil {
		return nil, adapters.Classify(a.Provider(), 0, err)
	}

	var resp chatResponse
	url := a.Config().BaseURL + "/chat/completions"
	if err := a.DoJSONRequest(ctx, "POST", url, body, &resp, a.headers()); err != nil {
		a.Observe(p.Model, start, err)
		return nil, err
	}

	if len(resp.Choices) == 0 {
		err := &adapters.Error{
			Kind:     adapters.KindUnknown,
			Provider: a.Provider(),
			Message:  "no choices in response",
		}
		a.Observe(p.Model, start, err)
		return nil, err
	}

	text := resp.Choices[0].Message.Content

	usage := a.resolveUsage(resp.Usage, prompt, text, p.Model)
	metrics := adapters.NewCallMetrics(start, time.Time{}, usage.TotalTokens)

	a.RecordUsage(ctx, p.Model, usage)
	a.Observe(p.Model, start, nil)

	slog.Debug("completion request succeeded",
		"provider", a.Provider(),
		"model", p.Model,
		"tokens", usage.TotalTokens,
	)

	return &adapters.CompletionResponse{
		Text:     text,
		Usage:    usage,
		Provider: a.Provider(),
		Model:    p.Model,
		Metrics:  metrics,
	}, nil
}

// StreamCompletion requests a streamed completion. The error return covers
// only failures before the stream starts (including exhausted retries of
// the request handshake); later failures arrive on the terminal chunk.
func (a *Adapter) StreamCompletion(ctx context.Context, prompt string, params adapters.Params) (<-chan *adapters.StreamChunk, error) {
	start := time.Now()
	p := adapters.Normalize(params, a.Config().DefaultModel)

	body, err := json.Marshal(buildRequest(prompt, p, true))
	if err != nil {
		return nil, adapters.Classify(a.Provider(), 0, err)
	}

	headers := a.headers()
	headers["Accept"] = "text/event-stream"

	url := a.Config().BaseURL + "/chat/completions"
	resp, err := a.DoRequest(ctx, "POST", url, body, headers)
	if err != nil {
		a.Observe(p.Model, start, err)
		return nil, err
	}

	reader := newStreamReader(a.Provider(), resp.Body)
	promptTokens := a.EstimateTokenCount(prompt, p.Model)

	return a.RunStream(ctx, reader, p.Model, promptTokens, start), nil
}

// GetAvailableModels returns the vendor's model identifiers, memoized after
// the first successful call for the adapter's lifetime.
func (a *Adapter) GetAvailableModels(ctx context.Context) ([]string, error) {
	if cached, ok := a.CachedModels(); ok {
		return cached, nil
	}

	models, err := a.fetchModels(ctx)
	if err != nil {
		return nil, err
	}

	a.StoreModels(models)
	return models, nil
}

// fetchModels lists models without touching the cache.
func (a *Adapter) fetchModels(ctx context.Context) ([]string, error) {
	var resp modelsResponse
	url := a.Config().BaseURL + "/models"
	if err := a.DoJSONRequest(ctx, "GET", url, nil, &resp, a.headers()); err != nil {
		return nil, err
	}

	models := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// HealthCheck verifies the vendor responds to a model-list request.
// It always bypasses the model cache.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	if _, err := a.fetchModels(ctx); err != nil {
		return fmt.Errorf("openai health check: %w", err)
	}
	return nil
}

// resolveUsage prefers the vendor's usage metadata and falls back to the
// estimator; TotalTokens is recomputed locally either way.
func (a *Adapter) resolveUsage(u *chatUsage, prompt, text, model string) adapters.TokenUsage {
	var usage adapters.TokenUsage
	if u != nil {
		usage.PromptTokens = u.PromptTokens
		usage.CompletionTokens = u.CompletionTokens
	} else {
		usage.PromptTokens = a.EstimateTokenCount(prompt, model)
		usage.CompletionTokens = a.EstimateTokenCount(text, model)
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return usage
}
