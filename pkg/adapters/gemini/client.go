// Package gemini implements the completion adapter for Google's
// generate-content API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"mercator-hq/callisto/pkg/adapters"
)

const (
	// DefaultBaseURL is the generative language API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the fallback for unrecognized model names.
	DefaultModel = "gemini-pro"
)

// Adapter is the Gemini adapter. It implements adapters.Adapter.
type Adapter struct {
	*adapters.Core
}

// New creates a Gemini adapter. It fails synchronously when the API key is
// empty; no network access happens here.
func New(config adapters.Config, opts ...adapters.Option) (*Adapter, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	} else {
		config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}

	core, err := adapters.NewCore(adapters.ProviderGemini, config, opts...)
	if err != nil {
		return nil, err
	}

	slog.Info("gemini adapter initialized", "base_url", config.BaseURL, "default_model", config.DefaultModel)

	return &Adapter{Core: core}, nil
}

// endpoint builds a model-scoped URL with the key as a query parameter,
// which is how this vendor authenticates.
func (a *Adapter) endpoint(model, verb string, query map[string]string) string {
	resource := model
	if !strings.Contains(resource, "/") {
		resource = "models/" + resource
	}

	q := url.Values{}
	q.Set("key", a.Config().APIKey)
	for k, v := range query {
		q.Set(k, v)
	}

	return fmt.Sprintf("%s/%s:%s?%s", a.Config().BaseURL, resource, verb, q.Encode())
}

// GenerateCompletion requests a full completion for prompt.
func (a *Adapter) GenerateCompletion(ctx context.Context, prompt string, params adapters.Params) (*adapters.CompletionResponse, error) {
	start := time.Now()
	p := adapters.Normalize(params, a.Config().DefaultModel)
	model := ResolveModel(p.Model)

	body, err := json.Marshal(buildRequest(prompt, p))
	if err != nil {
		return nil, adapters.Classify(a.Provider(), 0, err)
	}

	var resp generateResponse
	if err := a.DoJSONRequest(ctx, "POST", a.endpoint(model, "generateContent", nil), body, &resp, nil); err != nil {
		a.Observe(model, start, err)
		return nil, err
	}

	if resp.Error != nil {
		classified := adapters.Classify(a.Provider(), resp.Error.Code,
			fmt.Errorf("%s: %s", resp.Error.Status, resp.Error.Message))
		a.Observe(model, start, classified)
		return nil, classified
	}

	text := candidateText(&resp)

	usage := a.resolveUsage(resp.UsageMetadata, prompt, text, model)
	metrics := adapters.NewCallMetrics(start, time.Time{}, usage.TotalTokens)

	a.RecordUsage(ctx, model, usage)
	a.Observe(model, start, nil)

	slog.Debug("completion request succeeded",
		"provider", a.Provider(),
		"model", model,
		"tokens", usage.TotalTokens,
	)

	return &adapters.CompletionResponse{
		Text:     text,
		Usage:    usage,
		Provider: a.Provider(),
		Model:    model,
		Metrics:  metrics,
	}, nil
}

// StreamCompletion requests a streamed completion.
func (a *Adapter) StreamCompletion(ctx context.Context, prompt string, params adapters.Params) (<-chan *adapters.StreamChunk, error) {
	start := time.Now()
	p := adapters.Normalize(params, a.Config().DefaultModel)
	model := ResolveModel(p.Model)

	body, err := json.Marshal(buildRequest(prompt, p))
	if err != nil {
		return nil, adapters.Classify(a.Provider(), 0, err)
	}

	streamURL := a.endpoint(model, "streamGenerateContent", map[string]string{"alt": "sse"})
	resp, err := a.DoRequest(ctx, "POST", streamURL, body, map[string]string{
		"Content-Type": "application/json",
		"Accept":       "text/event-stream",
	})
	if err != nil {
		a.Observe(model, start, err)
		return nil, err
	}

	reader := newStreamReader(a.Provider(), resp.Body)
	promptTokens := a.EstimateTokenCount(prompt, model)

	return a.RunStream(ctx, reader, model, promptTokens, start), nil
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
	listURL := fmt.Sprintf("%s/models?key=%s", a.Config().BaseURL, url.QueryEscape(a.Config().APIKey))
	if err := a.DoJSONRequest(ctx, "GET", listURL, nil, &resp, nil); err != nil {
		return nil, err
	}

	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

// HealthCheck verifies the vendor responds to a model-list request.
// It always bypasses the model cache.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	if _, err := a.fetchModels(ctx); err != nil {
		return fmt.Errorf("gemini health check: %w", err)
	}
	return nil
}

// resolveUsage prefers the vendor's usage metadata and falls back to the
// estimator; TotalTokens is recomputed locally either way.
func (a *Adapter) resolveUsage(u *usageMetadata, prompt, text, model string) adapters.TokenUsage {
	var usage adapters.TokenUsage
	if u != nil {
		usage.PromptTokens = u.PromptTokenCount
		usage.CompletionTokens = u.CandidatesTokenCount
	} else {
		usage.PromptTokens = a.EstimateTokenCount(prompt, model)
		usage.CompletionTokens = a.EstimateTokenCount(text, model)
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return usage
}
