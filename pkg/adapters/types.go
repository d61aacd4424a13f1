package adapters

import "time"

// Provider identifiers for the built-in adapters.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config contains configuration for a single adapter instance.
// An adapter's config is fixed at construction time; callers wanting
// different settings construct a new adapter.
type Config struct {
	// APIKey is the vendor credential. Required: construction fails
	// synchronously, before any network access, when it is empty.
	APIKey string

	// BaseURL overrides the vendor's default API endpoint.
	// Mainly useful for proxies and tests.
	BaseURL string

	// DefaultModel is the model used when a request does not name one.
	DefaultModel string

	// MaxRetries is the maximum number of retry attempts for transient
	// failures. Defaults to 3.
	MaxRetries int

	// Timeout is the per-request transport timeout. Defaults to 30 seconds.
	Timeout time.Duration

	// Organization is sent as the OpenAI-Organization header.
	// Only the OpenAI adapter uses it; other adapters ignore it.
	Organization string

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool.
	IdleConnTimeout time.Duration
}

// Params contains caller-supplied completion parameters. All fields are
// optional; nil pointer fields take the defaults applied by Normalize.
// The distinction between "unset" and "explicitly zero" matters here
// (temperature 0 is a valid request), hence the pointers.
type Params struct {
	Temperature      *float64
	MaxTokens        *int
	TopP             *float64
	StopSequences    []string
	PresencePenalty  *float64
	FrequencyPenalty *float64
	Model            string
}

// NormalizedParams is the engine's output: every field populated, defaults
// filled in. Adapters map these to the vendor request schema.
type NormalizedParams struct {
	Temperature      float64
	MaxTokens        int
	TopP             float64
	StopSequences    []string
	PresencePenalty  float64
	FrequencyPenalty float64
	Model            string
}

// TokenUsage tracks token consumption for a single call.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is always PromptTokens + CompletionTokens
	TotalTokens int `json:"total_tokens"`
}

// CallMetrics contains timing measurements for a completed call.
type CallMetrics struct {
	// TotalTime is the wall-clock duration of the whole call.
	TotalTime time.Duration `json:"total_time"`

	// TimeToFirstToken is the delay before the first streamed chunk was
	// observed. Zero for non-streaming calls and streams that produced
	// no chunks.
	TimeToFirstToken time.Duration `json:"time_to_first_token,omitempty"`

	// TokensPerSecond is TotalTokens divided by TotalTime in seconds.
	// Zero when either quantity is not positive.
	TokensPerSecond float64 `json:"tokens_per_second,omitempty"`
}

// CompletionResponse is the unified result of a completion call,
// normalized from the vendor-specific response format.
type CompletionResponse struct {
	// Text is the generated completion text.
	Text string `json:"text"`

	// Usage contains token consumption. TotalTokens is recomputed locally
	// as PromptTokens+CompletionTokens rather than trusted verbatim.
	Usage TokenUsage `json:"usage"`

	// Provider is the adapter's provider identifier.
	Provider string `json:"provider"`

	// Model is the model that generated the response.
	Model string `json:"model"`

	// Metrics contains call timing measurements.
	Metrics CallMetrics `json:"metrics"`
}

// StreamChunk is one element of a streaming completion sequence.
//
// Zero or more chunks carry Delta text with Done=false, followed by exactly
// one terminal chunk with Done=true after which the channel closes. The
// concatenation of all non-terminal deltas equals the full completion text.
// The terminal chunk carries final usage and metrics, and Err when the
// stream failed after it had started.
type StreamChunk struct {
	// Delta is the incremental text in this chunk. Empty on the terminal chunk.
	Delta string `json:"delta"`

	// Done marks the terminal chunk.
	Done bool `json:"done"`

	// FinishReason is the vendor's stop signal, when one was observed.
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage is set on the terminal chunk.
	Usage *TokenUsage `json:"usage,omitempty"`

	// Metrics is set on the terminal chunk.
	Metrics *CallMetrics `json:"metrics,omitempty"`

	// Err is set on the terminal chunk if the stream failed after starting.
	Err error `json:"-"`
}

// UsageRecord is one entry in an adapter's usage log. Records are appended
// on every completed call, streaming or not, success or finalized stream.
type UsageRecord struct {
	ID               string    `json:"id"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	Timestamp        time.Time `json:"timestamp"`
}

// ModelUsage aggregates usage for a single model.
type ModelUsage struct {
	Requests         int `json:"requests"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// UsageStatistics is the aggregate view over an adapter's usage log.
type UsageStatistics struct {
	Provider         string                `json:"provider"`
	Requests         int                   `json:"requests"`
	PromptTokens     int                   `json:"prompt_tokens"`
	CompletionTokens int                   `json:"completion_tokens"`
	TotalTokens      int                   `json:"total_tokens"`
	ByModel          map[string]ModelUsage `json:"by_model"`
	FirstRecord      time.Time             `json:"first_record"`
	LastRecord       time.Time             `json:"last_record"`
}

// Health tracks an adapter's health status, updated after requests and
// health checks.
type Health struct {
	// IsHealthy indicates whether the adapter is currently healthy
	IsHealthy bool

	// LastCheck is the timestamp of the last health check
	LastCheck time.Time

	// LastError is the most recent error encountered (nil if healthy)
	LastError error

	// ConsecutiveFailures counts sequential failures
	ConsecutiveFailures int

	// LastSuccessfulRequest is the timestamp of the last successful request
	LastSuccessfulRequest time.Time

	// TotalRequests is the total number of requests sent through this adapter
	TotalRequests int64

	// FailedRequests is the total number of failed requests
	FailedRequests int64
}
