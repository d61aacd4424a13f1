// Package adapters defines the provider-agnostic completion contract and the
// shared engine behind the concrete vendor adapters.
//
// Every adapter exposes the same capability set: synchronous completion,
// streamed completion as a cancellable chunk sequence, model listing with a
// set-once cache, a health check, coarse token estimation, and per-instance
// usage statistics. The engine (Core) carries the cross-cutting behavior:
// configuration validation, parameter normalization, error classification,
// retry with exponential backoff, and usage/metrics bookkeeping. Vendor
// packages implement only the protocol-specific request mapping and stream
// parsing.
package adapters

import (
	"context"
	"strings"
	"time"
)

// Adapter is the capability contract every vendor adapter satisfies.
//
// All methods accept a context.Context for cancellation and deadline
// control. Network-bound methods fail with *Error, never an unwrapped
// transport error. Multiple concurrent calls against one adapter are
// permitted; calls share no per-call state.
type Adapter interface {
	// Provider returns the adapter's provider identifier ("openai",
	// "anthropic", "gemini").
	Provider() string

	// GetAvailableModels returns the vendor's model identifiers. The result
	// of the first successful call is memoized for the adapter's lifetime.
	GetAvailableModels(ctx context.Context) ([]string, error)

	// GenerateCompletion requests a full completion for prompt.
	// Transient failures are retried with exponential backoff up to the
	// configured MaxRetries before the classified error surfaces.
	GenerateCompletion(ctx context.Context, prompt string, params Params) (*CompletionResponse, error)

	// StreamCompletion requests a streamed completion. The returned channel
	// yields zero or more delta chunks followed by exactly one terminal
	// chunk (Done=true), then closes. The error return covers only failures
	// before the stream started; later failures arrive on the terminal
	// chunk's Err field. Cancelling ctx abandons the stream.
	StreamCompletion(ctx context.Context, prompt string, params Params) (<-chan *StreamChunk, error)

	// HealthCheck verifies the vendor is reachable and responding. The
	// default implementation asks for the model list, bypassing the cache.
	HealthCheck(ctx context.Context) error

	// EstimateTokenCount approximates the token count of text. This is a
	// coarse heuristic (ceil of character length / 4 by default), not a
	// billing-accurate tokenizer.
	EstimateTokenCount(text string, model string) int

	// UsageStatistics aggregates the instance's usage log. The second
	// return is false when no call has completed yet.
	UsageStatistics() (UsageStatistics, bool)

	// Close releases transport resources. The adapter must not be used
	// afterwards.
	Close() error
}

// Observer receives request outcomes and token counts, typically to feed a
// metrics backend. A nil Observer is valid and observes nothing.
type Observer interface {
	// ObserveRequest records the outcome of one call. err is nil on success.
	ObserveRequest(provider, model string, duration time.Duration, err *Error)

	// ObserveTokens records token consumption of one completed call.
	ObserveTokens(provider, model string, usage TokenUsage)
}

// StreamCallback is the callback-style streaming surface. It is invoked
// zero or more times with (delta, false, nil) and exactly once, last, with
// done=true, carrying the stream error if the stream failed after starting.
type StreamCallback func(chunk string, done bool, err error)

// StreamFunc adapts an adapter's channel-based stream to the callback
// contract. It returns once the terminal callback has been delivered.
// The returned error is the terminal stream error (also passed to the
// callback) or, for failures before the stream started, the start error
// (in which case the callback is never invoked).
func StreamFunc(ctx context.Context, a Adapter, prompt string, params Params, cb StreamCallback) error {
	chunks, err := a.StreamCompletion(ctx, prompt, params)
	if err != nil {
		return err
	}

	for chunk := range chunks {
		if chunk.Done {
			cb("", true, chunk.Err)
			return chunk.Err
		}
		cb(chunk.Delta, false, nil)
	}

	// The channel closed without a terminal chunk. Adapters guarantee a
	// terminal event, but the consumer must never be left without one.
	cb("", true, nil)
	return nil
}

// CollectStream drains a stream and reassembles the full text from the
// non-terminal deltas. It returns the terminal chunk alongside the text.
func CollectStream(chunks <-chan *StreamChunk) (string, *StreamChunk) {
	var sb strings.Builder
	var terminal *StreamChunk

	for chunk := range chunks {
		if chunk.Done {
			terminal = chunk
			continue
		}
		sb.WriteString(chunk.Delta)
	}

	return sb.String(), terminal
}
