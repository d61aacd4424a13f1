package adapters

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// FrameReader parses one vendor's streaming wire format into delta chunks.
// Implementations live in the vendor packages; the Core drives them.
type FrameReader interface {
	// Next returns the next parsed frame. A frame may carry a text delta,
	// a finish reason (the vendor's terminal marker), vendor usage, or any
	// combination. Next returns io.EOF when the transport ends; any other
	// error aborts the stream.
	Next(ctx context.Context) (*StreamChunk, error)

	// Close releases the underlying response body.
	Close() error
}

// RunStream drives a FrameReader to completion and emits the unified chunk
// sequence on the returned channel.
//
// Guarantees:
//   - deltas are forwarded in the order frames were received;
//   - exactly one terminal chunk (Done=true) is emitted last, carrying
//     usage, metrics, and the stream error if one occurred — even when the
//     transport ended without the vendor's own terminal marker;
//   - after a failure no further deltas are emitted;
//   - the channel is closed after the terminal chunk.
//
// The only case with no terminal chunk is a cancelled context: a caller
// that has walked away stops receiving, so emission is abandoned.
//
// Usage is taken from the vendor's authoritative metadata when the stream
// supplied it, otherwise estimated from the accumulated text; either way
// TotalTokens is recomputed locally. Usage is recorded on every finalized
// stream, not on aborted ones.
func (c *Core) RunStream(ctx context.Context, reader FrameReader, model string, promptTokens int, start time.Time) <-chan *StreamChunk {
	out := make(chan *StreamChunk, 100)

	go func() {
		defer close(out)
		defer reader.Close()

		var (
			text         strings.Builder
			firstToken   time.Time
			vendorUsage  *TokenUsage
			finishReason string
			streamErr    *Error
		)

	receive:
		for {
			frame, err := reader.Next(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					break receive
				}
				streamErr = Classify(c.provider, 0, err)
				break receive
			}
			if frame == nil {
				continue
			}

			if frame.Usage != nil {
				vendorUsage = frame.Usage
			}
			if frame.FinishReason != "" {
				finishReason = frame.FinishReason
			}

			if frame.Delta != "" {
				if firstToken.IsZero() {
					firstToken = time.Now()
				}
				text.WriteString(frame.Delta)

				select {
				case out <- &StreamChunk{Delta: frame.Delta}:
				case <-ctx.Done():
					return
				}
			}

			if finishReason != "" {
				break receive
			}
		}

		// Finalize: compute usage whether or not the vendor said goodbye.
		var usage TokenUsage
		if vendorUsage != nil {
			usage = *vendorUsage
		} else {
			usage.PromptTokens = promptTokens
			usage.CompletionTokens = c.estimator.EstimateText(text.String(), model)
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

		metrics := NewCallMetrics(start, firstToken, usage.TotalTokens)

		terminal := &StreamChunk{
			Done:         true,
			FinishReason: finishReason,
			Usage:        &usage,
			Metrics:      &metrics,
		}

		if streamErr != nil {
			terminal.Err = streamErr
			c.Observe(model, start, streamErr)
		} else {
			c.RecordUsage(ctx, model, usage)
			c.Observe(model, start, nil)
		}

		select {
		case out <- terminal:
		case <-ctx.Done():
		}
	}()

	return out
}
