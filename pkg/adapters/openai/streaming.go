package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mercator-hq/callisto/pkg/adapters"
)

// streamReader parses the chat-completions SSE stream: `data: {...}` lines
// carrying incremental deltas, terminated by a literal `data: [DONE]`
// sentinel that must be filtered out before JSON parsing.
type streamReader struct {
	provider string
	body     io.ReadCloser
	scanner  *bufio.Scanner
	closed   bool
}

func newStreamReader(provider string, body io.ReadCloser) *streamReader {
	return &streamReader{
		provider: provider,
		body:     body,
		scanner:  bufio.NewScanner(body),
	}
}

// Next returns the next parsed frame, io.EOF at the [DONE] sentinel or
// transport end.
func (s *streamReader) Next(ctx context.Context) (*adapters.StreamChunk, error) {
	if s.closed {
		return nil, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}

		line := s.scanner.Text()
		if line == "" {
			continue
		}

		// Skip non-data lines (comments, event names).
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil, io.EOF
		}

		var chunk streamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, fmt.Errorf("failed to parse stream chunk: %w", err)
		}

		frame := &adapters.StreamChunk{}
		if len(chunk.Choices) > 0 {
			frame.Delta = chunk.Choices[0].Delta.Content
			frame.FinishReason = chunk.Choices[0].FinishReason
		}
		if chunk.Usage != nil {
			frame.Usage = &adapters.TokenUsage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}

		return frame, nil
	}
}

// Close closes the underlying response body.
func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
