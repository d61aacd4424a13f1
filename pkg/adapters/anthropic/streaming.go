package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mercator-hq/callisto/pkg/adapters"
)

// streamReader parses the legacy completion stream: SSE frames delimited by
// blank lines, each frame's data payload carrying an incremental completion
// delta until a stop_reason appears.
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

// Next returns the next parsed frame, io.EOF at transport end.
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

		data, err := s.readFrame()
		if err != nil {
			return nil, err
		}

		if data == "" || data == "[DONE]" {
			if data == "[DONE]" {
				return nil, io.EOF
			}
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil, fmt.Errorf("failed to parse stream event: %w", err)
		}

		// Keep-alive pings carry no completion data.
		if event.Type == "ping" {
			continue
		}

		return &adapters.StreamChunk{
			Delta:        event.Completion,
			FinishReason: event.StopReason,
		}, nil
	}
}

// readFrame reads one blank-line-delimited frame and returns its joined
// data payload. Returns io.EOF once the transport is drained.
func (s *streamReader) readFrame() (string, error) {
	var dataLines []string
	sawField := false

	for s.scanner.Scan() {
		line := s.scanner.Text()

		// Blank line ends the frame.
		if line == "" {
			if sawField {
				break
			}
			continue
		}

		sawField = true
		if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		}
		// event:/id:/retry: fields are not needed here.
	}

	if err := s.scanner.Err(); err != nil {
		return "", err
	}

	if !sawField {
		return "", io.EOF
	}

	return strings.Join(dataLines, "\n"), nil
}

// Close closes the underlying response body.
func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
