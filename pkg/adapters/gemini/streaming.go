package gemini

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mercator-hq/callisto/pkg/adapters"
)

// streamReader parses the streamGenerateContent SSE stream: frames
// delimited by blank lines, each frame a generate-content response whose
// first candidate carries a text delta. A frame with a finishReason is the
// vendor's terminal marker.
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
		if data == "" {
			continue
		}

		var resp generateResponse
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse stream frame: %w", err)
		}

		if resp.Error != nil {
			return nil, fmt.Errorf("stream error %d (%s): %s", resp.Error.Code, resp.Error.Status, resp.Error.Message)
		}

		frame := &adapters.StreamChunk{
			Delta: candidateText(&resp),
		}
		if len(resp.Candidates) > 0 {
			frame.FinishReason = resp.Candidates[0].FinishReason
		}
		if resp.UsageMetadata != nil {
			frame.Usage = &adapters.TokenUsage{
				PromptTokens:     resp.UsageMetadata.PromptTokenCount,
				CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
				TotalTokens:      resp.UsageMetadata.TotalTokenCount,
			}
		}

		return frame, nil
	}
}

// readFrame reads one blank-line-delimited frame and returns its joined
// data payload. Returns io.EOF once the transport is drained.
func (s *streamReader) readFrame() (string, error) {
	var dataLines []string
	sawField := false

	for s.scanner.Scan() {
		line := s.scanner.Text()

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
