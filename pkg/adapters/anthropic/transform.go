package anthropic

import (
	"strings"

	"mercator-hq/callisto/pkg/adapters"
)

// Turn markers for the legacy text-completion prompt template.
const (
	humanPrefix     = "\n\nHuman: "
	assistantMarker = "\n\nAssistant:"
)

// Legacy /v1/complete wire types.

type completeRequest struct {
	Model             string   `json:"model"`
	Prompt            string   `json:"prompt"`
	MaxTokensToSample int      `json:"max_tokens_to_sample"`
	Temperature       float64  `json:"temperature"`
	TopP              float64  `json:"top_p"`
	StopSequences     []string `json:"stop_sequences,omitempty"`
	Stream            bool     `json:"stream,omitempty"`
}

type completeResponse struct {
	Completion string `json:"completion"`
	StopReason string `json:"stop_reason"`
	Model      string `json:"model"`
}

// streamEvent is one blank-line-delimited frame of the completion stream.
// With API version 2023-06-01 the completion field carries an incremental
// delta, not a cumulative running total.
type streamEvent struct {
	Type       string `json:"type,omitempty"`
	Completion string `json:"completion"`
	StopReason string `json:"stop_reason,omitempty"`
}

// FormatPrompt wraps prompt into the Human/Assistant turn template the
// legacy completion endpoint requires. Idempotent: a prompt that already
// ends with the assistant marker is returned unchanged.
func FormatPrompt(prompt string) string {
	if strings.HasSuffix(prompt, assistantMarker) {
		return prompt
	}
	return humanPrefix + prompt + assistantMarker
}

// buildRequest maps normalized parameters onto the legacy completion schema.
func buildRequest(prompt string, p adapters.NormalizedParams, stream bool) *completeRequest {
	return &completeRequest{
		Model:             p.Model,
		Prompt:            FormatPrompt(prompt),
		MaxTokensToSample: p.MaxTokens,
		Temperature:       p.Temperature,
		TopP:              p.TopP,
		StopSequences:     p.StopSequences,
		Stream:            stream,
	}
}
