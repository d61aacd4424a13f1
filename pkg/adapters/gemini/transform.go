package gemini

import (
	"strings"

	"mercator-hq/callisto/pkg/adapters"
)

// Generate-content wire types.

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature     float64  `json:"temperature"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
	TopP            float64  `json:"topP"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type generateResponse struct {
	Candidates    []candidate    `json:"candidates,omitempty"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
	Error         *apiError      `json:"error,omitempty"`
}

type candidate struct {
	Content      *content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
	Index        int      `json:"index,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type modelsResponse struct {
	Models []modelEntry `json:"models"`
}

type modelEntry struct {
	Name string `json:"name"`
}

// ResolveModel maps a requested model name onto a usable identifier.
// Names that already carry a resource path ("models/...") or a known
// gemini prefix pass through unchanged; anything else falls back to the
// fixed default.
func ResolveModel(name string) string {
	if name == "" {
		return DefaultModel
	}
	if strings.Contains(name, "/") {
		return name
	}
	if strings.HasPrefix(name, "gemini") {
		return name
	}
	return DefaultModel
}

// buildRequest maps normalized parameters onto the generate-content schema.
// The vendor has no presence/frequency penalty equivalents; those
// parameters are dropped rather than approximated.
func buildRequest(prompt string, p adapters.NormalizedParams) *generateRequest {
	return &generateRequest{
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: prompt}},
			},
		},
		GenerationConfig: &generationConfig{
			Temperature:     p.Temperature,
			MaxOutputTokens: p.MaxTokens,
			TopP:            p.TopP,
			StopSequences:   p.StopSequences,
		},
	}
}

// candidateText concatenates the text parts of the first candidate.
func candidateText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, pt := range resp.Candidates[0].Content.Parts {
		sb.WriteString(pt.Text)
	}
	return sb.String()
}
