// Package tokens provides token count estimation for completion requests.
//
// Exact tokenization is vendor-specific and only the vendor's own tokenizer
// is billing-accurate. The estimators here are deliberately coarse: they are
// meant for usage accounting and context-budget sanity checks, and they are
// swappable so a caller with stronger requirements can plug in a real
// tokenizer behind the same interface.
package tokens

import "strings"

// Estimator estimates token counts for text.
// Implementations may use different algorithms (character-based, BPE, etc.).
type Estimator interface {
	// EstimateText estimates the number of tokens in text for the given
	// model. The model may be empty, in which case a default ratio is used.
	EstimateText(text string, model string) int
}

// Heuristic is a character-count based estimator. It divides the character
// length by a characters-per-token ratio and rounds up. With the default
// ratio of 4 this matches the common ceil(len/4) approximation.
type Heuristic struct {
	// CharsPerToken is the default characters-per-token ratio.
	CharsPerToken float64

	// Models maps model name prefixes to model-specific ratios.
	Models map[string]float64
}

// NewHeuristic returns a Heuristic estimator with the default 4.0
// characters-per-token ratio.
func NewHeuristic() *Heuristic {
	return &Heuristic{CharsPerToken: 4.0}
}

// EstimateText estimates tokens as ceil(len(text) / ratio).
// It is pure: no state is read or written beyond the receiver's ratios.
func (h *Heuristic) EstimateText(text string, model string) int {
	if text == "" {
		return 0
	}

	ratio := h.ratioFor(model)
	if ratio <= 0 {
		ratio = 4.0
	}

	// Integer fast path for whole ratios keeps the exact ceil semantics.
	if ratio == float64(int(ratio)) {
		r := int(ratio)
		return (len(text) + r - 1) / r
	}

	tokens := int(float64(len(text)) / ratio)
	if float64(tokens)*ratio < float64(len(text)) {
		tokens++
	}
	return tokens
}

// ratioFor returns the characters-per-token ratio for a model.
// It tries an exact match, then a prefix match (so "gpt-4" matches
// "gpt-4-0613"), then falls back to the default ratio.
func (h *Heuristic) ratioFor(model string) float64 {
	if model == "" || len(h.Models) == 0 {
		return h.CharsPerToken
	}

	if ratio, ok := h.Models[model]; ok {
		return ratio
	}

	for prefix, ratio := range h.Models {
		if strings.HasPrefix(model, prefix) {
			return ratio
		}
	}

	return h.CharsPerToken
}
