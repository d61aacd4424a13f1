package adapters

// Default values applied by Normalize when the caller leaves a parameter unset.
const (
	DefaultTemperature      = 0.7
	DefaultMaxTokens        = 1000
	DefaultTopP             = 1.0
	DefaultPresencePenalty  = 0.0
	DefaultFrequencyPenalty = 0.0
)

// Normalize fills in defaults for every unset parameter and resolves the
// model against defaultModel. The caller's Params value is never mutated.
//
// Normalization is idempotent: normalizing the Params view of an already
// normalized value set returns it unchanged.
func Normalize(p Params, defaultModel string) NormalizedParams {
	n := NormalizedParams{
		Temperature:      DefaultTemperature,
		MaxTokens:        DefaultMaxTokens,
		TopP:             DefaultTopP,
		StopSequences:    []string{},
		PresencePenalty:  DefaultPresencePenalty,
		FrequencyPenalty: DefaultFrequencyPenalty,
		Model:            defaultModel,
	}

	if p.Temperature != nil {
		n.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		n.MaxTokens = *p.MaxTokens
	}
	if p.TopP != nil {
		n.TopP = *p.TopP
	}
	if p.StopSequences != nil {
		// Copy, never alias caller-owned slices.
		n.StopSequences = make([]string, len(p.StopSequences))
		copy(n.StopSequences, p.StopSequences)
	}
	if p.PresencePenalty != nil {
		n.PresencePenalty = *p.PresencePenalty
	}
	if p.FrequencyPenalty != nil {
		n.FrequencyPenalty = *p.FrequencyPenalty
	}
	if p.Model != "" {
		n.Model = p.Model
	}

	return n
}

// AsParams converts normalized parameters back into the caller-facing
// Params shape with every field explicitly set.
func (n NormalizedParams) AsParams() Params {
	temperature := n.Temperature
	maxTokens := n.MaxTokens
	topP := n.TopP
	presence := n.PresencePenalty
	frequency := n.FrequencyPenalty

	stop := make([]string, len(n.StopSequences))
	copy(stop, n.StopSequences)

	return Params{
		Temperature:      &temperature,
		MaxTokens:        &maxTokens,
		TopP:             &topP,
		StopSequences:    stop,
		PresencePenalty:  &presence,
		FrequencyPenalty: &frequency,
		Model:            n.Model,
	}
}
