package anthropic

import (
	"testing"

	"mercator-hq/callisto/pkg/adapters"
)

func TestFormatPrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{
			name:   "bare prompt is wrapped",
			prompt: "Hello",
			want:   "\n\nHuman: Hello\n\nAssistant:",
		},
		{
			name:   "empty prompt still gets the template",
			prompt: "",
			want:   "\n\nHuman: \n\nAssistant:",
		},
		{
			name:   "already formatted prompt passes through",
			prompt: "\n\nHuman: Hello\n\nAssistant:",
			want:   "\n\nHuman: Hello\n\nAssistant:",
		},
		{
			name:   "multi-turn prompt ending in the marker passes through",
			prompt: "\n\nHuman: Hi\n\nAssistant: Hello!\n\nHuman: Bye\n\nAssistant:",
			want:   "\n\nHuman: Hi\n\nAssistant: Hello!\n\nHuman: Bye\n\nAssistant:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPrompt(tt.prompt)
			if got != tt.want {
				t.Errorf("FormatPrompt(%q) = %q, expected %q", tt.prompt, got, tt.want)
			}

			// Idempotence: formatting twice changes nothing.
			if FormatPrompt(got) != got {
				t.Errorf("FormatPrompt not idempotent for %q", tt.prompt)
			}
		})
	}
}

func TestBuildRequest(t *testing.T) {
	maxTokens := 256
	p := adapters.Normalize(adapters.Params{MaxTokens: &maxTokens}, DefaultModel)

	req := buildRequest("Hello", p, false)

	if req.Model != DefaultModel {
		t.Errorf("expected model %q, got %q", DefaultModel, req.Model)
	}
	if req.Prompt != "\n\nHuman: Hello\n\nAssistant:" {
		t.Errorf("unexpected prompt: %q", req.Prompt)
	}
	if req.MaxTokensToSample != 256 {
		t.Errorf("expected max_tokens_to_sample 256, got %d", req.MaxTokensToSample)
	}
	if req.Stream {
		t.Error("expected stream=false")
	}
}
