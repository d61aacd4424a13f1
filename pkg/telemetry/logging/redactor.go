package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credential material in log attributes. It redacts values
// under sensitive keys entirely and scrubs credential-shaped substrings
// (vendor API keys, bearer tokens, key query parameters) from any string
// value.
type Redactor struct {
	sensitiveKeys map[string]struct{}
	patterns      []redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	r := &Redactor{
		sensitiveKeys: map[string]struct{}{
			"api_key":       {},
			"apikey":        {},
			"authorization": {},
			"x-api-key":     {},
			"token":         {},
			"secret":        {},
			"password":      {},
		},
	}

	r.patterns = []redactPattern{
		// Vendor API keys (sk- prefixed)
		{regexp.MustCompile(`sk-[a-zA-Z0-9\-_]+`), "sk-***"},
		// Bearer tokens
		{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer ***"},
		// Key query parameters (the Gemini transport carries the key in the URL)
		{regexp.MustCompile(`([?&]key=)[^&\s]+`), "${1}***"},
	}

	return r
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr function that applies
// redaction to every attribute.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if r.isSensitiveKey(a.Key) {
		return slog.String(a.Key, "[REDACTED]")
	}

	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	}

	return a
}

// RedactString scrubs credential-shaped substrings from a string.
func (r *Redactor) RedactString(value string) string {
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

func (r *Redactor) isSensitiveKey(key string) bool {
	_, ok := r.sensitiveKeys[strings.ToLower(key)]
	return ok
}

// RedactAPIKey masks an API key for display, keeping a short prefix so
// keys remain distinguishable in output.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "****"
	}
	return apiKey[:4] + "****"
}
