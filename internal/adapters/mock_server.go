// Package adapters holds shared test infrastructure for the vendor adapter
// packages: a configurable mock vendor server and assertion helpers.
package adapters

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockServer simulates a vendor API for adapter tests. Responses are
// registered per path; a path may carry a sequence of responses so retry
// behavior can be exercised (fail, fail, succeed).
type MockServer struct {
	server       *httptest.Server
	responses    map[string][]MockResponse
	served       map[string]int
	requestCount int
	mu           sync.Mutex
}

// MockResponse configures one canned response.
type MockResponse struct {
	StatusCode   int
	Body         interface{}
	Delay        time.Duration
	Headers      map[string]string
	StreamChunks []string
	// OmitDone suppresses the trailing [DONE] sentinel on streamed
	// responses. Vendors that end streams with a finish-reason frame
	// rather than a sentinel need this.
	OmitDone bool
}

// NewMockServer starts a mock vendor server. Callers must Close it.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string][]MockResponse),
		served:    make(map[string]int),
	}

	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))

	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts the mock server down.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse registers a single response for path. Every request to the
// path receives it.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.SetResponseSequence(path, response)
}

// SetResponseSequence registers a sequence of responses for path. Requests
// consume the sequence in order; the last entry repeats once the sequence
// is exhausted.
func (ms *MockServer) SetResponseSequence(path string, responses ...MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.responses[path] = responses
	ms.served[path] = 0
}

// RequestCount returns the number of requests received across all paths.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.requestCount
}

// ResetRequestCount resets the request counter and sequence positions.
func (ms *MockServer) ResetRequestCount() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.requestCount = 0
	for path := range ms.served {
		ms.served[path] = 0
	}
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	ms.requestCount++

	sequence, ok := ms.responses[r.URL.Path]
	if !ok || len(sequence) == 0 {
		ms.mu.Unlock()
		http.NotFound(w, r)
		return
	}

	idx := ms.served[r.URL.Path]
	if idx >= len(sequence) {
		idx = len(sequence) - 1
	}
	ms.served[r.URL.Path]++
	response := sequence[idx]
	ms.mu.Unlock()

	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.StreamChunks) > 0 {
		ms.handleStream(w, response)
		return
	}

	w.WriteHeader(response.StatusCode)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

func (ms *MockServer) handleStream(w http.ResponseWriter, response MockResponse) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	for _, chunk := range response.StreamChunks {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
		time.Sleep(5 * time.Millisecond)
	}

	if !response.OmitDone {
		fmt.Fprintf(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

// MockChatResponse builds an OpenAI-style chat completion body.
func MockChatResponse(content, model string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

// MockChatStreamChunk builds one OpenAI-style streaming chunk payload.
func MockChatStreamChunk(delta, finishReason string) string {
	chunk := map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   "gpt-3.5-turbo",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"delta": map[string]interface{}{
					"content": delta,
				},
				"finish_reason": finishReason,
			},
		},
	}

	bytes, _ := json.Marshal(chunk)
	return string(bytes)
}

// MockCompleteResponse builds an Anthropic-style text completion body.
func MockCompleteResponse(completion, model string) map[string]interface{} {
	return map[string]interface{}{
		"completion":  completion,
		"stop_reason": "stop_sequence",
		"model":       model,
	}
}

// MockCompletionEvent builds one Anthropic-style completion stream payload.
func MockCompletionEvent(delta, stopReason string) string {
	event := map[string]interface{}{
		"type":       "completion",
		"completion": delta,
	}
	if stopReason != "" {
		event["stop_reason"] = stopReason
	}

	bytes, _ := json.Marshal(event)
	return string(bytes)
}

// MockGenerateResponse builds a Gemini-style generate-content body.
func MockGenerateResponse(text, finishReason string) map[string]interface{} {
	body := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": text},
					},
					"role": "model",
				},
				"index": 0,
			},
		},
	}
	if finishReason != "" {
		body["candidates"].([]map[string]interface{})[0]["finishReason"] = finishReason
		body["usageMetadata"] = map[string]interface{}{
			"promptTokenCount":     10,
			"candidatesTokenCount": 20,
			"totalTokenCount":      30,
		}
	}
	return body
}

// MockGenerateChunk builds one Gemini-style streaming frame payload.
func MockGenerateChunk(text, finishReason string) string {
	bytes, _ := json.Marshal(MockGenerateResponse(text, finishReason))
	return string(bytes)
}

// MockErrorResponse builds a vendor error body with the given status.
func MockErrorResponse(statusCode int, message string) MockResponse {
	body := map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    "invalid_request_error",
			"code":    statusCode,
		},
	}

	return MockResponse{
		StatusCode: statusCode,
		Body:       body,
	}
}

// MockAuthError builds a 401 response.
func MockAuthError() MockResponse {
	return MockErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// MockRateLimitError builds a 429 response with a Retry-After header.
func MockRateLimitError(retryAfter int) MockResponse {
	response := MockErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// MockServerError builds a 500 response.
func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// ExpectHeader checks that a request carries a header containing value.
func ExpectHeader(r *http.Request, key, value string) error {
	actual := r.Header.Get(key)
	if !strings.Contains(actual, value) {
		return fmt.Errorf("header %q mismatch: expected %q, got %q", key, value, actual)
	}
	return nil
}
