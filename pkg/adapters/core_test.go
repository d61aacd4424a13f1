package adapters

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func testCoreConfig(baseURL string) Config {
	return Config{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	}
}

func TestNewCore_RequiresAPIKey(t *testing.T) {
	_, err := NewCore("openai", Config{})
	if err == nil {
		t.Fatal("expected error for empty API key")
	}

	var classified *Error
	if !errors.As(err, &classified) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if classified.Kind != KindAuthentication {
		t.Errorf("expected authentication kind, got %q", classified.Kind)
	}
}

func TestNewCore_Defaults(t *testing.T) {
	c, err := NewCore("openai", Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	if c.Config().MaxRetries != 3 {
		t.Errorf("expected default MaxRetries 3, got %d", c.Config().MaxRetries)
	}
	if c.Config().Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %s", c.Config().Timeout)
	}
	if !c.IsHealthy() {
		t.Error("expected new core to start healthy")
	}
}

func TestDoRequest_Success(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c, err := NewCore("openai", testCoreConfig(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	resp, err := c.DoRequest(context.Background(), "GET", server.URL, nil, nil)
	if err != nil {
		t.Fatalf("DoRequest failed: %v", err)
	}
	resp.Body.Close()

	if requests != 1 {
		t.Errorf("expected 1 request, got %d", requests)
	}
}

func TestDoRequest_RetriesServerErrors(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := NewCore("openai", testCoreConfig(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	resp, err := c.DoRequest(context.Background(), "GET", server.URL, nil, nil)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	resp.Body.Close()

	// Two failures plus the success, within MaxRetries=2 extra attempts.
	if requests != 3 {
		t.Errorf("expected 3 requests, got %d", requests)
	}
}

func TestDoRequest_ExhaustsRetries(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, err := NewCore("openai", testCoreConfig(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	_, err = c.DoRequest(context.Background(), "GET", server.URL, nil, nil)
	if err == nil {
		t.Fatal("expected error after retry exhaustion")
	}

	var classified *Error
	if !errors.As(err, &classified) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if classified.Kind != KindServerError {
		t.Errorf("expected server_error, got %q", classified.Kind)
	}
	if !classified.Retryable {
		t.Error("expected server error to be marked retryable")
	}

	// MaxRetries=2 means 1 initial + 2 retries.
	if requests != 3 {
		t.Errorf("expected 3 requests, got %d", requests)
	}
}

func TestDoRequest_DoesNotRetryAuthErrors(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	c, err := NewCore("openai", testCoreConfig(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	_, err = c.DoRequest(context.Background(), "GET", server.URL, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}

	var classified *Error
	if !errors.As(err, &classified) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if classified.Kind != KindAuthentication {
		t.Errorf("expected authentication, got %q", classified.Kind)
	}
	if classified.StatusCode != 401 {
		t.Errorf("expected status 401, got %d", classified.StatusCode)
	}

	if requests != 1 {
		t.Errorf("expected exactly 1 request, got %d", requests)
	}
}

func TestDoRequest_RetriesRateLimits(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := NewCore("openai", testCoreConfig(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	resp, err := c.DoRequest(context.Background(), "GET", server.URL, nil, nil)
	if err != nil {
		t.Fatalf("expected success after rate limit retry, got %v", err)
	}
	resp.Body.Close()

	if requests != 2 {
		t.Errorf("expected 2 requests, got %d", requests)
	}
}

func TestDoJSONRequest_DecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"gpt-4"}`))
	}))
	defer server.Close()

	c, err := NewCore("openai", testCoreConfig(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	var out struct {
		Name string `json:"name"`
	}
	if err := c.DoJSONRequest(context.Background(), "GET", server.URL, nil, &out, nil); err != nil {
		t.Fatalf("DoJSONRequest failed: %v", err)
	}

	if out.Name != "gpt-4" {
		t.Errorf("expected gpt-4, got %q", out.Name)
	}
}

func TestModelCache_SetOnce(t *testing.T) {
	c, err := NewCore("openai", Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	if _, ok := c.CachedModels(); ok {
		t.Error("expected empty cache")
	}

	c.StoreModels([]string{"a", "b"})
	cached, ok := c.CachedModels()
	if !ok || len(cached) != 2 {
		t.Fatalf("expected 2 cached models, got %v (ok=%v)", cached, ok)
	}

	// A second store is ignored for the adapter's lifetime.
	c.StoreModels([]string{"c"})
	cached, _ = c.CachedModels()
	if len(cached) != 2 || cached[0] != "a" {
		t.Errorf("cache was overwritten: %v", cached)
	}

	// The returned slice is a copy.
	cached[0] = "tampered"
	cached, _ = c.CachedModels()
	if cached[0] != "a" {
		t.Error("CachedModels exposed internal state")
	}
}

func TestHealth_CircuitBreaker(t *testing.T) {
	c, err := NewCore("openai", Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	failure := errors.New("down")

	c.updateHealth(false, failure)
	c.updateHealth(false, failure)
	if !c.IsHealthy() {
		t.Error("expected healthy after 2 failures")
	}

	c.updateHealth(false, failure)
	if c.IsHealthy() {
		t.Error("expected unhealthy after 3 consecutive failures")
	}

	health := c.Health()
	if health.ConsecutiveFailures != 3 {
		t.Errorf("expected 3 consecutive failures, got %d", health.ConsecutiveFailures)
	}

	// One success resets the breaker.
	c.updateHealth(true, nil)
	if !c.IsHealthy() {
		t.Error("expected healthy after success")
	}
	if c.Health().ConsecutiveFailures != 0 {
		t.Error("expected failure counter reset")
	}
}

type captureSink struct {
	mu      sync.Mutex
	records []UsageRecord
	err     error
}

func (s *captureSink) Record(ctx context.Context, rec UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return s.err
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestRecordUsage_ForwardsToSink(t *testing.T) {
	sink := &captureSink{}
	c, err := NewCore("openai", Config{APIKey: "k"}, WithSink(sink))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	c.RecordUsage(context.Background(), "gpt-4", TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})

	if sink.count() != 1 {
		t.Fatalf("expected 1 sink record, got %d", sink.count())
	}
	if sink.records[0].Model != "gpt-4" {
		t.Errorf("expected model gpt-4, got %q", sink.records[0].Model)
	}

	// The in-memory log is kept regardless of the sink.
	if len(c.UsageRecords()) != 1 {
		t.Errorf("expected 1 log record, got %d", len(c.UsageRecords()))
	}
}

func TestRecordUsage_SinkErrorDoesNotPropagate(t *testing.T) {
	sink := &captureSink{err: errors.New("disk full")}
	c, err := NewCore("openai", Config{APIKey: "k"}, WithSink(sink))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	// Must not panic or surface the sink failure.
	c.RecordUsage(context.Background(), "gpt-4", TokenUsage{TotalTokens: 3})

	if len(c.UsageRecords()) != 1 {
		t.Error("expected the record in the in-memory log despite sink failure")
	}
}

type captureObserver struct {
	mu       sync.Mutex
	requests int
	errors   int
	tokens   int
}

func (o *captureObserver) ObserveRequest(provider, model string, duration time.Duration, err *Error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests++
	if err != nil {
		o.errors++
	}
}

func (o *captureObserver) ObserveTokens(provider, model string, usage TokenUsage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tokens += usage.TotalTokens
}

func TestObserve_FeedsObserver(t *testing.T) {
	obs := &captureObserver{}
	c, err := NewCore("openai", Config{APIKey: "k"}, WithObserver(obs))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	start := time.Now()
	c.Observe("gpt-4", start, nil)
	c.Observe("gpt-4", start, errors.New("boom"))
	c.RecordUsage(context.Background(), "gpt-4", TokenUsage{TotalTokens: 7})

	if obs.requests != 2 {
		t.Errorf("expected 2 observed requests, got %d", obs.requests)
	}
	if obs.errors != 1 {
		t.Errorf("expected 1 observed error, got %d", obs.errors)
	}
	if obs.tokens != 7 {
		t.Errorf("expected 7 observed tokens, got %d", obs.tokens)
	}
}

func TestClose_Idempotent(t *testing.T) {
	c, err := NewCore("openai", Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}

func TestEstimateTokenCount_Default(t *testing.T) {
	c, err := NewCore("openai", Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	// ceil(len/4) with the default estimator.
	if got := c.EstimateTokenCount("abcdefgh", "gpt-4"); got != 2 {
		t.Errorf("expected 2 tokens for 8 chars, got %d", got)
	}
	if got := c.EstimateTokenCount("abcdefghi", "gpt-4"); got != 3 {
		t.Errorf("expected 3 tokens for 9 chars, got %d", got)
	}
	if got := c.EstimateTokenCount("", "gpt-4"); got != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", got)
	}
}
