package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/adapters"
)

// TestConfig returns an adapter configuration pointed at baseURL with short
// timeouts suited to tests.
func TestConfig(baseURL string) adapters.Config {
	return adapters.Config{
		APIKey:              "test-key",
		BaseURL:             baseURL,
		Timeout:             5 * time.Second,
		MaxRetries:          2,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// Float64 returns a pointer to v, for building Params literals.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for building Params literals.
func Int(v int) *int { return &v }

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertErrorKind fails the test unless err is an *adapters.Error of the
// given kind.
func AssertErrorKind(t *testing.T, err error, kind adapters.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var classified *adapters.Error
	if !errors.As(err, &classified) {
		t.Fatalf("expected *adapters.Error, got %T: %v", err, err)
	}
	if classified.Kind != kind {
		t.Fatalf("expected error kind %q, got %q: %v", kind, classified.Kind, err)
	}
}

// AssertEqual fails the test if got != expected.
func AssertEqual(t *testing.T, got, expected interface{}) {
	t.Helper()
	if got != expected {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}

// AssertTrue fails the test if condition is false.
func AssertTrue(t *testing.T, condition bool, message string) {
	t.Helper()
	if !condition {
		t.Fatalf("assertion failed: %s", message)
	}
}

// AssertFalse fails the test if condition is true.
func AssertFalse(t *testing.T, condition bool, message string) {
	t.Helper()
	if condition {
		t.Fatalf("assertion failed: %s", message)
	}
}

// WithTimeout runs fn under a context with the given timeout and fails the
// test if fn does not return in time.
func WithTimeout(t *testing.T, timeout time.Duration, fn func(ctx context.Context)) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		fn(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatalf("test timeout after %s", timeout)
	}
}

// DrainStream collects every chunk from a stream channel, returning the
// non-terminal chunks and the terminal chunk separately.
func DrainStream(t *testing.T, chunks <-chan *adapters.StreamChunk) ([]*adapters.StreamChunk, *adapters.StreamChunk) {
	t.Helper()

	var deltas []*adapters.StreamChunk
	var terminal *adapters.StreamChunk

	for chunk := range chunks {
		if chunk.Done {
			if terminal != nil {
				t.Fatal("stream produced more than one terminal chunk")
			}
			terminal = chunk
			continue
		}
		deltas = append(deltas, chunk)
	}

	return deltas, terminal
}

// ConcatDeltas reassembles the full text from non-terminal chunks.
func ConcatDeltas(chunks []*adapters.StreamChunk) string {
	var result string
	for _, chunk := range chunks {
		result += chunk.Delta
	}
	return result
}

// WaitForCondition polls condition until it is true or the timeout expires.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return
		}

		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s: %s", timeout, message)
		}

		<-ticker.C
	}
}
