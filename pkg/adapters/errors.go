package adapters

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Kind is the normalized error category. Every network-bound adapter
// operation fails with an *Error carrying one of these kinds, never an
// unwrapped transport error.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindRateLimit      Kind = "rate_limit"
	KindContextLength  Kind = "context_length"
	KindContentFilter  Kind = "content_filter"
	KindInvalidRequest Kind = "invalid_request"
	KindServerError    Kind = "server_error"
	KindTimeout        Kind = "timeout"
	KindUnknown        Kind = "unknown"
)

// Error is the normalized error shape shared by all adapters.
type Error struct {
	// Kind is the normalized category.
	Kind Kind

	// Provider is the adapter that produced the error.
	Provider string

	// StatusCode is the HTTP status code, 0 when not applicable.
	StatusCode int

	// Retryable reports whether retrying the call could succeed.
	Retryable bool

	// Message is the human-readable description.
	Message string

	// Cause is the original underlying error, when one exists.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q %s error (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q %s error: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Classify normalizes a vendor or transport failure into an *Error.
// The first matching rule wins:
//
//  1. status 401/403, or message mentioning auth  -> authentication
//  2. status 429, or message mentioning rate/limit -> rate_limit
//  3. message mentioning context/token/length      -> context_length
//  4. message mentioning content/policy/filter     -> content_filter
//  5. status 400/404                               -> invalid_request
//  6. status >= 500                                -> server_error
//  7. message mentioning timeout, or a transport
//     timeout condition                            -> timeout
//  8. anything else                                -> unknown
//
// If cause is already an *Error it is returned unchanged, so classification
// is idempotent across layers.
func Classify(provider string, statusCode int, cause error) *Error {
	var classified *Error
	if errors.As(cause, &classified) {
		return classified
	}

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	lower := strings.ToLower(msg)

	e := &Error{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    msg,
		Cause:      cause,
	}

	switch {
	case statusCode == 401 || statusCode == 403 || strings.Contains(lower, "auth"):
		e.Kind = KindAuthentication

	case statusCode == 429 || strings.Contains(lower, "rate") || strings.Contains(lower, "limit"):
		e.Kind = KindRateLimit
		e.Retryable = true

	case strings.Contains(lower, "context") || strings.Contains(lower, "token") || strings.Contains(lower, "length"):
		e.Kind = KindContextLength

	case strings.Contains(lower, "content") || strings.Contains(lower, "policy") || strings.Contains(lower, "filter"):
		e.Kind = KindContentFilter

	case statusCode == 400 || statusCode == 404:
		e.Kind = KindInvalidRequest

	case statusCode >= 500:
		e.Kind = KindServerError
		e.Retryable = true

	case strings.Contains(lower, "timeout") || isTimeout(cause):
		e.Kind = KindTimeout
		e.Retryable = true

	default:
		e.Kind = KindUnknown
	}

	return e
}

// ShouldRetry is the retry gate, an independent check applied before each
// further attempt: a call is retried iff the status was 429, a 5xx, or a
// transient network-transport condition was present.
func ShouldRetry(statusCode int, cause error) bool {
	if statusCode == 429 || statusCode >= 500 {
		return true
	}
	return isTransient(cause)
}

// isTimeout reports whether err carries a transport timeout condition.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isTransient reports whether err is a transient network condition:
// a timeout, a reset connection, or an aborted connection.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if isTimeout(err) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
