package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"mercator-hq/callisto/pkg/tokens"
)

// Backoff parameters for the retry loop: exponential growth from 100ms with
// a 10s ceiling and ±10% jitter, bounded by the configured MaxRetries.
const (
	backoffBaseDelay     = 100 * time.Millisecond
	backoffMaxDelay      = 10 * time.Second
	backoffMultiplier    = 2.0
	backoffRandomization = 0.1
)

// Core is the shared engine embedded by every vendor adapter. It owns the
// pooled HTTP client, the retry loop, the usage log, the set-once model
// cache, and health bookkeeping. Vendor packages supply only request
// mapping and stream parsing on top of it.
type Core struct {
	provider  string
	config    Config
	client    *http.Client
	estimator tokens.Estimator
	observer  Observer
	sink      Sink
	usage     *UsageLog

	// healthMu protects health.
	healthMu sync.RWMutex
	health   Health

	// modelsMu protects the set-once model cache.
	modelsMu  sync.Mutex
	models    []string
	modelsSet bool

	// stopHealthCheck is closed to signal the background checker to stop.
	stopHealthCheck    chan struct{}
	healthCheckStopped chan struct{}
	checkerStarted     bool
	checkerMu          sync.Mutex
	closeOnce          sync.Once
}

// Option customizes a Core at construction time.
type Option func(*Core)

// WithEstimator replaces the default ceil(len/4) token estimator.
func WithEstimator(e tokens.Estimator) Option {
	return func(c *Core) {
		if e != nil {
			c.estimator = e
		}
	}
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Core) {
		c.observer = o
	}
}

// WithSink attaches a usage sink. The adapter still keeps its in-memory
// log; the sink additionally receives every record.
func WithSink(s Sink) Option {
	return func(c *Core) {
		c.sink = s
	}
}

// WithHTTPClient replaces the pooled HTTP client. Mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Core) {
		if client != nil {
			c.client = client
		}
	}
}

// NewCore validates config and builds the shared engine for an adapter.
// It fails synchronously, before any network access, when APIKey is empty.
func NewCore(provider string, config Config, opts ...Option) (*Core, error) {
	if config.APIKey == "" {
		return nil, &Error{
			Kind:     KindAuthentication,
			Provider: provider,
			Message:  "api key is required",
		}
	}

	// Apply defaults
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	c := &Core{
		provider: provider,
		config:   config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		estimator: tokens.NewHeuristic(),
		usage:     NewUsageLog(provider),
		health: Health{
			IsHealthy:             true, // Start optimistic
			LastCheck:             time.Now(),
			LastSuccessfulRequest: time.Now(),
		},
		stopHealthCheck:    make(chan struct{}),
		healthCheckStopped: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Provider returns the adapter's provider identifier.
func (c *Core) Provider() string {
	return c.provider
}

// Config returns the adapter's configuration.
func (c *Core) Config() Config {
	return c.config
}

// EstimateTokenCount approximates the token count of text using the
// configured estimator. Pure: no adapter state is touched.
func (c *Core) EstimateTokenCount(text string, model string) int {
	return c.estimator.EstimateText(text, model)
}

// UsageStatistics aggregates the instance's usage log.
func (c *Core) UsageStatistics() (UsageStatistics, bool) {
	return c.usage.Statistics()
}

// UsageRecords returns a copy of the instance's usage log.
func (c *Core) UsageRecords() []UsageRecord {
	return c.usage.Records()
}

// RecordUsage appends a usage record for a completed call and forwards it
// to the sink and observer when present. Sink failures are logged, never
// propagated into the call result.
func (c *Core) RecordUsage(ctx context.Context, model string, usage TokenUsage) {
	rec := c.usage.Append(model, usage)

	if c.sink != nil {
		if err := c.sink.Record(ctx, rec); err != nil {
			slog.Warn("usage sink record failed",
				"provider", c.provider,
				"record_id", rec.ID,
				"error", err,
			)
		}
	}

	if c.observer != nil {
		c.observer.ObserveTokens(c.provider, model, usage)
	}
}

// Observe notifies the observer, if any, of a finished call. Health
// counters are maintained by DoRequest; this only feeds metrics.
func (c *Core) Observe(model string, start time.Time, err error) {
	if c.observer == nil {
		return
	}

	var classified *Error
	if err != nil && !errors.As(err, &classified) {
		classified = Classify(c.provider, 0, err)
	}
	c.observer.ObserveRequest(c.provider, model, time.Since(start), classified)
}

// CachedModels returns the memoized model list, if one has been stored.
func (c *Core) CachedModels() ([]string, bool) {
	c.modelsMu.Lock()
	defer c.modelsMu.Unlock()

	if !c.modelsSet {
		return nil, false
	}
	out := make([]string, len(c.models))
	copy(out, c.models)
	return out, true
}

// StoreModels memoizes the model list. The cache is set-once and never
// invalidated for the adapter's lifetime; subsequent stores are ignored.
func (c *Core) StoreModels(models []string) {
	c.modelsMu.Lock()
	defer c.modelsMu.Unlock()

	if c.modelsSet {
		return
	}
	c.models = make([]string, len(models))
	copy(c.models, models)
	c.modelsSet = true
}

// IsHealthy returns the current health status.
func (c *Core) IsHealthy() bool {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health.IsHealthy
}

// Health returns detailed health information.
func (c *Core) Health() Health {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health
}

// updateHealth updates the health status after a request or health check.
func (c *Core) updateHealth(success bool, err error) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.LastCheck = time.Now()

	if success {
		c.health.IsHealthy = true
		c.health.ConsecutiveFailures = 0
		c.health.LastError = nil
		c.health.LastSuccessfulRequest = time.Now()
		return
	}

	c.health.ConsecutiveFailures++
	c.health.LastError = err

	// Mark unhealthy after 3 consecutive failures (circuit breaker)
	if c.health.ConsecutiveFailures >= 3 {
		c.health.IsHealthy = false
		slog.Warn("adapter marked unhealthy",
			"provider", c.provider,
			"consecutive_failures", c.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// recordRequest updates request counters.
func (c *Core) recordRequest(success bool) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.TotalRequests++
	if !success {
		c.health.FailedRequests++
	}
}

// newBackOff builds the retry schedule: exponential with jitter,
// min(10s, 100ms * 2^attempt) ±10%.
func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = backoffBaseDelay
	b.MaxInterval = backoffMaxDelay
	b.Multiplier = backoffMultiplier
	b.RandomizationFactor = backoffRandomization
	return b
}

// DoRequest performs an HTTP request with retry and error normalization.
//
// Transient failures (HTTP 429, 5xx, network resets, timeouts) are retried
// with exponential backoff until MaxRetries attempts have been added; any
// other failure surfaces immediately. The returned error is always *Error.
// On success the caller owns resp.Body.
func (c *Core) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	attempt := 0

	operation := func() (*http.Response, error) {
		attempt++
		if attempt > 1 {
			slog.Debug("retrying request",
				"provider", c.provider,
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
			)
		}

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, backoff.Permanent(Classify(c.provider, 0, err))
		}

		for key, value := range headers {
			req.Header.Set(key, value)
		}
		if req.Header.Get("Content-Type") == "" && body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			classified := Classify(c.provider, 0, err)
			if ShouldRetry(0, err) {
				slog.Warn("request failed, will retry",
					"provider", c.provider,
					"attempt", attempt,
					"error", err,
				)
				return nil, classified
			}
			return nil, backoff.Permanent(classified)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		// Error status: drain the body into the classified message.
		errorBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		classified := Classify(c.provider, resp.StatusCode, errors.New(string(errorBody)))

		if ShouldRetry(resp.StatusCode, nil) {
			slog.Warn("request returned error status, will retry",
				"provider", c.provider,
				"status", resp.StatusCode,
				"attempt", attempt,
			)
			return nil, classified
		}
		return nil, backoff.Permanent(classified)
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(newBackOff()),
		backoff.WithMaxTries(uint(c.config.MaxRetries)+1),
	)
	if err != nil {
		var classified *Error
		if !errors.As(err, &classified) {
			classified = Classify(c.provider, 0, err)
		}
		c.recordRequest(false)
		c.updateHealth(false, classified)
		return nil, classified
	}

	c.recordRequest(true)
	c.updateHealth(true, nil)
	return resp, nil
}

// DoJSONRequest performs a JSON request and decodes the response body.
func (c *Core) DoJSONRequest(ctx context.Context, method, url string, reqBody []byte, respBody interface{}, headers map[string]string) error {
	resp, err := c.DoRequest(ctx, method, url, reqBody, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Classify(c.provider, 0, err)
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &Error{
				Kind:     KindUnknown,
				Provider: c.provider,
				Message:  "failed to decode response",
				Cause:    err,
			}
		}
	}

	return nil
}

// Close releases transport resources and stops the background health
// checker if one is running.
func (c *Core) Close() error {
	c.closeOnce.Do(func() {
		c.checkerMu.Lock()
		started := c.checkerStarted
		c.checkerMu.Unlock()

		close(c.stopHealthCheck)

		if started {
			select {
			case <-c.healthCheckStopped:
				slog.Debug("health checker stopped", "provider", c.provider)
			case <-time.After(5 * time.Second):
				slog.Warn("health checker did not stop in time", "provider", c.provider)
			}
		}

		c.client.CloseIdleConnections()
		slog.Info("adapter closed", "provider", c.provider)
	})
	return nil
}
