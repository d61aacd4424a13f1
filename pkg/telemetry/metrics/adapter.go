package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/callisto/pkg/adapters"
	"mercator-hq/callisto/pkg/config"
)

// AdapterMetrics tracks metrics for adapter calls and health.
//
// Metrics:
//   - callisto_adapter_requests_total: Total completion calls per provider/model
//   - callisto_adapter_errors_total: Errors by provider and error kind
//   - callisto_adapter_latency_seconds: Call latency per provider/model
//   - callisto_adapter_tokens_total: Token consumption by provider/model/type
//   - callisto_adapter_health: Adapter health status (1=healthy, 0=unhealthy)
type AdapterMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
	health   *prometheus.GaugeVec
}

// NewAdapterMetrics creates and registers adapter metrics with the provided
// registry.
func NewAdapterMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AdapterMetrics {
	am := &AdapterMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "adapter_requests_total",
				Help:      "Total number of completion calls per provider and model",
			},
			[]string{"provider", "model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "adapter_errors_total",
				Help:      "Total number of adapter errors by error kind",
			},
			[]string{"provider", "error_kind"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "adapter_latency_seconds",
				Help:      "Adapter call latency in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"provider", "model"},
		),

		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "adapter_tokens_total",
				Help:      "Total tokens consumed by provider, model, and token type",
			},
			[]string{"provider", "model", "type"},
		),

		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "adapter_health",
				Help:      "Adapter health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		am.requests,
		am.errors,
		am.latency,
		am.tokens,
		am.health,
	)

	return am
}

// ObserveRequest records the outcome of one completion call.
func (am *AdapterMetrics) ObserveRequest(provider, model string, duration time.Duration, err *adapters.Error) {
	am.requests.WithLabelValues(provider, model).Inc()
	am.latency.WithLabelValues(provider, model).Observe(duration.Seconds())

	if err != nil {
		am.errors.WithLabelValues(provider, string(err.Kind)).Inc()
	}
}

// ObserveTokens records token consumption of one completed call.
func (am *AdapterMetrics) ObserveTokens(provider, model string, usage adapters.TokenUsage) {
	am.tokens.WithLabelValues(provider, model, "prompt").Add(float64(usage.PromptTokens))
	am.tokens.WithLabelValues(provider, model, "completion").Add(float64(usage.CompletionTokens))
}

// UpdateHealth updates the health status gauge for a provider.
func (am *AdapterMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	am.health.WithLabelValues(provider).Set(value)
}
