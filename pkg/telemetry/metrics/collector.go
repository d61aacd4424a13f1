package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/callisto/pkg/adapters"
	"mercator-hq/callisto/pkg/config"
)

// Collector owns the Prometheus registry and the adapter metric family.
// It implements adapters.Observer, so a collector can be passed directly
// to adapters.WithObserver.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	adapterMetrics *AdapterMetrics
}

// NewCollector creates a metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultNamespace
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = config.DefaultLatencyBuckets
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}
	c.adapterMetrics = NewAdapterMetrics(cfg, registry)

	return c
}

// ObserveRequest implements adapters.Observer.
func (c *Collector) ObserveRequest(provider, model string, duration time.Duration, err *adapters.Error) {
	c.adapterMetrics.ObserveRequest(provider, model, duration, err)
}

// ObserveTokens implements adapters.Observer.
func (c *Collector) ObserveTokens(provider, model string, usage adapters.TokenUsage) {
	c.adapterMetrics.ObserveTokens(provider, model, usage)
}

// UpdateHealth updates the health gauge for a provider.
func (c *Collector) UpdateHealth(provider string, healthy bool) {
	c.adapterMetrics.UpdateHealth(provider, healthy)
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
