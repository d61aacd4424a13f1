// Package config defines the application configuration model and its
// loading pipeline: YAML file, defaults, environment overrides, validation,
// and an optional file watcher for live reload.
package config

import (
	"time"

	"mercator-hq/callisto/pkg/adapters"
)

// Config is the root configuration.
type Config struct {
	// DefaultProvider is the provider used when a command names none.
	DefaultProvider string `yaml:"default_provider"`

	// Providers maps provider names to their adapter configuration.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Usage configures usage record persistence and retention.
	Usage UsageConfig `yaml:"usage"`
}

// ProviderConfig holds one provider's adapter settings.
type ProviderConfig struct {
	// APIKey authenticates against the vendor. Required for the provider
	// to be usable.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the vendor's default endpoint.
	BaseURL string `yaml:"base_url"`

	// DefaultModel overrides the adapter's built-in default model.
	DefaultModel string `yaml:"default_model"`

	// MaxRetries bounds retry attempts for transient failures.
	MaxRetries int `yaml:"max_retries"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout"`

	// Organization is sent on requests for vendors that scope keys to an
	// organization.
	Organization string `yaml:"organization"`

	// Connection pool settings.
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// AdapterConfig converts the provider section into the adapter package's
// configuration shape.
func (p ProviderConfig) AdapterConfig() adapters.Config {
	return adapters.Config{
		APIKey:              p.APIKey,
		BaseURL:             p.BaseURL,
		DefaultModel:        p.DefaultModel,
		MaxRetries:          p.MaxRetries,
		Timeout:             p.Timeout,
		Organization:        p.Organization,
		MaxIdleConns:        p.MaxIdleConns,
		MaxIdleConnsPerHost: p.MaxIdleConnsPerHost,
		IdleConnTimeout:     p.IdleConnTimeout,
	}
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`

	// Output is "stdout" or "stderr".
	Output string `yaml:"output"`

	// RedactKeys enables masking of API keys in log output.
	RedactKeys bool `yaml:"redact_keys"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics endpoint on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the host:port the metrics server binds to.
	ListenAddress string `yaml:"listen_address"`

	// Path is the scrape path, typically /metrics.
	Path string `yaml:"path"`

	// Namespace and Subsystem prefix every metric name.
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`

	// LatencyBuckets are the histogram buckets for request latency, in
	// seconds.
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// UsageConfig configures usage record persistence.
type UsageConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays bounds how long persisted records are kept. Zero
	// disables pruning.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for the retention job.
	PruneSchedule string `yaml:"prune_schedule"`
}
