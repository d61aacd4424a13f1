package config

import "time"

// Default values for omitted configuration fields.
const (
	DefaultProviderName  = "openai"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultLogOutput     = "stderr"
	DefaultMetricsListen = ":9090"
	DefaultMetricsPath   = "/metrics"
	DefaultNamespace     = "callisto"
	DefaultUsageBackend  = "memory"
	DefaultSQLitePath    = "callisto-usage.db"
	DefaultPruneSchedule = "0 3 * * *" // daily at 03:00
)

// DefaultLatencyBuckets cover the practical range of completion calls:
// sub-second for cached or trivial prompts through minutes of streaming.
var DefaultLatencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// ApplyDefaults fills in defaults for every omitted field. Provider
// sections are left alone; the adapter layer applies its own per-provider
// defaults (base URL, model, retries, timeouts).
func ApplyDefaults(cfg *Config) {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = DefaultProviderName
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = DefaultLogOutput
	}

	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultMetricsListen
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultNamespace
	}
	if len(cfg.Metrics.LatencyBuckets) == 0 {
		cfg.Metrics.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}

	if cfg.Usage.Backend == "" {
		cfg.Usage.Backend = DefaultUsageBackend
	}
	if cfg.Usage.SQLitePath == "" {
		cfg.Usage.SQLitePath = DefaultSQLitePath
	}
	if cfg.Usage.PruneSchedule == "" {
		cfg.Usage.PruneSchedule = DefaultPruneSchedule
	}

	for name, p := range cfg.Providers {
		if p.Timeout == 0 {
			p.Timeout = 30 * time.Second
			cfg.Providers[name] = p
		}
	}
}
