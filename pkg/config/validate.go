package config

import (
	"fmt"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

var validUsageBackends = map[string]bool{
	"memory": true,
	"sqlite": true,
}

// Validate checks the configuration for errors that would otherwise surface
// later as confusing runtime failures. It is called after defaults and
// again after environment overrides.
func Validate(cfg *Config) error {
	var errs []string

	if !validLogLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level: unknown level %q (debug, info, warn, error)", cfg.Logging.Level))
	}
	if !validLogFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format: unknown format %q (json, text)", cfg.Logging.Format))
	}
	if cfg.Logging.Output != "stdout" && cfg.Logging.Output != "stderr" {
		errs = append(errs, fmt.Sprintf("logging.output: unknown output %q (stdout, stderr)", cfg.Logging.Output))
	}

	if !validUsageBackends[cfg.Usage.Backend] {
		errs = append(errs, fmt.Sprintf("usage.backend: unknown backend %q (memory, sqlite)", cfg.Usage.Backend))
	}
	if cfg.Usage.Backend == "sqlite" && cfg.Usage.SQLitePath == "" {
		errs = append(errs, "usage.sqlite_path: required for the sqlite backend")
	}
	if cfg.Usage.RetentionDays < 0 {
		errs = append(errs, fmt.Sprintf("usage.retention_days: must not be negative, got %d", cfg.Usage.RetentionDays))
	}

	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress == "" {
		errs = append(errs, "metrics.listen_address: required when metrics are enabled")
	}
	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, fmt.Sprintf("metrics.path: must start with /, got %q", cfg.Metrics.Path))
	}

	for name, p := range cfg.Providers {
		if p.BaseURL != "" {
			if _, err := url.ParseRequestURI(p.BaseURL); err != nil {
				errs = append(errs, fmt.Sprintf("providers.%s.base_url: invalid URL %q", name, p.BaseURL))
			}
		}
		if p.MaxRetries < 0 {
			errs = append(errs, fmt.Sprintf("providers.%s.max_retries: must not be negative", name))
		}
		if p.Timeout < 0 {
			errs = append(errs, fmt.Sprintf("providers.%s.timeout: must not be negative", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
