package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "callisto.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfigFile(t, `
default_provider: anthropic
providers:
  anthropic:
    api_key: sk-ant-test
    default_model: claude-2.1
    max_retries: 5
    timeout: 45s
  openai:
    api_key: sk-test
    organization: org-123
logging:
  level: debug
  format: json
metrics:
  enabled: true
usage:
  backend: sqlite
  sqlite_path: /tmp/usage.db
  retention_days: 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DefaultProvider != "anthropic" {
		t.Errorf("expected default provider anthropic, got %q", cfg.DefaultProvider)
	}

	anthropic := cfg.Providers["anthropic"]
	if anthropic.APIKey != "sk-ant-test" {
		t.Errorf("unexpected api key: %q", anthropic.APIKey)
	}
	if anthropic.DefaultModel != "claude-2.1" {
		t.Errorf("unexpected default model: %q", anthropic.DefaultModel)
	}
	if anthropic.MaxRetries != 5 {
		t.Errorf("unexpected max retries: %d", anthropic.MaxRetries)
	}
	if anthropic.Timeout != 45*time.Second {
		t.Errorf("unexpected timeout: %s", anthropic.Timeout)
	}

	if cfg.Providers["openai"].Organization != "org-123" {
		t.Errorf("unexpected organization: %q", cfg.Providers["openai"].Organization)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}

	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}

	if cfg.Usage.Backend != "sqlite" || cfg.Usage.RetentionDays != 30 {
		t.Errorf("unexpected usage config: %+v", cfg.Usage)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
providers:
  openai:
    api_key: sk-test
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DefaultProvider != DefaultProviderName {
		t.Errorf("expected default provider %q, got %q", DefaultProviderName, cfg.DefaultProvider)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("expected default log level, got %q", cfg.Logging.Level)
	}
	if cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("expected default metrics path, got %q", cfg.Metrics.Path)
	}
	if cfg.Usage.Backend != DefaultUsageBackend {
		t.Errorf("expected default usage backend, got %q", cfg.Usage.Backend)
	}
	if cfg.Providers["openai"].Timeout != 30*time.Second {
		t.Errorf("expected default provider timeout, got %s", cfg.Providers["openai"].Timeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/callisto.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "providers: [not: valid: yaml")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: loud
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown log level")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
default_provider: openai
providers:
  openai:
    api_key: from-file
logging:
  level: info
`)

	t.Setenv("CALLISTO_DEFAULT_PROVIDER", "gemini")
	t.Setenv("CALLISTO_LOGGING_LEVEL", "debug")
	t.Setenv("CALLISTO_PROVIDERS_OPENAI_API_KEY", "from-env")
	t.Setenv("CALLISTO_PROVIDERS_GEMINI_API_KEY", "gemini-key")
	t.Setenv("CALLISTO_PROVIDERS_OPENAI_TIMEOUT", "90s")

	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadWithEnvOverrides failed: %v", err)
	}

	if cfg.DefaultProvider != "gemini" {
		t.Errorf("expected env to win for default provider, got %q", cfg.DefaultProvider)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env to win for log level, got %q", cfg.Logging.Level)
	}
	if cfg.Providers["openai"].APIKey != "from-env" {
		t.Errorf("expected env to win for api key, got %q", cfg.Providers["openai"].APIKey)
	}
	if cfg.Providers["openai"].Timeout != 90*time.Second {
		t.Errorf("expected env timeout override, got %s", cfg.Providers["openai"].Timeout)
	}

	// A provider introduced purely through the environment.
	if cfg.Providers["gemini"].APIKey != "gemini-key" {
		t.Errorf("expected env-only provider, got %+v", cfg.Providers["gemini"])
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	if cfg.DefaultProvider != DefaultProviderName {
		t.Errorf("unexpected default provider: %q", cfg.DefaultProvider)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default configuration should validate: %v", err)
	}
}
