package adapterfactory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"mercator-hq/callisto/pkg/adapters"
)

// ManagedConfig names a provider and carries its adapter configuration.
type ManagedConfig struct {
	Provider string
	Config   adapters.Config
}

// Manager owns a collection of adapter instances keyed by provider name.
// It handles adapter lifecycle: creation, health monitoring, shutdown.
//
// Manager is safe for concurrent use.
type Manager struct {
	adapters map[string]adapters.Adapter
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	opts     []adapters.Option
}

// NewManager creates an empty adapter manager. Options are applied to every
// adapter the manager creates, so a shared Observer or Sink can be injected
// once.
func NewManager(opts ...adapters.Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		adapters: make(map[string]adapters.Adapter),
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
	}
}

// Add creates an adapter for the provider and registers it. An existing
// adapter under the same name is closed and replaced.
func (m *Manager) Add(provider string, config adapters.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.adapters[provider]; ok {
		slog.Warn("replacing existing adapter", "provider", provider)
		existing.Close()
		delete(m.adapters, provider)
	}

	adapter, err := NewWithHealthCheck(m.ctx, provider, config, m.opts...)
	if err != nil {
		return fmt.Errorf("failed to add adapter %q: %w", provider, err)
	}

	m.adapters[adapter.Provider()] = adapter

	slog.Info("adapter added to manager",
		"provider", adapter.Provider(),
		"total_adapters", len(m.adapters),
	)

	return nil
}

// Remove closes the named adapter and drops it from the manager.
func (m *Manager) Remove(provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	adapter, ok := m.adapters[provider]
	if !ok {
		return fmt.Errorf("adapter %q not found", provider)
	}

	if err := adapter.Close(); err != nil {
		slog.Error("error closing adapter", "provider", provider, "error", err)
	}

	delete(m.adapters, provider)

	slog.Info("adapter removed from manager",
		"provider", provider,
		"remaining_adapters", len(m.adapters),
	)

	return nil
}

// Get returns the adapter registered under the provider name.
func (m *Manager) Get(provider string) (adapters.Adapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	adapter, ok := m.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("adapter %q not found", provider)
	}

	return adapter, nil
}

// All returns a copy of the provider-to-adapter map.
func (m *Manager) All() map[string]adapters.Adapter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]adapters.Adapter, len(m.adapters))
	for name, adapter := range m.adapters {
		out[name] = adapter
	}

	return out
}

// Names returns the registered provider names.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.adapters))
	for name := range m.adapters {
		names = append(names, name)
	}

	return names
}

// healthReporter is satisfied by adapters built on the shared engine.
type healthReporter interface {
	IsHealthy() bool
	Health() adapters.Health
}

// Healthy returns the adapters currently reporting healthy. Adapters that
// expose no health state count as healthy.
func (m *Manager) Healthy() map[string]adapters.Adapter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	healthy := make(map[string]adapters.Adapter)
	for name, adapter := range m.adapters {
		if hr, ok := adapter.(healthReporter); ok && !hr.IsHealthy() {
			continue
		}
		healthy[name] = adapter
	}

	return healthy
}

// Count returns the number of registered adapters.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.adapters)
}

// LoadFromConfig registers an adapter per entry. Failures are collected;
// adapters that load successfully stay registered.
func (m *Manager) LoadFromConfig(configs []ManagedConfig) error {
	var errs []error

	for _, c := range configs {
		if err := m.Add(c.Provider, c.Config); err != nil {
			errs = append(errs, err)
			slog.Error("failed to load adapter",
				"provider", c.Provider,
				"error", err,
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to load %d adapter(s)", len(errs))
	}

	slog.Info("all adapters loaded", "count", len(configs))
	return nil
}

// Close stops health monitoring and closes every adapter.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancel()

	var errs []error
	for name, adapter := range m.adapters {
		if err := adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close adapter %q: %w", name, err))
		}
	}

	m.adapters = make(map[string]adapters.Adapter)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing adapters: %v", errs)
	}

	slog.Info("adapter manager closed")
	return nil
}

// HealthSummary is an overview of adapter health across the manager.
type HealthSummary struct {
	// Total is the number of registered adapters
	Total int

	// Healthy is the number of healthy adapters
	Healthy int

	// Unhealthy is the number of unhealthy adapters
	Unhealthy int

	// Details holds per-adapter health state
	Details map[string]adapters.Health
}

// HealthSummaryReport collects per-adapter health into one summary.
func (m *Manager) HealthSummaryReport() HealthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := HealthSummary{
		Total:   len(m.adapters),
		Details: make(map[string]adapters.Health),
	}

	for name, adapter := range m.adapters {
		hr, ok := adapter.(healthReporter)
		if !ok {
			summary.Healthy++
			continue
		}

		health := hr.Health()
		summary.Details[name] = health

		if health.IsHealthy {
			summary.Healthy++
		}
	}

	summary.Unhealthy = summary.Total - summary.Healthy

	return summary
}
