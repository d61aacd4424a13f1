package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/adapterfactory"
	"mercator-hq/callisto/pkg/adapters"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/metrics"
	"mercator-hq/callisto/pkg/usage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a long-lived agent with health checks and metrics",
	Long: `Run callisto as a long-lived process. All configured providers are
kept warm with periodic health checks, a Prometheus metrics endpoint is
exposed when metrics are enabled, usage retention runs on its schedule,
and the configuration file is watched for provider changes.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []adapters.Option

	// Metrics endpoint
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Metrics, nil)
		opts = append(opts, adapters.WithObserver(collector))
	}

	// Persistent usage
	store, err := openUsageStore(&cfg.Usage)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, adapters.WithSink(store))
	}

	manager := adapterfactory.NewManager(opts...)
	defer manager.Close()

	if err := manager.LoadFromConfig(managedConfigs(cfg)); err != nil {
		slog.Warn("some adapters failed to initialize", "error", err)
	}
	if manager.Count() == 0 {
		return fmt.Errorf("no providers configured: nothing to serve")
	}
	slog.Info("adapters initialized", "count", manager.Count(), "providers", manager.Names())

	// Metrics HTTP server
	var metricsSrv *http.Server
	if collector != nil {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, collector.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.ListenAddress, Handler: mux}

		go func() {
			slog.Info("metrics endpoint listening",
				"address", cfg.Metrics.ListenAddress, "path", cfg.Metrics.Path)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server failed", "error", err)
			}
		}()

		go reportHealth(ctx, manager, collector)
	}

	// Usage retention
	if store != nil && cfg.Usage.PruneSchedule != "" {
		pruner := usage.NewPruner(store, &usage.RetentionConfig{
			RetentionDays: cfg.Usage.RetentionDays,
			PruneSchedule: cfg.Usage.PruneSchedule,
		})
		scheduler := usage.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	// Config hot reload
	if _, statErr := os.Stat(cfgFile); statErr == nil {
		watcher, err := config.NewWatcher(cfgFile)
		if err != nil {
			return err
		}
		defer watcher.Stop()

		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				slog.Info("configuration reloaded, refreshing adapters")
				if err := manager.LoadFromConfig(managedConfigs(next)); err != nil {
					slog.Warn("adapter refresh incomplete", "error", err)
				}
			})
			if err != nil {
				slog.Error("config watcher failed", "error", err)
			}
		}()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "callisto serving %d provider(s); Ctrl-C to stop\n", manager.Count())
	<-ctx.Done()

	slog.Info("shutting down")
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown incomplete", "error", err)
		}
	}
	return nil
}

// managedConfigs maps the provider section of the configuration to manager
// entries.
func managedConfigs(cfg *config.Config) []adapterfactory.ManagedConfig {
	configs := make([]adapterfactory.ManagedConfig, 0, len(cfg.Providers))
	for name, providerCfg := range cfg.Providers {
		configs = append(configs, adapterfactory.ManagedConfig{
			Provider: name,
			Config:   providerCfg.AdapterConfig(),
		})
	}
	return configs
}

// reportHealth periodically feeds the manager's health view into the
// metrics collector.
func reportHealth(ctx context.Context, manager *adapterfactory.Manager, collector *metrics.Collector) {
	ticker := time.NewTicker(adapterfactory.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary := manager.HealthSummaryReport()
			for provider, health := range summary.Details {
				collector.UpdateHealth(provider, health.IsHealthy)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
