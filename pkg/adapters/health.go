package adapters

import (
	"context"
	"log/slog"
	"time"
)

// CheckFunc performs one health probe. Adapters pass their HealthCheck
// method; anything returning an error marks the probe failed.
type CheckFunc func(ctx context.Context) error

// StartHealthChecker starts a background goroutine that periodically probes
// the adapter with check and updates its health status. It runs until the
// adapter is closed or ctx is cancelled, backing off while unhealthy to
// reduce load on a struggling vendor.
func (c *Core) StartHealthChecker(ctx context.Context, interval time.Duration, check CheckFunc) {
	c.checkerMu.Lock()
	if c.checkerStarted {
		c.checkerMu.Unlock()
		return
	}
	c.checkerStarted = true
	c.checkerMu.Unlock()

	go c.runHealthChecker(ctx, interval, check)
}

func (c *Core) runHealthChecker(ctx context.Context, interval time.Duration, check CheckFunc) {
	defer close(c.healthCheckStopped)

	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("health checker started",
		"provider", c.provider,
		"interval", interval,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Debug("health checker stopped (context cancelled)", "provider", c.provider)
			return

		case <-c.stopHealthCheck:
			slog.Debug("health checker stopped (adapter closed)", "provider", c.provider)
			return

		case <-ticker.C:
			c.performHealthCheck(ctx, check)

			if !c.IsHealthy() {
				health := c.Health()
				next := checkBackoff(health.ConsecutiveFailures, interval)
				ticker.Reset(next)

				slog.Debug("health check backoff",
					"provider", c.provider,
					"consecutive_failures", health.ConsecutiveFailures,
					"next_check_in", next,
				)
			} else {
				ticker.Reset(interval)
			}
		}
	}
}

func (c *Core) performHealthCheck(ctx context.Context, check CheckFunc) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := check(checkCtx)
	latency := time.Since(start)

	if err != nil {
		c.updateHealth(false, err)
		slog.Error("health check failed",
			"provider", c.provider,
			"error", err,
			"latency", latency,
		)
		return
	}

	previous := c.Health().ConsecutiveFailures
	c.updateHealth(true, nil)
	slog.Debug("health check passed",
		"provider", c.provider,
		"latency", latency,
	)

	if previous > 0 {
		slog.Info("adapter marked healthy",
			"provider", c.provider,
			"previous_failures", previous,
		)
	}
}

// checkBackoff grows the probe interval while the adapter stays unhealthy,
// capped at 10x the base interval and 5 minutes.
func checkBackoff(consecutiveFailures int, baseInterval time.Duration) time.Duration {
	if consecutiveFailures <= 0 {
		return baseInterval
	}

	multiplier := 1 << uint(consecutiveFailures)
	if multiplier > 10 {
		multiplier = 10
	}

	backoff := baseInterval * time.Duration(multiplier)

	maxBackoff := 5 * time.Minute
	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	return backoff
}
