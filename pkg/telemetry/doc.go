// Package telemetry groups the observability support for Callisto.
//
// # Components
//
//   - logging: slog setup from configuration, with credential redaction
//   - metrics: Prometheus metrics for adapter traffic and health
//
// Both components are driven by their sections of the configuration file
// and are optional: an adapter built without an observer or with default
// logging behaves identically, it just reports less.
package telemetry
