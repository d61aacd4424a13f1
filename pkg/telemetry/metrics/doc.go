// Package metrics exposes Prometheus metrics for adapter traffic.
//
// The Collector owns a registry and the adapter metrics family. It
// implements the observer contract the adapters package expects, so a
// collector can be injected into any adapter with WithObserver and the
// registry scraped through the collector's HTTP handler.
package metrics
