// Package metric provides Prometheus metrics for respkv.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry, metric helpers and HTTP handler
//   - collector.go: keyspace size collector, sampled at scrape time
//
// Metrics include:
//
//   - Command counters and latency histograms
//   - Connection gauges and counters
//   - Protocol error and lazy expiry counters
//   - Keyspace size
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
