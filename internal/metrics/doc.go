// Package metrics exposes download counters to Prometheus.
//
// A Collector implements download.Recorder. Handler serves the collected
// metrics on /metrics next to a /healthz probe.
package metrics
