// Package observability provides structured logging, Prometheus metrics,
// health probes, OpenTelemetry wiring, and graceful shutdown for the
// gateway process.
package observability
