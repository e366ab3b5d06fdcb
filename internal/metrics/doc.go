// Package metrics provides the lock-free counter and latency histogram
// storage behind the engine's observability surface.
//
// Counters live in cache-line-padded uint64 slots and are incremented
// atomically. The single latency histogram uses 8 fixed buckets (<=5ms
// through +Inf). Both are allocation-free on the write path.
//
// This package owns metric storage and snapshot creation only. Export
// formats (Prometheus text, OpenTelemetry instruments) live under
// metrics/export/ and read Snapshot values. The package performs no I/O
// and imports no sibling packages.
package metrics
