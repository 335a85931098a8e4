// Package metrics exposes Prometheus instrumentation for the pipeline.
//
// Key metrics:
//   - Tick ingestion counts and failures, per symbol
//   - Cycle and per-tick processing latency
//   - Data quality score distribution
//   - Archive upload counts and payload sizes
package metrics
