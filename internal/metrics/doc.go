// Package metrics defines the Prometheus instrumentation for the indexing
// engine.
//
// All metrics are registered with promauto at package initialization under
// the media_index_ prefix and fall into five groups:
//
//   - Store: per-operation query counters and duration histograms,
//     transaction timing by outcome, rows affected per write, open
//     connections, and on-disk database size.
//   - Scan: run counters by terminal state (completed, cancelled, failed),
//     per-outcome file counters (indexed, skipped, failed, timeout), last
//     run timestamp and duration, and an in-flight gauge.
//   - Extraction: probe outcomes, probe duration, and the worker gauge.
//   - Filesystem: NFS retry attempts, successes, failures, and stale-handle
//     counts, labeled by operation and volume.
//   - Memory: heap usage ratio against GOMEMLIMIT and the extraction pause
//     gate.
//
// Callers record store metrics through small closures (see the store's
// observeQuery) rather than touching the variables inline, which keeps the
// label sets consistent. InitializeMetrics pre-populates every expected
// label combination so series exist from the first scrape instead of
// appearing when an operation first runs.
//
// Collector periodically refreshes the gauges that describe state rather
// than events: library totals from the store's cached stats, database file
// size, and connection counts.
package metrics
