// Package scanner drives full and incremental scans of a project's root
// paths.
//
// A scan enumerates candidate files under the roots, diffs them against the
// store's (path -> size, mtime) index to skip unchanged files, extracts
// metadata through a bounded worker pool with per-file timeouts, and
// commits results in ordered, atomic batches. Only one scan may be in
// flight per project; a second request is rejected while the first runs.
//
// Cancellation stops dispatch of new extraction work immediately and rolls
// back the in-flight batch, so a partial batch is never half-committed.
// Per-file extraction timeouts are independent of scan-level cancellation
// and never abort the scan.
package scanner
