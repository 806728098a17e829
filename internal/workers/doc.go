/*
Package workers computes worker pool sizes that respect container CPU
limits.

# Overview

In a container, runtime.NumCPU() reports the host's core count, not the
cgroup limit. Go 1.19+ sets GOMAXPROCS from the container limit, so this
package derives worker counts from GOMAXPROCS instead: a pod limited to 2
cores on a 64-core node gets pools sized for 2.

# Usage

Pick the helper matching the workload:

	// Metadata extraction is I/O-heavy (open, read header, close):
	// 2 workers per available CPU.
	n := workers.ForIO(16) // capped at 16

	// Full-decode fallbacks are CPU-bound: 1 worker per CPU.
	n := workers.ForCPU(8)

	// Or tune the multiplier directly.
	n := workers.Count(1.5, 12)

The cap matters on large hosts running without limits; the scan pool uses
ForIO(16) so an unconstrained 64-core machine does not hammer a network
mount with 128 concurrent opens.

# Environment Override

EXTRACT_WORKERS overrides every helper, still subject to the caller's cap.
Useful for spinning disks where even 2x CPU oversubscribes the array, or
for benchmarking a specific pool size.
*/
package workers
