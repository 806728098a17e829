package memory

import (
	"os"
	"runtime/debug"
	"strconv"

	"media-index/internal/logging"
)

// DefaultHeapRatio is the share of the container memory limit handed to the
// Go heap. The remainder covers decode buffers held by cgo-free image
// decoders, goroutine stacks, and the SQLite page cache.
const DefaultHeapRatio = 0.85

// ConfigResult reports how the heap limit was derived, for startup logging.
type ConfigResult struct {
	Configured     bool
	Source         string // "GOMEMLIMIT", "MEMORY_LIMIT", or "none"
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureFromEnv derives GOMEMLIMIT before the first scan allocates
// anything. Precedence:
//
//  1. GOMEMLIMIT — the operator set it explicitly, leave it alone.
//  2. MEMORY_LIMIT — container limit in bytes (Kubernetes Downward API);
//     the heap gets MEMORY_RATIO of it (default 0.85).
//  3. Neither — the runtime stays unbounded and the extraction gate is off.
func ConfigureFromEnv() ConfigResult {
	if raw := os.Getenv("GOMEMLIMIT"); raw != "" {
		result := ConfigResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < 1<<62 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", raw)
		return result
	}

	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, heap stays unbounded")
		return ConfigResult{Source: "none"}
	}

	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Ignoring unparseable MEMORY_LIMIT %q: %v", raw, err)
		return ConfigResult{Source: "none"}
	}

	ratio := heapRatioFromEnv()
	heapLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(heapLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		formatBytes(heapLimit), ratio*100, formatBytes(containerLimit))

	return ConfigResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     heapLimit,
		Ratio:          ratio,
	}
}

func heapRatioFromEnv() float64 {
	raw := os.Getenv("MEMORY_RATIO")
	if raw == "" {
		return DefaultHeapRatio
	}

	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logging.Warn("Ignoring unparseable MEMORY_RATIO %q: %v", raw, err)
		return DefaultHeapRatio
	}
	if ratio <= 0 || ratio > 1 {
		logging.Warn("MEMORY_RATIO %q outside (0, 1], using %.2f", raw, DefaultHeapRatio)
		return DefaultHeapRatio
	}
	return ratio
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
