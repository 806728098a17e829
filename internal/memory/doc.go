// Package memory keeps bulk metadata extraction inside the container's
// memory budget.
//
// A scan decodes image headers cheaply, but the fallback path fully decodes
// files whose headers cannot be parsed, and a directory of large TIFFs can
// spike the heap faster than the garbage collector reacts. Two pieces work
// together to keep that survivable:
//
// ConfigureFromEnv, called first thing in main, derives GOMEMLIMIT from the
// container's MEMORY_LIMIT (Kubernetes Downward API) scaled by MEMORY_RATIO,
// so the runtime GC gets an accurate budget without per-deployment tuning.
// An explicit GOMEMLIMIT always wins.
//
// Monitor samples the heap on an interval and gates the extraction pool:
// above the pause mark, workers calling WaitIfPaused block before their next
// probe until usage falls back under the resume mark. Files already being
// probed finish normally; the gate only delays new work, so a paused scan
// picks up where it left off with nothing lost.
//
// Typical wiring:
//
//	memory.ConfigureFromEnv()
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//	sc := scanner.New(st, prober, scanner.Config{Monitor: monitor})
package memory
