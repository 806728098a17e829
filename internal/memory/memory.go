package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"media-index/internal/logging"
	"media-index/internal/metrics"
)

// Config sets the thresholds for pausing metadata extraction when the heap
// approaches its limit. Ratios are fractions of the limit.
type Config struct {
	// Limit is the heap budget in bytes. 0 adopts GOMEMLIMIT when one is
	// set; with neither, backpressure is disabled.
	Limit int64

	// PauseAbove pauses extraction workers once heap usage crosses this
	// fraction of the limit.
	PauseAbove float64

	// ResumeBelow resumes them once usage falls back under this fraction.
	// Keep it below PauseAbove so the gate does not flap.
	ResumeBelow float64

	// Interval between heap samples.
	Interval time.Duration
}

// DefaultConfig returns the thresholds used by the scan entry point.
func DefaultConfig() Config {
	return Config{
		PauseAbove:  0.85,
		ResumeBelow: 0.7,
		Interval:    5 * time.Second,
	}
}

// Monitor samples heap usage and gates extraction workers against OOM
// kills. Decoding a batch of large images is the one allocation-heavy path
// in a scan, so the pool asks WaitIfPaused before each probe.
type Monitor struct {
	cfg   Config
	limit int64

	mu     sync.RWMutex
	heap   uint64
	paused bool
	resume chan struct{}
	quit   chan struct{}
}

// Snapshot is a point-in-time view of heap usage against the limit.
type Snapshot struct {
	Heap  uint64
	Limit int64
	Ratio float64
}

// NewMonitor builds a Monitor. Without an explicit Limit it adopts the
// process GOMEMLIMIT so one env var drives both the runtime and the gate.
func NewMonitor(cfg Config) *Monitor {
	limit := cfg.Limit
	if limit == 0 {
		if gml := debug.SetMemoryLimit(-1); gml > 0 && gml < 1<<62 {
			limit = gml
			logging.Info("Extraction gate using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Warn("No heap limit configured, extraction backpressure disabled")
	}

	return &Monitor{
		cfg:    cfg,
		limit:  limit,
		resume: make(chan struct{}),
		quit:   make(chan struct{}),
	}
}

// Start launches the sampling loop. A Monitor without a limit never pauses,
// so there is nothing to run.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.loop()
}

// Stop ends sampling and releases any workers blocked in WaitIfPaused.
func (m *Monitor) Stop() {
	close(m.quit)
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.quit:
			return
		}
	}
}

// sample reads the heap size and flips the pause gate at the configured
// water marks. Crossing the pause mark also requests a GC so a recovering
// heap is observed sooner than the next natural collection.
func (m *Monitor) sample() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.heap = ms.HeapAlloc
	if m.limit <= 0 {
		return
	}

	ratio := float64(ms.HeapAlloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(ratio)

	switch {
	case !m.paused && ratio >= m.cfg.PauseAbove:
		logging.Warn("Heap at %.0f%% of %s limit, pausing extraction", ratio*100, formatBytes(m.limit))
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case m.paused && ratio <= m.cfg.ResumeBelow:
		logging.Info("Heap down to %.0f%% of limit, resuming extraction", ratio*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// WaitIfPaused blocks while the gate is closed. It returns false only when
// the monitor is stopped, which tells a worker to bail out instead of
// probing.
func (m *Monitor) WaitIfPaused() bool {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return true
	}
	resume := m.resume
	m.mu.RUnlock()

	select {
	case <-resume:
		return true
	case <-m.quit:
		return false
	}
}

// Paused reports whether extraction is currently gated.
func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Snapshot returns the last sampled heap size against the limit.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{Heap: m.heap, Limit: m.limit}
	if m.limit > 0 {
		s.Ratio = float64(m.heap) / float64(m.limit)
	}
	return s
}
