package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"media-index/internal/logging"
	"media-index/internal/memory"
	"media-index/internal/metrics"
	"media-index/internal/pathid"
	"media-index/internal/probe"
	"media-index/internal/resolver"
	"media-index/internal/store"
	"media-index/internal/workers"
)

var (
	// ErrScanInFlight is returned when a scan is requested for a project
	// that already has one running.
	ErrScanInFlight = errors.New("scan already in flight for project")

	// ErrScanNotRunning is returned by Cancel when the project has no
	// active scan.
	ErrScanNotRunning = errors.New("no scan in flight for project")

	// ErrCancelled is returned by a scan that was stopped before
	// completing. Batches committed before the cancellation remain.
	ErrCancelled = errors.New("scan cancelled")
)

// State is the current phase of a project's scan.
type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateDiffing     State = "diffing"
	StateExtracting  State = "extracting"
	StateCommitting  State = "committing"
)

// Summary reports what one scan run did.
type Summary struct {
	Indexed     int
	Skipped     int
	Failed      int
	TimedOut    int
	Removed     int64
	FailedPaths []string
	Duration    time.Duration
}

// Config tunes a Scanner. Zero values fall back to defaults.
type Config struct {
	// Workers bounds concurrent metadata extractions.
	Workers int
	// Timeout is the hard per-file extraction deadline.
	Timeout time.Duration
	// BatchSize is the number of records committed per transaction.
	BatchSize int
	// Monitor, if set, pauses extraction under memory pressure.
	Monitor *memory.Monitor
}

const (
	defaultTimeout   = 15 * time.Second
	defaultBatchSize = 500
)

// Scanner runs full and incremental scans of project roots. At most one
// scan per project is in flight at a time; scans of different projects may
// run concurrently.
type Scanner struct {
	store    *store.Store
	resolver *resolver.Resolver
	prober   probe.Prober

	numWorkers int
	timeout    time.Duration
	batchSize  int
	monitor    *memory.Monitor

	mu   sync.Mutex
	runs map[string]*run
}

type run struct {
	state  State
	cancel context.CancelFunc
}

// New builds a Scanner over the given store and prober.
func New(s *store.Store, prober probe.Prober, cfg Config) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = workers.ForIO(16)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	return &Scanner{
		store:      s,
		resolver:   resolver.New(s),
		prober:     prober,
		numWorkers: cfg.Workers,
		timeout:    cfg.Timeout,
		batchSize:  cfg.BatchSize,
		monitor:    cfg.Monitor,
	}
}

// State reports the current scan phase for a project, StateIdle when no
// scan is running.
func (sc *Scanner) State(projectID string) State {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if r, ok := sc.runs[projectID]; ok {
		return r.state
	}
	return StateIdle
}

// Cancel stops a running scan for the project. The scan's in-flight batch
// is discarded; batches already committed remain in the store.
func (sc *Scanner) Cancel(projectID string) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	r, ok := sc.runs[projectID]
	if !ok {
		return ErrScanNotRunning
	}
	r.cancel()
	return nil
}

func (sc *Scanner) setState(projectID string, state State) {
	sc.mu.Lock()
	if r, ok := sc.runs[projectID]; ok {
		r.state = state
	}
	sc.mu.Unlock()
}

// Scan walks the project's roots, extracts metadata for new and modified
// files, and commits the results in batches. Unchanged files are skipped.
// Files no longer present under the roots are removed at the end, so a
// completed scan leaves the index matching the filesystem. A second call
// for the same project while one is running returns ErrScanInFlight.
func (sc *Scanner) Scan(ctx context.Context, projectID string, roots []string) (*Summary, error) {
	if _, err := sc.store.GetProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("scan project %s: %w", projectID, err)
	}
	if len(roots) == 0 {
		return nil, errors.New("scan requires at least one root")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sc.mu.Lock()
	if sc.runs == nil {
		sc.runs = make(map[string]*run)
	}
	if _, exists := sc.runs[projectID]; exists {
		sc.mu.Unlock()
		return nil, ErrScanInFlight
	}
	sc.runs[projectID] = &run{state: StateDiscovering, cancel: cancel}
	sc.mu.Unlock()

	metrics.ScanIsRunning.Inc()
	start := time.Now()

	defer func() {
		sc.mu.Lock()
		delete(sc.runs, projectID)
		sc.mu.Unlock()
		metrics.ScanIsRunning.Dec()
		metrics.ScanLastRunTimestamp.SetToCurrentTime()
		metrics.ScanLastRunDuration.Set(time.Since(start).Seconds())
	}()

	summary, err := sc.scan(ctx, projectID, roots)
	if summary != nil {
		summary.Duration = time.Since(start)
	}
	switch {
	case err == nil:
		metrics.ScanRunsTotal.WithLabelValues("completed").Inc()
	case errors.Is(err, ErrCancelled):
		metrics.ScanRunsTotal.WithLabelValues("cancelled").Inc()
	default:
		metrics.ScanRunsTotal.WithLabelValues("failed").Inc()
		metrics.ScanErrors.Inc()
	}
	return summary, err
}

func (sc *Scanner) scan(ctx context.Context, projectID string, roots []string) (*Summary, error) {
	logging.Info("Starting scan of project %s (%d roots)", projectID, len(roots))

	var candidates []candidate
	err := walkRoots(ctx, roots, func(c candidate) error {
		candidates = append(candidates, c)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return &Summary{}, ErrCancelled
		}
		return nil, fmt.Errorf("discover roots: %w", err)
	}
	logging.Info("Discovered %d candidate files", len(candidates))

	sc.setState(projectID, StateDiffing)

	index, err := sc.store.MediaIndex(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load media index: %w", err)
	}

	var toExtract []candidate
	seenKeys := make([]string, 0, len(candidates))
	unchanged := 0
	for _, c := range candidates {
		key := pathid.Key(c.path)
		seenKeys = append(seenKeys, key)
		if prev, ok := index[key]; ok && prev.Size == c.size && prev.ModTime.Equal(c.modTime.Truncate(time.Second)) {
			unchanged++
			continue
		}
		toExtract = append(toExtract, c)
	}
	logging.Info("Diff complete: %d to extract, %d unchanged", len(toExtract), unchanged)

	summary := &Summary{Skipped: unchanged}
	metrics.ScanFilesTotal.WithLabelValues("skipped").Add(float64(unchanged))

	sc.setState(projectID, StateExtracting)

	if err := sc.extractAndCommit(ctx, projectID, toExtract, summary); err != nil {
		return summary, err
	}

	if ctx.Err() != nil {
		return summary, ErrCancelled
	}

	sc.setState(projectID, StateCommitting)

	if err := sc.finalize(projectID, roots, seenKeys, summary); err != nil {
		return summary, err
	}

	sc.refreshStats()

	logging.Info("Scan of project %s done: %d indexed, %d skipped, %d failed, %d timed out, %d removed",
		projectID, summary.Indexed, summary.Skipped, summary.Failed, summary.TimedOut, summary.Removed)
	return summary, nil
}

// extractAndCommit runs the worker pool over the candidates and commits
// finished records in batches. On cancellation the partial batch is
// dropped without touching the store.
func (sc *Scanner) extractAndCommit(ctx context.Context, projectID string, toExtract []candidate, summary *Summary) error {
	if len(toExtract) == 0 {
		return nil
	}

	p := newPool(sc.prober, sc.numWorkers, sc.timeout, sc.batchSize, sc.monitor)
	p.start(ctx, projectID)

	go func() {
		defer close(p.jobs)
		for _, c := range toExtract {
			select {
			case p.jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	batch := make([]store.MediaRecord, 0, sc.batchSize)
	for res := range p.results {
		switch res.rec.Status {
		case store.ExtractFailed:
			summary.Failed++
			summary.FailedPaths = append(summary.FailedPaths, res.rec.Path)
			metrics.ScanFilesTotal.WithLabelValues("failed").Inc()
		case store.ExtractTimeout:
			summary.TimedOut++
			summary.FailedPaths = append(summary.FailedPaths, res.rec.Path)
			metrics.ScanFilesTotal.WithLabelValues("timeout").Inc()
		default:
			summary.Indexed++
			metrics.ScanFilesTotal.WithLabelValues("indexed").Inc()
		}

		batch = append(batch, res.rec)
		if len(batch) >= sc.batchSize {
			if ctx.Err() != nil {
				return ErrCancelled
			}
			if err := sc.commitBatch(projectID, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}

	if ctx.Err() != nil {
		return ErrCancelled
	}

	if len(batch) > 0 {
		if err := sc.commitBatch(projectID, batch); err != nil {
			return err
		}
	}
	return nil
}

// commitBatch writes one batch of records atomically. Folder rows for each
// record's directory chain are resolved inside the same transaction, so a
// rollback leaves neither half the batch nor orphaned folders.
func (sc *Scanner) commitBatch(projectID string, batch []store.MediaRecord) error {
	tx, err := sc.store.BeginBatch()
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}

	for i := range batch {
		rec := &batch[i]
		folderID, rerr := sc.resolver.Resolve(tx, projectID, filepath.Dir(rec.Path))
		if rerr != nil {
			err = fmt.Errorf("resolve folder for %s: %w", rec.Path, rerr)
			break
		}
		rec.FolderID = folderID

		if uerr := sc.store.UpsertMedia(tx, rec); uerr != nil {
			err = fmt.Errorf("upsert %s: %w", rec.Path, uerr)
			break
		}
	}

	if err := sc.store.EndBatch(tx, err); err != nil {
		// Folder ids cached during the rolled-back transaction are gone.
		sc.resolver.Flush()
		return err
	}

	metrics.ScanBatchesCommitted.Inc()
	logging.Debug("Committed batch of %d records for project %s", len(batch), projectID)
	return nil
}

// finalize removes rows for files no longer on disk under the roots.
func (sc *Scanner) finalize(projectID string, roots []string, seenKeys []string, summary *Summary) error {
	tx, err := sc.store.BeginBatch()
	if err != nil {
		return fmt.Errorf("begin reconcile: %w", err)
	}

	removed, rerr := sc.store.ReconcileMissing(tx, projectID, roots, seenKeys)
	if rerr != nil {
		err = fmt.Errorf("reconcile missing media: %w", rerr)
	} else {
		summary.Removed = removed
	}

	return sc.store.EndBatch(tx, err)
}

func (sc *Scanner) refreshStats() {
	stats, err := sc.store.CalculateStats()
	if err != nil {
		logging.Warn("Error calculating library stats: %v", err)
		return
	}
	sc.store.UpdateStats(stats)
}
