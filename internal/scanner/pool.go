package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"media-index/internal/logging"
	"media-index/internal/memory"
	"media-index/internal/metrics"
	"media-index/internal/probe"
	"media-index/internal/store"
)

// extractResult is one finished extraction.
type extractResult struct {
	rec store.MediaRecord
}

// pool is a bounded set of workers that call the metadata prober with a
// hard per-file timeout. A prober call that exceeds the timeout is
// abandoned in flight and the file is recorded with a timeout status; any
// other extraction error records a failed status. Neither blocks the batch.
type pool struct {
	prober  probe.Prober
	timeout time.Duration
	workers int
	monitor *memory.Monitor

	jobs    chan candidate
	results chan extractResult
	wg      sync.WaitGroup
}

func newPool(prober probe.Prober, workers int, timeout time.Duration, buffer int, monitor *memory.Monitor) *pool {
	return &pool{
		prober:  prober,
		timeout: timeout,
		workers: workers,
		monitor: monitor,
		jobs:    make(chan candidate, buffer),
		results: make(chan extractResult, buffer),
	}
}

// start launches the workers. The caller feeds p.jobs (closing it when
// done) and drains p.results until it is closed.
func (p *pool) start(ctx context.Context, projectID string) {
	metrics.ExtractionWorkers.Set(float64(p.workers))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, projectID, i)
	}

	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

func (p *pool) worker(ctx context.Context, projectID string, id int) {
	defer p.wg.Done()

	logging.Debug("Extraction worker %d started", id)

	for cand := range p.jobs {
		if ctx.Err() != nil {
			return
		}

		// Decoding large images is the memory hotspot; hold off under
		// pressure rather than risk an OOM kill mid-scan.
		if p.monitor != nil && !p.monitor.WaitIfPaused() {
			return
		}

		rec := p.extract(ctx, projectID, cand)

		select {
		case p.results <- extractResult{rec: rec}:
		case <-ctx.Done():
			return
		}
	}

	logging.Debug("Extraction worker %d finished", id)
}

// extract builds the media record for one candidate, probing it under the
// per-file timeout.
func (p *pool) extract(ctx context.Context, projectID string, cand candidate) store.MediaRecord {
	rec := store.MediaRecord{
		ProjectID: projectID,
		Path:      cand.path,
		Name:      filepath.Base(cand.path),
		Kind:      cand.kind,
		Size:      cand.size,
		ModTime:   cand.modTime,
		Status:    store.ExtractOK,
	}

	start := time.Now()
	meta, err := p.probeWithTimeout(ctx, cand.path)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.ExtractionsTotal.WithLabelValues("ok").Inc()
		rec.Width = meta.Width
		rec.Height = meta.Height
		rec.DurationSecs = meta.DurationSecs
		rec.Codec = meta.Codec
		rec.BitrateBps = meta.BitrateBps
		rec.CaptureDate = meta.CaptureDate
	case errors.Is(err, context.DeadlineExceeded):
		metrics.ExtractionsTotal.WithLabelValues("timeout").Inc()
		logging.Warn("Metadata extraction timed out for %s after %v", cand.path, p.timeout)
		rec.Status = store.ExtractTimeout
		rec.ExtractError = "extraction timed out"
	default:
		metrics.ExtractionsTotal.WithLabelValues("failed").Inc()
		logging.Debug("Metadata extraction failed for %s: %v", cand.path, err)
		rec.Status = store.ExtractFailed
		rec.ExtractError = err.Error()
	}

	// Derived date fields come from the capture date when one was
	// extracted, else from the filesystem modification time. A conversion
	// failure leaves them null without failing the record.
	captureDate := ""
	if rec.Status == store.ExtractOK {
		captureDate = rec.CaptureDate
	}
	if derived := probe.DeriveDates(captureDate, cand.modTime); derived != nil {
		rec.CreatedTS = &derived.TS
		rec.CreatedDate = &derived.Date
		rec.CreatedYear = &derived.Year
	}

	return rec
}

type probeOutcome struct {
	meta *probe.Metadata
	err  error
}

// probeWithTimeout runs the prober in its own goroutine so a decoder that
// hangs indefinitely is abandoned when the timeout fires instead of
// wedging the worker's batch.
func (p *pool) probeWithTimeout(ctx context.Context, path string) (*probe.Metadata, error) {
	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// Buffered so the abandoned goroutine can still deliver and exit.
	ch := make(chan probeOutcome, 1)
	go func() {
		meta, err := p.prober.Probe(tctx, path)
		ch <- probeOutcome{meta: meta, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			return nil, out.err
		}
		if out.meta == nil {
			out.meta = &probe.Metadata{}
		}
		return out.meta, nil
	case <-tctx.Done():
		return nil, tctx.Err()
	}
}
