package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-index/internal/filesystem"
	"media-index/internal/logging"
	"media-index/internal/memory"
	"media-index/internal/metrics"
	"media-index/internal/probe"
	"media-index/internal/scanner"
	"media-index/internal/startup"
	"media-index/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Configure GOMEMLIMIT before any significant allocations.
	memResult := memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	startup.LogMemoryConfig(startup.MemoryConfig{
		Configured:     memResult.Configured,
		Source:         memResult.Source,
		ContainerLimit: memResult.ContainerLimit,
		GoMemLimit:     memResult.GoMemLimit,
		Ratio:          memResult.Ratio,
	})

	metrics.InitializeMetrics()

	// Volume labels for filesystem retry metrics.
	volumes := map[string]string{"database": config.DatabaseDir}
	if len(config.ScanRoots) == 1 {
		volumes["media"] = config.ScanRoots[0]
	} else {
		for i, root := range config.ScanRoots {
			volumes[fmt.Sprintf("media-%d", i)] = root
		}
	}
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(volumes))

	// Initialize store
	dbStart := time.Now()
	s, err := store.Open(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to open store: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			logging.Error("Error closing store: %v", err)
		}
	}()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Serve Prometheus metrics while the scan runs
	if config.MetricsEnabled {
		collector := metrics.NewCollector(s, config.DatabasePath, 15*time.Second)
		collector.SetDBMetricsUpdater(s)
		collector.Start()
		defer collector.Stop()

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(":"+config.MetricsPort, mux); err != nil {
				logging.Warn("Metrics server error: %v", err)
			}
		}()
		logging.Info("  Metrics:  http://localhost:%s/metrics", config.MetricsPort)
	}

	// Ensure the target project exists
	project, err := s.GetProjectByName(context.Background(), config.ProjectName)
	if errors.Is(err, store.ErrNotFound) {
		project, err = s.CreateProject(context.Background(), config.ProjectName)
		if err == nil {
			logging.Info("Created project %s (%s)", project.Name, project.ID)
		}
	}
	if err != nil {
		startup.LogFatal("Failed to resolve project %s: %v", config.ProjectName, err)
	}

	// Memory backpressure for the extraction workers
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()

	startup.LogScannerInit(config.ExtractWorkers, config.ExtractTimeout, config.ScanBatchSize)
	sc := scanner.New(s, probe.NewImageProber(), scanner.Config{
		Workers:   config.ExtractWorkers,
		Timeout:   config.ExtractTimeout,
		BatchSize: config.ScanBatchSize,
		Monitor:   monitor,
	})

	// SIGINT/SIGTERM cancels the running scan; committed batches remain.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		startup.LogShutdownInitiated(sig.String())
		if err := sc.Cancel(project.ID); err != nil && !errors.Is(err, scanner.ErrScanNotRunning) {
			logging.Warn("Error cancelling scan: %v", err)
		}
		stop()
	}()

	summary, err := sc.Scan(ctx, project.ID, config.ScanRoots)
	switch {
	case errors.Is(err, scanner.ErrCancelled):
		logging.Warn("Scan cancelled after %v: %d indexed, %d skipped", summary.Duration, summary.Indexed, summary.Skipped)
		startup.LogShutdownComplete()
		os.Exit(130)
	case err != nil:
		startup.LogFatal("Scan failed: %v", err)
	}

	logging.Info("Scan complete in %v: %d indexed, %d skipped, %d failed, %d timed out, %d removed",
		summary.Duration, summary.Indexed, summary.Skipped, summary.Failed, summary.TimedOut, summary.Removed)
	for _, path := range summary.FailedPaths {
		logging.Debug("  failed: %s", path)
	}

	startup.LogShutdownStepComplete("Scan finished")
}
