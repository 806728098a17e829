package metrics

import (
	"os"
	"time"

	"media-index/internal/logging"
)

// StatsProvider supplies current library totals for the collector.
type StatsProvider interface {
	GetStats() Stats
}

// DBMetricsUpdater refreshes store connection gauges.
type DBMetricsUpdater interface {
	UpdateDBMetrics()
}

// Stats holds the current library statistics.
type Stats struct {
	TotalProjects int
	TotalFolders  int
	TotalPhotos   int
	TotalVideos   int
	TotalTags     int
}

// Collector periodically collects and updates library gauges.
type Collector struct {
	statsProvider StatsProvider
	dbUpdater     DBMetricsUpdater
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// SetDBMetricsUpdater wires in a store whose connection stats should be
// refreshed each collection cycle.
func (c *Collector) SetDBMetricsUpdater(updater DBMetricsUpdater) {
	c.dbUpdater = updater
}

// Start begins the metrics collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectDBSize()

	if c.dbUpdater != nil {
		c.dbUpdater.UpdateDBMetrics()
	}

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LibraryProjects.Set(float64(stats.TotalProjects))
	LibraryFolders.Set(float64(stats.TotalFolders))
	LibraryMedia.WithLabelValues("photo").Set(float64(stats.TotalPhotos))
	LibraryMedia.WithLabelValues("video").Set(float64(stats.TotalVideos))
	LibraryTags.Set(float64(stats.TotalTags))

	logging.Debug("Metrics collected: projects=%d, folders=%d, photos=%d, videos=%d, tags=%d",
		stats.TotalProjects, stats.TotalFolders, stats.TotalPhotos, stats.TotalVideos, stats.TotalTags)
}

// collectDBSize sums the main database file with its WAL and SHM siblings.
func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}

	var total int64
	for _, path := range []string{c.dbPath, c.dbPath + "-wal", c.dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		total += info.Size()
	}

	DBSizeBytes.Set(float64(total))
}
