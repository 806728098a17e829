package metrics

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type mockStatsProvider struct {
	stats Stats
}

func (m *mockStatsProvider) GetStats() Stats {
	return m.stats
}

type mockDBMetricsUpdater struct {
	mu    sync.Mutex
	calls int
}

func (m *mockDBMetricsUpdater) UpdateDBMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
}

func (m *mockDBMetricsUpdater) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{
			TotalProjects: 2,
			TotalFolders:  10,
			TotalPhotos:   80,
			TotalVideos:   20,
			TotalTags:     8,
		},
	}

	collector := NewCollector(provider, "/tmp/test.db", 5*time.Second)

	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}

	if collector.statsProvider != provider {
		t.Error("statsProvider not set correctly")
	}

	if collector.dbPath != "/tmp/test.db" {
		t.Errorf("dbPath = %q, want %q", collector.dbPath, "/tmp/test.db")
	}

	if collector.interval != 5*time.Second {
		t.Errorf("interval = %v, want %v", collector.interval, 5*time.Second)
	}

	if collector.stopChan == nil {
		t.Error("stopChan not initialized")
	}

	if collector.dbUpdater != nil {
		t.Error("dbUpdater should be nil by default")
	}
}

func TestCollectorStartStop(_ *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalPhotos: 50},
	}

	collector := NewCollector(provider, "", 100*time.Millisecond)

	collector.Start()
	time.Sleep(150 * time.Millisecond)
	collector.Stop()

	// Test should complete without hanging
}

func TestCollectWithNilProvider(t *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collect() panicked with nil provider: %v", r)
		}
	}()

	collector.collect()
}

func TestCollectWithStatsProvider(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{
			TotalProjects: 3,
			TotalFolders:  25,
			TotalPhotos:   100,
			TotalVideos:   45,
			TotalTags:     12,
		},
	}

	collector := NewCollector(provider, "", 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collect() panicked: %v", r)
		}
	}()

	collector.collect()
}

func TestCollectCallsDBMetricsUpdater(t *testing.T) {
	updater := &mockDBMetricsUpdater{}
	collector := NewCollector(nil, "", 1*time.Second)
	collector.SetDBMetricsUpdater(updater)

	collector.collect()
	collector.collect()

	if got := updater.callCount(); got != 2 {
		t.Errorf("UpdateDBMetrics called %d times, want 2", got)
	}
}

func TestCollectDBSizeWithWALAndSHM(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	if err := os.WriteFile(dbPath, []byte("main db"), 0o644); err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := os.WriteFile(dbPath+"-wal", []byte("wal file"), 0o644); err != nil {
		t.Fatalf("failed to create WAL file: %v", err)
	}
	if err := os.WriteFile(dbPath+"-shm", []byte("shm file"), 0o644); err != nil {
		t.Fatalf("failed to create SHM file: %v", err)
	}

	collector := NewCollector(nil, dbPath, 1*time.Second)
	collector.collectDBSize()

	// Should complete without error
}

func TestCollectDBSizeWithMissingDatabase(t *testing.T) {
	collector := NewCollector(nil, "/nonexistent/path/db.db", 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collectDBSize() panicked with missing database: %v", r)
		}
	}()

	collector.collectDBSize()
}

func TestCollectDBSizeWithEmptyPath(t *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collectDBSize() panicked with empty path: %v", r)
		}
	}()

	collector.collectDBSize()
}
