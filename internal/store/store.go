package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-index/internal/logging"
	"media-index/internal/metrics"
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// Store manages all persistence for the media indexing engine.
type Store struct {
	db      *sql.DB
	dbPath  string
	mu      sync.RWMutex
	stats   metrics.Stats
	statsMu sync.RWMutex
	txStart sync.Map // per-transaction start times for duration metrics
}

// Open creates a Store backed by the SQLite database at dbPath.
// The parent directory must already exist and be writable; use
// startup.LoadConfig to validate that before calling this.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("Store path: %s", dbPath)

	// WAL mode and busy_timeout prevent "database is locked" errors when a
	// scan commit and a tag operation land at the same time. Foreign keys
	// must be on for project deletion to cascade.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Allow multiple readers while the single writer holds the WAL.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}

	logging.Info("Store initialized successfully at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	done := observeQuery("initialize_schema")

	schema := `
	-- Projects: the isolation boundary. Nothing below is shared across two rows here.
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	-- Folders: one directory within exactly one project's tree.
	-- parent_id NULL marks a scan root, never an accidental orphan.
	CREATE TABLE IF NOT EXISTS folders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		path_key TEXT NOT NULL,
		name TEXT NOT NULL,
		parent_id INTEGER REFERENCES folders(id) ON DELETE CASCADE,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(path_key, project_id)
	);

	CREATE INDEX IF NOT EXISTS idx_folders_project ON folders(project_id);
	CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id);

	-- Media: one photo or video within exactly one project.
	CREATE TABLE IF NOT EXISTS media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		folder_id INTEGER NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		path_key TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		mod_time INTEGER NOT NULL,
		width INTEGER,
		height INTEGER,
		duration_secs REAL,
		codec TEXT,
		bitrate_bps INTEGER,
		capture_date TEXT,
		created_ts INTEGER,
		created_date TEXT,
		created_year INTEGER,
		extract_status TEXT NOT NULL DEFAULT 'ok',
		extract_error TEXT,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(path_key, project_id)
	);

	CREATE INDEX IF NOT EXISTS idx_media_project ON media(project_id);
	CREATE INDEX IF NOT EXISTS idx_media_folder ON media(folder_id);
	CREATE INDEX IF NOT EXISTS idx_media_created_ts ON media(project_id, created_ts);
	CREATE INDEX IF NOT EXISTS idx_media_created_date ON media(project_id, created_date);
	CREATE INDEX IF NOT EXISTS idx_media_created_year ON media(project_id, created_year);
	CREATE INDEX IF NOT EXISTS idx_media_kind ON media(project_id, kind);

	-- Tags: a name scoped to one project.
	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL COLLATE NOCASE,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(name, project_id)
	);

	CREATE INDEX IF NOT EXISTS idx_tags_project ON tags(project_id);

	-- Media-Tag association; both sides belong to the same project because a
	-- media row's project is fixed at insert.
	CREATE TABLE IF NOT EXISTS media_tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		media_id INTEGER NOT NULL REFERENCES media(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(media_id, tag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_media_tags_media ON media_tags(media_id);
	CREATE INDEX IF NOT EXISTS idx_media_tags_tag ON media_tags(tag_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	done(err)
	return err
}

// Close closes the store connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginBatch starts a transaction for batch operations.
// The caller is responsible for calling EndBatch when done.
func (s *Store) BeginBatch() (*sql.Tx, error) {
	// Only protect transaction creation; the transaction itself is handed
	// to the caller.
	s.mu.Lock()
	txStart := time.Now()

	// Background context: transaction lifetime is managed by EndBatch, not
	// a timeout. A deferred cancel here would kill the transaction as soon
	// as this function returned.
	tx, err := s.db.BeginTx(context.Background(), nil)
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Keyed by transaction so overlapping batches from different scans do
	// not clobber each other's timing.
	s.txStart.Store(tx, txStart)
	return tx, nil
}

// EndBatch commits or rolls back a transaction. When err is non-nil the
// transaction is rolled back and err is returned, so a partial batch is
// never left half-committed.
func (s *Store) EndBatch(tx *sql.Tx, err error) error {
	var duration float64
	if start, ok := s.txStart.LoadAndDelete(tx); ok {
		duration = time.Since(start.(time.Time)).Seconds()
	}

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		rbErr := tx.Rollback()
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return tx.Commit()
}

// Vacuum optimizes the database.
func (s *Store) Vacuum() error {
	done := observeQuery("vacuum")

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, "VACUUM")
	done(err)
	return err
}

// UpdateStats updates the cached library statistics.
func (s *Store) UpdateStats(stats metrics.Stats) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats = stats
}

// GetStats returns the cached library statistics. Implements
// metrics.StatsProvider for the collector.
func (s *Store) GetStats() metrics.Stats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	return s.stats
}

// CalculateStats counts current library totals across all projects.
func (s *Store) CalculateStats() (metrics.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats metrics.Stats

	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM projects", &stats.TotalProjects},
		{"SELECT COUNT(*) FROM folders", &stats.TotalFolders},
		{"SELECT COUNT(*) FROM media WHERE kind = 'photo'", &stats.TotalPhotos},
		{"SELECT COUNT(*) FROM media WHERE kind = 'video'", &stats.TotalVideos},
		{"SELECT COUNT(*) FROM tags", &stats.TotalTags},
	}

	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.dest); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// UpdateDBMetrics updates store connection metrics.
func (s *Store) UpdateDBMetrics() {
	stats := s.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// observeQuery returns a completion callback that records query metrics.
func observeQuery(operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
		metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
	}
}
