package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"media-index/internal/logging"
	"media-index/internal/mediatypes"
	"media-index/internal/metrics"
	"media-index/internal/pathid"
)

const mediaColumns = `id, project_id, folder_id, path, path_key, name, kind, size, mod_time,
	width, height, duration_secs, codec, bitrate_bps, capture_date,
	created_ts, created_date, created_year, extract_status, extract_error`

// UpsertMedia inserts or updates one media record within a transaction,
// keyed by (path_key, project_id). Updating an existing record preserves
// its row id, so tag associations survive a re-scan.
func (s *Store) UpsertMedia(tx *sql.Tx, rec *MediaRecord) error {
	if rec.PathKey == "" {
		rec.PathKey = pathid.Key(rec.Path)
	}

	query := `
	INSERT INTO media (project_id, folder_id, path, path_key, name, kind, size, mod_time,
		width, height, duration_secs, codec, bitrate_bps, capture_date,
		created_ts, created_date, created_year, extract_status, extract_error, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(path_key, project_id) DO UPDATE SET
		folder_id = excluded.folder_id,
		path = excluded.path,
		name = excluded.name,
		kind = excluded.kind,
		size = excluded.size,
		mod_time = excluded.mod_time,
		width = excluded.width,
		height = excluded.height,
		duration_secs = excluded.duration_secs,
		codec = excluded.codec,
		bitrate_bps = excluded.bitrate_bps,
		capture_date = excluded.capture_date,
		created_ts = excluded.created_ts,
		created_date = excluded.created_date,
		created_year = excluded.created_year,
		extract_status = excluded.extract_status,
		extract_error = excluded.extract_error,
		updated_at = strftime('%s', 'now')
	`

	_, err := tx.ExecContext(context.Background(), query,
		rec.ProjectID,
		rec.FolderID,
		rec.Path,
		rec.PathKey,
		rec.Name,
		string(rec.Kind),
		rec.Size,
		rec.ModTime.Unix(),
		nullableInt(rec.Width),
		nullableInt(rec.Height),
		nullableFloat(rec.DurationSecs),
		nullableString(rec.Codec),
		nullableInt64(rec.BitrateBps),
		nullableString(rec.CaptureDate),
		rec.CreatedTS,
		rec.CreatedDate,
		rec.CreatedYear,
		string(rec.Status),
		nullableString(rec.ExtractError),
	)
	return err
}

// BulkUpsertMedia inserts or updates a batch of media records in a single
// transaction. Every record must belong to projectID; a mixed batch is
// rejected with ErrInvalidProjectScope before any row is written.
func (s *Store) BulkUpsertMedia(ctx context.Context, projectID string, records []MediaRecord) error {
	done := observeQuery("bulk_upsert_media")

	for i := range records {
		if records[i].ProjectID != projectID {
			err := fmt.Errorf("%w: record %s belongs to project %s, batch is for %s",
				ErrInvalidProjectScope, records[i].Path, records[i].ProjectID, projectID)
			done(err)
			return err
		}
	}

	if len(records) == 0 {
		done(nil)
		return nil
	}

	tx, err := s.BeginBatch()
	if err != nil {
		done(err)
		return err
	}

	for i := range records {
		if err := s.UpsertMedia(tx, &records[i]); err != nil {
			err = fmt.Errorf("upsert %s: %w", records[i].Path, err)
			done(err)
			return s.EndBatch(tx, err)
		}
	}

	if err := s.EndBatch(tx, nil); err != nil {
		done(err)
		return err
	}

	metrics.DBRowsAffected.WithLabelValues("bulk_upsert_media").Observe(float64(len(records)))
	done(nil)
	return nil
}

// MediaIndex loads the (path_key -> size, mtime) index for a project. The
// scan diff compares against this to skip unchanged files entirely.
func (s *Store) MediaIndex(ctx context.Context, projectID string) (map[string]FileStat, error) {
	done := observeQuery("media_index")

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT path_key, size, mod_time FROM media WHERE project_id = ?", projectID)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	index := make(map[string]FileStat)
	for rows.Next() {
		var key string
		var size, modTime int64
		if err := rows.Scan(&key, &size, &modTime); err != nil {
			done(err)
			return nil, err
		}
		index[key] = FileStat{Size: size, ModTime: time.Unix(modTime, 0)}
	}

	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return index, nil
}

// MediaByPath retrieves a single media record by path within a project.
func (s *Store) MediaByPath(ctx context.Context, projectID, path string) (*MediaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := "SELECT " + mediaColumns + " FROM media WHERE path_key = ? AND project_id = ?"

	rows, err := s.db.QueryContext(ctx, query, pathid.Key(path), projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	rec, err := scanMediaRecord(rows)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// MediaByFolder returns one page of media records for a folder, optionally
// including all descendant folders via a single recursive query. A folder
// id owned by a different project yields ErrNotFound.
func (s *Store) MediaByFolder(ctx context.Context, folderID int64, projectID string, recursive bool, page, pageSize int) (*MediaPage, error) {
	done := observeQuery("media_by_folder")

	page, pageSize = clampPage(page, pageSize)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Ownership check first so a mismatched project is indistinguishable
	// from a missing folder.
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM folders WHERE id = ? AND project_id = ?",
		folderID, projectID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, ErrNotFound
	}
	if err != nil {
		done(err)
		return nil, err
	}

	folderFilter := "m.folder_id = ?"
	if recursive {
		folderFilter = `m.folder_id IN (
			WITH RECURSIVE subtree(id) AS (
				SELECT id FROM folders WHERE id = ? AND project_id = ?
				UNION ALL
				SELECT f.id FROM folders f INNER JOIN subtree s ON f.parent_id = s.id
			)
			SELECT id FROM subtree
		)`
	}

	countArgs := []interface{}{folderID}
	if recursive {
		countArgs = []interface{}{folderID, projectID}
	}
	countArgs = append(countArgs, projectID)

	var totalItems int
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM media m WHERE "+folderFilter+" AND m.project_id = ?",
		countArgs...,
	).Scan(&totalItems)
	if err != nil {
		done(err)
		return nil, err
	}

	listArgs := append(countArgs, pageSize, (page-1)*pageSize)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixColumns("m")+`
		FROM media m
		WHERE `+folderFilter+` AND m.project_id = ?
		ORDER BY m.name COLLATE NOCASE
		LIMIT ? OFFSET ?
	`, listArgs...)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	items, err := collectMediaRecords(rows)
	if err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return newMediaPage(items, totalItems, page, pageSize), nil
}

// MediaByDateRange returns one page of media whose derived creation
// timestamp falls within [from, to).
func (s *Store) MediaByDateRange(ctx context.Context, projectID string, from, to time.Time, page, pageSize int) (*MediaPage, error) {
	done := observeQuery("media_by_date")

	page, pageSize = clampPage(page, pageSize)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var totalItems int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM media
		WHERE project_id = ? AND created_ts >= ? AND created_ts < ?
	`, projectID, from.Unix(), to.Unix()).Scan(&totalItems)
	if err != nil {
		done(err)
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mediaColumns+`
		FROM media
		WHERE project_id = ? AND created_ts >= ? AND created_ts < ?
		ORDER BY created_ts
		LIMIT ? OFFSET ?
	`, projectID, from.Unix(), to.Unix(), pageSize, (page-1)*pageSize)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	items, err := collectMediaRecords(rows)
	if err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return newMediaPage(items, totalItems, page, pageSize), nil
}

// ReconcileMissing removes media rows of a project under the given roots
// whose path keys are not in seenKeys, the complete set a scan found on
// disk. Called after a full scan so files deleted from disk leave the
// index. Must run within a transaction.
func (s *Store) ReconcileMissing(tx *sql.Tx, projectID string, roots []string, seenKeys []string) (int64, error) {
	if len(roots) == 0 {
		return 0, nil
	}

	ctx := context.Background()

	// The seen set can exceed any sane placeholder limit, so it is staged
	// into a temp table instead of inlined into the DELETE.
	if _, err := tx.ExecContext(ctx, "CREATE TEMP TABLE scan_seen (path_key TEXT PRIMARY KEY) WITHOUT ROWID"); err != nil {
		return 0, err
	}
	defer func() {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS temp.scan_seen"); err != nil {
			logging.Warn("Error dropping scan_seen temp table: %v", err)
		}
	}()

	const chunk = 400
	for len(seenKeys) > 0 {
		n := len(seenKeys)
		if n > chunk {
			n = chunk
		}

		placeholders := strings.TrimSuffix(strings.Repeat("(?),", n), ",")
		args := make([]interface{}, 0, n)
		for _, key := range seenKeys[:n] {
			args = append(args, key)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO temp.scan_seen (path_key) VALUES "+placeholders, args...); err != nil {
			return 0, err
		}
		seenKeys = seenKeys[n:]
	}

	var conds []string
	args := []interface{}{projectID}
	for _, root := range roots {
		key := pathid.Key(root)
		conds = append(conds, "(path_key = ? OR path_key LIKE ? ESCAPE '\\')")
		args = append(args, key, likePrefix(key)+"/%")
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM media WHERE project_id = ? AND ("+strings.Join(conds, " OR ")+
			") AND path_key NOT IN (SELECT path_key FROM temp.scan_seen)",
		args...,
	)
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err == nil && affected > 0 {
		metrics.DBRowsAffected.WithLabelValues("reconcile_media").Observe(float64(affected))
	}
	return affected, err
}

// likePrefix escapes LIKE metacharacters in a literal prefix.
func likePrefix(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

func newMediaPage(items []MediaRecord, totalItems, page, pageSize int) *MediaPage {
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	return &MediaPage{
		Items:      items,
		TotalItems: totalItems,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

func prefixColumns(alias string) string {
	cols := strings.Split(mediaColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// rowScanner covers *sql.Rows for the media record scan helper.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMediaRecord(row rowScanner) (*MediaRecord, error) {
	var rec MediaRecord
	var modTime int64
	var kind, status string
	var width, height sql.NullInt64
	var duration sql.NullFloat64
	var codec, captureDate, extractError sql.NullString
	var bitrate sql.NullInt64
	var createdTS sql.NullInt64
	var createdDate sql.NullString
	var createdYear sql.NullInt64

	err := row.Scan(
		&rec.ID, &rec.ProjectID, &rec.FolderID, &rec.Path, &rec.PathKey, &rec.Name,
		&kind, &rec.Size, &modTime,
		&width, &height, &duration, &codec, &bitrate, &captureDate,
		&createdTS, &createdDate, &createdYear, &status, &extractError,
	)
	if err != nil {
		return nil, err
	}

	rec.Kind = mediatypes.Kind(kind)
	rec.Status = ExtractStatus(status)
	rec.ModTime = time.Unix(modTime, 0)
	rec.Width = int(width.Int64)
	rec.Height = int(height.Int64)
	rec.DurationSecs = duration.Float64
	rec.Codec = codec.String
	rec.BitrateBps = bitrate.Int64
	rec.CaptureDate = captureDate.String
	rec.ExtractError = extractError.String

	if createdTS.Valid {
		ts := createdTS.Int64
		rec.CreatedTS = &ts
	}
	if createdDate.Valid {
		d := createdDate.String
		rec.CreatedDate = &d
	}
	if createdYear.Valid {
		y := int(createdYear.Int64)
		rec.CreatedYear = &y
	}

	return &rec, nil
}

func collectMediaRecords(rows *sql.Rows) ([]MediaRecord, error) {
	var items []MediaRecord
	for rows.Next() {
		rec, err := scanMediaRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	return items, rows.Err()
}

func nullableInt(v int) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullableInt64(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullableFloat(v float64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
