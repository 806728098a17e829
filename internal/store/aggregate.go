package store

import (
	"context"
	"database/sql"
	"time"

	"media-index/internal/logging"
)

// FolderCounts computes, for every folder in a project, the number of media
// records in the folder itself and in its whole subtree. One recursive
// query covers the entire hierarchy; there is no per-folder round trip.
// Read-only.
func (s *Store) FolderCounts(ctx context.Context, projectID string) ([]FolderCount, error) {
	done := observeQuery("folder_counts")

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// The CTE pairs every folder with each of its descendants (including
	// itself); grouping by the ancestor then counts the subtree in one pass.
	rows, err := s.db.QueryContext(ctx, `
		WITH RECURSIVE subtree(root_id, folder_id) AS (
			SELECT id, id FROM folders WHERE project_id = ?
			UNION ALL
			SELECT st.root_id, f.id
			FROM folders f
			INNER JOIN subtree st ON f.parent_id = st.folder_id
		)
		SELECT fo.id, fo.path,
			SUM(CASE WHEN st.folder_id = st.root_id AND m.id IS NOT NULL THEN 1 ELSE 0 END) AS direct,
			COUNT(m.id) AS subtree_total
		FROM folders fo
		INNER JOIN subtree st ON st.root_id = fo.id
		LEFT JOIN media m ON m.folder_id = st.folder_id
		GROUP BY fo.id
		ORDER BY fo.path
	`, projectID)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var counts []FolderCount
	for rows.Next() {
		var fc FolderCount
		if err := rows.Scan(&fc.FolderID, &fc.Path, &fc.Direct, &fc.Subtree); err != nil {
			done(err)
			return nil, err
		}
		counts = append(counts, fc)
	}

	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return counts, nil
}

// DateCounts computes media counts per capture day for a project in a
// single grouped query, with month and year rollups derived from the day
// buckets. Media without derived date fields are excluded. Read-only.
func (s *Store) DateCounts(ctx context.Context, projectID string) (*DateCounts, error) {
	done := observeQuery("date_counts")

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT created_year, created_date, COUNT(*)
		FROM media
		WHERE project_id = ? AND created_date IS NOT NULL
		GROUP BY created_date
		ORDER BY created_date
	`, projectID)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	counts := &DateCounts{
		ByYear:  make(map[int]int),
		ByMonth: make(map[string]int),
		ByDay:   make(map[string]int),
	}

	for rows.Next() {
		var year sql.NullInt64
		var day string
		var n int
		if err := rows.Scan(&year, &day, &n); err != nil {
			done(err)
			return nil, err
		}

		counts.ByDay[day] = n
		if len(day) >= 7 {
			counts.ByMonth[day[:7]] += n
		}
		if year.Valid {
			counts.ByYear[int(year.Int64)] += n
		}
	}

	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return counts, nil
}
