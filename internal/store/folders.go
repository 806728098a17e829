package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"media-index/internal/logging"
	"media-index/internal/pathid"
)

// UpsertFolder finds or creates a folder row for (path, projectID) within a
// transaction. The lookup is by normalized path key, so the same directory
// encountered under different casing returns the existing row; in that case
// the stored display path and parent are left as first seen.
func (s *Store) UpsertFolder(tx *sql.Tx, projectID, path, name string, parentID *int64) (int64, error) {
	done := observeQuery("upsert_folder")

	key := pathid.Key(path)

	var id int64
	err := tx.QueryRowContext(context.Background(),
		"SELECT id FROM folders WHERE path_key = ? AND project_id = ?",
		key, projectID,
	).Scan(&id)
	if err == nil {
		done(nil)
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		done(err)
		return 0, err
	}

	result, err := tx.ExecContext(context.Background(),
		"INSERT INTO folders (project_id, path, path_key, name, parent_id) VALUES (?, ?, ?, ?, ?)",
		projectID, path, key, name, parentID,
	)
	if err != nil {
		// A concurrent writer may have inserted the same key; resolve the
		// conflict as a lookup, never as a duplicate.
		if isUniqueViolation(err) {
			selErr := tx.QueryRowContext(context.Background(),
				"SELECT id FROM folders WHERE path_key = ? AND project_id = ?",
				key, projectID,
			).Scan(&id)
			done(selErr)
			return id, selErr
		}
		done(err)
		return 0, err
	}

	id, err = result.LastInsertId()
	done(err)
	return id, err
}

// FolderByKey retrieves a folder by normalized path key within a project.
func (s *Store) FolderByKey(ctx context.Context, projectID, key string) (*Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return scanFolder(s.db.QueryRowContext(ctx, `
		SELECT id, project_id, path, path_key, name, parent_id, created_at
		FROM folders WHERE path_key = ? AND project_id = ?
	`, key, projectID))
}

// FolderByKeyTx is FolderByKey inside an open transaction.
func (s *Store) FolderByKeyTx(tx *sql.Tx, projectID, key string) (*Folder, error) {
	return scanFolder(tx.QueryRowContext(context.Background(), `
		SELECT id, project_id, path, path_key, name, parent_id, created_at
		FROM folders WHERE path_key = ? AND project_id = ?
	`, key, projectID))
}

// FolderByID retrieves a folder by id. A mismatched project yields
// ErrNotFound, never a row owned by another project.
func (s *Store) FolderByID(ctx context.Context, folderID int64, projectID string) (*Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return scanFolder(s.db.QueryRowContext(ctx, `
		SELECT id, project_id, path, path_key, name, parent_id, created_at
		FROM folders WHERE id = ? AND project_id = ?
	`, folderID, projectID))
}

func scanFolder(row *sql.Row) (*Folder, error) {
	var f Folder
	var parentID sql.NullInt64
	var createdAt int64

	err := row.Scan(&f.ID, &f.ProjectID, &f.Path, &f.PathKey, &f.Name, &parentID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		f.ParentID = &parentID.Int64
	}
	f.CreatedAt = time.Unix(createdAt, 0)
	return &f, nil
}

// FolderTree returns all folders of a project ordered so parents precede
// children (by path key).
func (s *Store) FolderTree(ctx context.Context, projectID string) ([]Folder, error) {
	done := observeQuery("folder_tree")

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, path, path_key, name, parent_id, created_at
		FROM folders
		WHERE project_id = ?
		ORDER BY path_key
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

	var folders []Folder
	for rows.Next() {
		var f Folder
		var parentID sql.NullInt64
		var createdAt int64

		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Path, &f.PathKey, &f.Name, &parentID, &createdAt); err != nil {
			done(err)
			return nil, err
		}
		if parentID.Valid {
			f.ParentID = &parentID.Int64
		}
		f.CreatedAt = time.Unix(createdAt, 0)
		folders = append(folders, f)
	}

	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return folders, nil
}
