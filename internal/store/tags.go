package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"media-index/internal/logging"
	"media-index/internal/pathid"
)

// GetOrCreateTagTx finds or creates a tag by name within one project.
// Tag names are compared case-insensitively; (name, project) is unique, so
// the same name in two projects is two independent tags.
func (s *Store) GetOrCreateTagTx(tx *sql.Tx, projectID, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("tag name cannot be empty")
	}

	var id int64
	err := tx.QueryRowContext(context.Background(),
		"SELECT id FROM tags WHERE name = ? COLLATE NOCASE AND project_id = ?",
		name, projectID,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	result, err := tx.ExecContext(context.Background(),
		"INSERT INTO tags (project_id, name) VALUES (?, ?)",
		projectID, name,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create tag: %w", err)
	}

	return result.LastInsertId()
}

// MediaIDByKeyTx returns the media row id for a normalized path key within
// a project, or ErrNotFound.
func (s *Store) MediaIDByKeyTx(tx *sql.Tx, projectID, key string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(context.Background(),
		"SELECT id FROM media WHERE path_key = ? AND project_id = ?",
		key, projectID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

// AddMediaTagTx associates a tag with a media row. Adding an existing
// association is a no-op.
func (s *Store) AddMediaTagTx(tx *sql.Tx, mediaID, tagID int64) error {
	_, err := tx.ExecContext(context.Background(),
		"INSERT OR IGNORE INTO media_tags (media_id, tag_id) VALUES (?, ?)",
		mediaID, tagID,
	)
	return err
}

// RemoveMediaTag removes a tag from a media path within a project.
// Removing a tag that is not assigned is a no-op.
func (s *Store) RemoveMediaTag(ctx context.Context, projectID, path, tagName string) error {
	done := observeQuery("remove_tag")

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM media_tags
		WHERE media_id = (SELECT id FROM media WHERE path_key = ? AND project_id = ?)
		  AND tag_id = (SELECT id FROM tags WHERE name = ? COLLATE NOCASE AND project_id = ?)
	`, pathid.Key(path), projectID, tagName, projectID)

	done(err)
	return err
}

// TagsForPaths returns the tags assigned to each of the requested paths in
// one filtered query. Paths with no tags are absent from the result. The
// cost scales with the request, not with the project's total media count.
func (s *Store) TagsForPaths(ctx context.Context, projectID string, paths []string) (map[string][]string, error) {
	done := observeQuery("tags_for")

	result := make(map[string][]string)
	if len(paths) == 0 {
		done(nil)
		return result, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Map normalized keys back to the paths the caller asked with.
	keyToPath := make(map[string]string, len(paths))
	placeholders := make([]string, 0, len(paths))
	args := []interface{}{projectID}
	for _, p := range paths {
		key := pathid.Key(p)
		if _, seen := keyToPath[key]; seen {
			continue
		}
		keyToPath[key] = p
		placeholders = append(placeholders, "?")
		args = append(args, key)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.path_key, t.name
		FROM media m
		INNER JOIN media_tags mt ON mt.media_id = m.id
		INNER JOIN tags t ON t.id = mt.tag_id
		WHERE m.project_id = ? AND m.path_key IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY t.name COLLATE NOCASE
	`, args...)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	for rows.Next() {
		var key, tagName string
		if err := rows.Scan(&key, &tagName); err != nil {
			done(err)
			return nil, err
		}
		if p, ok := keyToPath[key]; ok {
			result[p] = append(result[p], tagName)
		}
	}

	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return result, nil
}

// ProjectTags returns all tags of a project with item counts.
func (s *Store) ProjectTags(ctx context.Context, projectID string) ([]Tag, error) {
	done := observeQuery("project_tags")

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.project_id, t.name, t.created_at, COUNT(mt.id) AS item_count
		FROM tags t
		LEFT JOIN media_tags mt ON t.id = mt.tag_id
		WHERE t.project_id = ?
		GROUP BY t.id
		ORDER BY t.name COLLATE NOCASE
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

	var tags []Tag
	for rows.Next() {
		var tag Tag
		var createdAt int64
		if err := rows.Scan(&tag.ID, &tag.ProjectID, &tag.Name, &createdAt, &tag.ItemCount); err != nil {
			done(err)
			return nil, err
		}
		tag.CreatedAt = time.Unix(createdAt, 0)
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return tags, nil
}

// MediaByTag returns one page of media carrying the named tag in a project.
func (s *Store) MediaByTag(ctx context.Context, projectID, tagName string, page, pageSize int) (*MediaPage, error) {
	done := observeQuery("media_by_tag")

	page, pageSize = clampPage(page, pageSize)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var totalItems int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM media_tags mt
		INNER JOIN tags t ON mt.tag_id = t.id
		WHERE t.name = ? COLLATE NOCASE AND t.project_id = ?
	`, tagName, projectID).Scan(&totalItems)
	if err != nil {
		done(err)
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixColumns("m")+`
		FROM media m
		INNER JOIN media_tags mt ON m.id = mt.media_id
		INNER JOIN tags t ON mt.tag_id = t.id
		WHERE t.name = ? COLLATE NOCASE AND t.project_id = ?
		ORDER BY m.name COLLATE NOCASE
		LIMIT ? OFFSET ?
	`, tagName, projectID, pageSize, (page-1)*pageSize)
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

// DeleteTag removes a tag from a project along with all its associations.
func (s *Store) DeleteTag(ctx context.Context, projectID, tagName string) error {
	done := observeQuery("delete_tag")

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM tags WHERE name = ? COLLATE NOCASE AND project_id = ?",
		tagName, projectID,
	)
	if err != nil {
		done(err)
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		done(nil)
		return ErrNotFound
	}

	done(nil)
	return nil
}
