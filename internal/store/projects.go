package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"media-index/internal/logging"
	"media-index/internal/metrics"
)

// CreateProject creates a new project with the given name.
// Project names are unique; a duplicate name returns ErrConflict.
func (s *Store) CreateProject(ctx context.Context, name string) (*Project, error) {
	done := observeQuery("create_project")

	name = strings.TrimSpace(name)
	if name == "" {
		err := errors.New("project name cannot be empty")
		done(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	p := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)",
		p.ID, p.Name, p.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("project %q: %w", name, ErrConflict)
		}
		done(err)
		return nil, err
	}

	logging.Info("Created project %q (%s)", p.Name, p.ID)
	done(nil)
	return p, nil
}

// GetProject retrieves a project by id.
func (s *Store) GetProject(ctx context.Context, projectID string) (*Project, error) {
	done := observeQuery("get_project")

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	p, err := scanProject(s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM projects WHERE id = ?", projectID))
	done(err)
	return p, err
}

// GetProjectByName retrieves a project by its unique name.
func (s *Store) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	done := observeQuery("get_project")

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	p, err := scanProject(s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM projects WHERE name = ?", name))
	done(err)
	return p, err
}

func scanProject(row *sql.Row) (*Project, error) {
	var p Project
	var createdAt int64

	err := row.Scan(&p.ID, &p.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.CreatedAt = time.Unix(createdAt, 0)
	return &p, nil
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	done := observeQuery("list_projects")

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM projects ORDER BY name")
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var projects []Project
	for rows.Next() {
		var p Project
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			done(err)
			return nil, err
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return projects, nil
}

// DeleteProject removes a project and, through foreign key cascades, every
// folder, media record, tag, and tag association it owns. Rows of other
// projects are untouched even when they index the same filesystem paths.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	done := observeQuery("delete_project")

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", projectID)
	if err != nil {
		done(err)
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		done(nil)
		return ErrNotFound
	}

	metrics.DBRowsAffected.WithLabelValues("delete_project").Observe(float64(affected))
	logging.Info("Deleted project %s", projectID)
	done(nil)
	return nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness conflict.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
