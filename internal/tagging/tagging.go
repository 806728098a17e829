// Package tagging manages user tags on indexed media.
//
// Tags live inside one project; assigning a tag to a path the scanner has
// not indexed yet backfills a minimal media record so the association is
// never lost, and a later scan fills in the metadata.
package tagging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-index/internal/logging"
	"media-index/internal/mediatypes"
	"media-index/internal/pathid"
	"media-index/internal/probe"
	"media-index/internal/resolver"
	"media-index/internal/store"
)

// Service exposes tag operations over a store.
type Service struct {
	store    *store.Store
	resolver *resolver.Resolver
}

// New builds a tag service over the given store.
func New(s *store.Store) *Service {
	return &Service{
		store:    s,
		resolver: resolver.New(s),
	}
}

// Assign attaches a tag to the media at path, creating the tag on first
// use. If the path is not indexed yet a minimal record is backfilled so the
// tag sticks; assigning an already-present tag is a no-op.
func (s *Service) Assign(ctx context.Context, projectID, path, tagName string) error {
	return s.AssignMany(ctx, projectID, []string{path}, tagName)
}

// AssignMany attaches one tag to each of the given paths in a single
// transaction. Either every association is written or none is.
func (s *Service) AssignMany(ctx context.Context, projectID string, paths []string, tagName string) error {
	if len(paths) == 0 {
		return nil
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return fmt.Errorf("assign tag in project %s: %w", projectID, err)
	}

	tx, err := s.store.BeginBatch()
	if err != nil {
		return err
	}

	err = s.assignInTx(tx, projectID, paths, tagName)
	if berr := s.store.EndBatch(tx, err); berr != nil {
		s.resolver.Flush()
		return berr
	}
	return nil
}

func (s *Service) assignInTx(tx *sql.Tx, projectID string, paths []string, tagName string) error {
	tagID, err := s.store.GetOrCreateTagTx(tx, projectID, tagName)
	if err != nil {
		return fmt.Errorf("resolve tag %q: %w", tagName, err)
	}

	for _, path := range paths {
		mediaID, err := s.store.MediaIDByKeyTx(tx, projectID, pathid.Key(path))
		if errors.Is(err, store.ErrNotFound) {
			mediaID, err = s.backfill(tx, projectID, path)
		}
		if err != nil {
			return fmt.Errorf("locate media %s: %w", path, err)
		}

		if err := s.store.AddMediaTagTx(tx, mediaID, tagID); err != nil {
			return fmt.Errorf("tag media %s: %w", path, err)
		}
	}
	return nil
}

// backfill inserts a minimal media record for a path that has not been
// scanned yet. The record is stored with a zero mtime so the next scan
// treats it as changed and extracts the real metadata.
func (s *Service) backfill(tx *sql.Tx, projectID, path string) (int64, error) {
	rec := store.MediaRecord{
		ProjectID: projectID,
		Path:      path,
		Name:      filepath.Base(path),
		Kind:      mediatypes.KindForExt(strings.ToLower(filepath.Ext(path))),
		ModTime:   time.Unix(0, 0),
		Status:    store.ExtractOK,
	}

	if info, err := os.Stat(path); err == nil {
		rec.Size = info.Size()
		if derived := probe.DeriveDates("", info.ModTime()); derived != nil {
			rec.CreatedTS = &derived.TS
			rec.CreatedDate = &derived.Date
			rec.CreatedYear = &derived.Year
		}
	} else {
		logging.Debug("Backfilling tag target %s without stat: %v", path, err)
	}

	folderID, err := s.resolver.Resolve(tx, projectID, filepath.Dir(path))
	if err != nil {
		return 0, err
	}
	rec.FolderID = folderID

	if err := s.store.UpsertMedia(tx, &rec); err != nil {
		return 0, err
	}

	return s.store.MediaIDByKeyTx(tx, projectID, rec.PathKey)
}

// Remove detaches a tag from the media at path. Removing a tag the media
// does not carry is a no-op.
func (s *Service) Remove(ctx context.Context, projectID, path, tagName string) error {
	return s.store.RemoveMediaTag(ctx, projectID, path, tagName)
}

// RemoveMany detaches one tag from each of the given paths. Paths that do
// not carry the tag are skipped.
func (s *Service) RemoveMany(ctx context.Context, projectID string, paths []string, tagName string) error {
	for _, path := range paths {
		if err := s.store.RemoveMediaTag(ctx, projectID, path, tagName); err != nil {
			return fmt.Errorf("untag media %s: %w", path, err)
		}
	}
	return nil
}

// TagsFor returns the tags of each requested path in one query. Paths
// without tags are absent from the result.
func (s *Service) TagsFor(ctx context.Context, projectID string, paths []string) (map[string][]string, error) {
	return s.store.TagsForPaths(ctx, projectID, paths)
}

// ProjectTags lists a project's tags with their media counts.
func (s *Service) ProjectTags(ctx context.Context, projectID string) ([]store.Tag, error) {
	return s.store.ProjectTags(ctx, projectID)
}

// MediaByTag pages through the media carrying a tag.
func (s *Service) MediaByTag(ctx context.Context, projectID, tagName string, page, pageSize int) (*store.MediaPage, error) {
	return s.store.MediaByTag(ctx, projectID, tagName, page, pageSize)
}

// DeleteTag removes a tag and all its associations within a project.
func (s *Service) DeleteTag(ctx context.Context, projectID, tagName string) error {
	return s.store.DeleteTag(ctx, projectID, tagName)
}
