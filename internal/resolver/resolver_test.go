package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"media-index/internal/pathid"
	"media-index/internal/store"
)

func setupResolverTest(t *testing.T) (*Resolver, *store.Store, string) {
	t.Helper()

	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})

	project, err := s.CreateProject(context.Background(), "resolver-test")
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	return New(s), s, project.ID
}

func resolveInBatch(t *testing.T, r *Resolver, s *store.Store, projectID, dir string) int64 {
	t.Helper()

	tx, err := s.BeginBatch()
	if err != nil {
		t.Fatalf("Failed to begin batch: %v", err)
	}
	id, err := r.Resolve(tx, projectID, dir)
	if err != nil {
		t.Fatalf("Resolve %s failed: %v", dir, err)
	}
	if err := s.EndBatch(tx, nil); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	return id
}

func TestResolveCreatesChain(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	r, s, projectID := setupResolverTest(t)
	ctx := context.Background()

	leafID := resolveInBatch(t, r, s, projectID, "/photos/2024/trip")

	folders, err := s.FolderTree(ctx, projectID)
	if err != nil {
		t.Fatalf("FolderTree failed: %v", err)
	}
	if len(folders) != 3 {
		t.Fatalf("Expected 3 folders in chain, got %d", len(folders))
	}

	byKey := make(map[string]store.Folder)
	for _, f := range folders {
		byKey[f.PathKey] = f
	}

	root := byKey[pathid.Key("/photos")]
	if root.ParentID != nil {
		t.Errorf("Chain top must have nil parent, got %v", root.ParentID)
	}
	mid := byKey[pathid.Key("/photos/2024")]
	if mid.ParentID == nil || *mid.ParentID != root.ID {
		t.Errorf("Expected middle parent %d, got %v", root.ID, mid.ParentID)
	}
	leaf := byKey[pathid.Key("/photos/2024/trip")]
	if leaf.ID != leafID {
		t.Errorf("Resolve returned %d, tree has %d", leafID, leaf.ID)
	}
	if leaf.ParentID == nil || *leaf.ParentID != mid.ID {
		t.Errorf("Expected leaf parent %d, got %v", mid.ID, leaf.ParentID)
	}
}

func TestResolveReusesExistingAncestors(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	r, s, projectID := setupResolverTest(t)
	ctx := context.Background()

	first := resolveInBatch(t, r, s, projectID, "/photos/2024/trip")
	again := resolveInBatch(t, r, s, projectID, "/photos/2024/trip")
	if first != again {
		t.Errorf("Repeated resolve must return the same id, got %d then %d", first, again)
	}

	// A sibling only adds one folder under the shared ancestor.
	resolveInBatch(t, r, s, projectID, "/photos/2024/other")

	folders, err := s.FolderTree(ctx, projectID)
	if err != nil {
		t.Fatalf("FolderTree failed: %v", err)
	}
	if len(folders) != 4 {
		t.Errorf("Expected 4 folders after sibling resolve, got %d", len(folders))
	}
}

func TestResolveFoldsEquivalentCasing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	prev := pathid.CaseFold()
	pathid.SetCaseFold(true)
	t.Cleanup(func() { pathid.SetCaseFold(prev) })

	r, s, projectID := setupResolverTest(t)
	ctx := context.Background()

	first := resolveInBatch(t, r, s, projectID, "/Photos/Trip")
	second := resolveInBatch(t, r, s, projectID, "/photos/trip")
	if first != second {
		t.Errorf("Case variants must resolve to one folder, got %d and %d", first, second)
	}

	folders, err := s.FolderTree(ctx, projectID)
	if err != nil {
		t.Fatalf("FolderTree failed: %v", err)
	}
	if len(folders) != 2 {
		t.Errorf("Expected 2 folders, got %d", len(folders))
	}
	// First-seen casing remains the display form.
	for _, f := range folders {
		if f.PathKey == pathid.Key("/photos/trip") && f.Name != "Trip" {
			t.Errorf("Expected first-seen display name Trip, got %s", f.Name)
		}
	}
}

func TestResolveIsProjectScoped(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	r, s, projectID := setupResolverTest(t)

	other, err := s.CreateProject(context.Background(), "second")
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	a := resolveInBatch(t, r, s, projectID, "/photos")
	b := resolveInBatch(t, r, s, other.ID, "/photos")
	if a == b {
		t.Error("Same path in two projects must be two folder rows")
	}
}

func TestResolveRejectsEmptyPath(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	r, s, projectID := setupResolverTest(t)

	tx, err := s.BeginBatch()
	if err != nil {
		t.Fatalf("Failed to begin batch: %v", err)
	}
	_, rerr := r.Resolve(tx, projectID, "")
	if endErr := s.EndBatch(tx, rerr); endErr == nil {
		t.Fatal("Expected batch to fail")
	}
	if !errors.Is(rerr, ErrEmptyPath) {
		t.Errorf("Expected ErrEmptyPath, got %v", rerr)
	}
}

func TestFlushDropsStaleCache(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	r, s, projectID := setupResolverTest(t)

	// Resolve inside a transaction that rolls back, then flush. The next
	// resolve must rebuild the chain instead of trusting dead ids.
	tx, err := s.BeginBatch()
	if err != nil {
		t.Fatalf("Failed to begin batch: %v", err)
	}
	if _, err := r.Resolve(tx, projectID, "/photos/2024"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	forced := errors.New("forced rollback")
	if err := s.EndBatch(tx, forced); !errors.Is(err, forced) {
		t.Fatalf("Expected forced error, got %v", err)
	}
	r.Flush()

	id := resolveInBatch(t, r, s, projectID, "/photos/2024")

	folder, err := s.FolderByID(context.Background(), id, projectID)
	if err != nil {
		t.Fatalf("Folder from fresh resolve must exist: %v", err)
	}
	if folder.PathKey != pathid.Key("/photos/2024") {
		t.Errorf("Unexpected folder %s", folder.Path)
	}
}
