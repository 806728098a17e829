package resolver

import (
	"database/sql"
	"errors"
	"sync"

	"media-index/internal/pathid"
	"media-index/internal/store"
)

// ErrEmptyPath is returned when a directory path has no components.
var ErrEmptyPath = errors.New("cannot resolve an empty directory path")

// Resolver finds or creates the folder chain for a directory within one
// project. It keeps a per-instance cache of resolved folder ids; use one
// Resolver per scan (or per service) and Flush it if a transaction it
// resolved into is rolled back.
type Resolver struct {
	store *store.Store

	mu    sync.Mutex
	cache map[string]int64 // project + "\x00" + path key -> folder id
}

// New creates a Resolver backed by the given store.
func New(s *store.Store) *Resolver {
	return &Resolver{
		store: s,
		cache: make(map[string]int64),
	}
}

// Resolve returns the folder id for dirPath within projectID, creating any
// missing folders inside the given transaction. The top-level component
// becomes a root (nil parent) only when no ancestor exists under any
// casing.
func (r *Resolver) Resolve(tx *sql.Tx, projectID, dirPath string) (int64, error) {
	components := pathid.Components(dirPath)
	if len(components) == 0 {
		return 0, ErrEmptyPath
	}

	// Cumulative display paths for each depth: /a, /a/b, /a/b/c.
	paths := make([]string, len(components))
	for i, comp := range components {
		if i == 0 {
			paths[i] = comp
		} else {
			paths[i] = pathid.Join(paths[i-1], comp)
		}
	}

	// Find the longest existing ancestor by normalized key.
	deepest := -1
	var deepestID int64
	for i := len(paths) - 1; i >= 0; i-- {
		key := pathid.Key(paths[i])

		if id, ok := r.lookupCache(projectID, key); ok {
			deepest, deepestID = i, id
			break
		}

		folder, err := r.store.FolderByKeyTx(tx, projectID, key)
		if err == nil {
			r.storeCache(projectID, key, folder.ID)
			deepest, deepestID = i, folder.ID
			break
		}
		if !errors.Is(err, store.ErrNotFound) {
			return 0, err
		}
	}

	if deepest == len(paths)-1 {
		return deepestID, nil
	}

	// Create the missing chain downward, linking each folder to its parent.
	var parentID *int64
	if deepest >= 0 {
		parentID = &deepestID
	}

	var id int64
	for i := deepest + 1; i < len(paths); i++ {
		name := pathid.DisplayName(paths[i])
		if name == "" {
			name = paths[i] // bare root like "/" or "C:"
		}

		var err error
		id, err = r.store.UpsertFolder(tx, projectID, paths[i], name, parentID)
		if err != nil {
			return 0, err
		}

		r.storeCache(projectID, pathid.Key(paths[i]), id)
		parent := id
		parentID = &parent
	}

	return id, nil
}

// Flush drops the resolution cache. Call after rolling back a transaction
// that Resolve created folders in.
func (r *Resolver) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]int64)
}

func (r *Resolver) lookupCache(projectID, key string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.cache[projectID+"\x00"+key]
	return id, ok
}

func (r *Resolver) storeCache(projectID, key string, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[projectID+"\x00"+key] = id
}
