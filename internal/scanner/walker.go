package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"media-index/internal/filesystem"
	"media-index/internal/logging"
	"media-index/internal/mediatypes"
)

// candidate is one file discovered under a scan root.
type candidate struct {
	path    string
	root    string
	size    int64
	modTime time.Time
	kind    mediatypes.Kind
}

// walkRoots enumerates supported media files under the given roots and
// passes each to emit. The tree is streamed entry by entry; nothing but the
// current directory listing is held in memory. Unreadable entries are
// logged and skipped so one bad directory never aborts discovery; an
// unreadable root aborts it, since later reconciliation would otherwise
// treat the whole root as deleted.
func walkRoots(ctx context.Context, roots []string, emit func(candidate) error) error {
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fs.SkipAll
			}

			if err != nil {
				if path == root {
					// A root that cannot be walked must fail the scan: treating
					// an unmounted volume as empty would reconcile away every
					// row under it.
					return fmt.Errorf("scan root %s is not accessible: %w", root, err)
				}
				logging.Warn("Error accessing path %s: %v", path, err)
				return nil
			}

			if strings.HasPrefix(d.Name(), ".") && path != root {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(d.Name()))
			kind := mediatypes.KindForExt(ext)
			if kind == mediatypes.KindOther {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				// Stale dirents happen on NFS mounts; retry with a fresh stat
				// before giving up on the file.
				info, err = filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
				if err != nil {
					logging.Warn("Error getting info for %s: %v", path, err)
					return nil
				}
			}

			return emit(candidate{
				path:    path,
				root:    root,
				size:    info.Size(),
				modTime: info.ModTime(),
				kind:    kind,
			})
		})
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}
