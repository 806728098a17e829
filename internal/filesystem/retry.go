// Package filesystem hardens stat and open calls against NFS stale file
// handles, which show up mid-scan when a media export is refreshed on the
// server while the walker is reading it.
package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"media-index/internal/logging"
	"media-index/internal/metrics"
)

// VolumeResolver labels paths with the volume they live on so retry metrics
// can tell a flaky media mount from a flaky database volume. Longest
// configured prefix wins.
type VolumeResolver struct {
	mounts []volumeMount // sorted longest prefix first
}

type volumeMount struct {
	path string // absolute, trailing slash
	name string
}

// NewVolumeResolver builds a resolver from volume name → mount path.
// main wires one up from the scan roots and the database directory.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if !strings.HasSuffix(abs, "/") {
			abs += "/"
		}
		mounts = append(mounts, volumeMount{path: abs, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume label for path, or "unknown". Nil-safe so
// callers before SetDefaultVolumeResolver still get labeled metrics.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	// Compare with a trailing slash so /media never matches /media-archive,
	// while the mount directory itself still matches.
	for _, m := range vr.mounts {
		if strings.HasPrefix(abs+"/", m.path) || strings.HasPrefix(abs, m.path) {
			return m.name
		}
	}
	return "unknown"
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver installs the package-level resolver. Call once at
// startup after configuration is loaded.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig bounds the retry loop for one operation.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package default for this operation.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig retries three times with backoff from 50ms to 500ms,
// which rides out the usual attribute-cache window after a server-side
// rename without stalling the walk noticeably.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isNFSStaleError reports whether err is ESTALE. Everything else fails
// straight through: retrying a genuine "not found" only slows the scan.
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// withRetry runs attempt until it succeeds, hits a non-stale error, or
// exhausts the retry budget, recording per-volume metrics either way.
func withRetry(op, path string, config RetryConfig, attempt func() error) error {
	start := time.Now()
	volume := config.resolveVolume(path)
	backoff := config.InitialBackoff

	defer func() {
		metrics.FilesystemRetryDuration.WithLabelValues(op, volume).Observe(time.Since(start).Seconds())
	}()

	var err error
	for try := 0; ; try++ {
		err = attempt()
		if err == nil {
			if try > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, try, path)
				metrics.FilesystemRetrySuccess.WithLabelValues(op, volume).Inc()
			}
			return nil
		}

		if !isNFSStaleError(err) {
			return err
		}
		metrics.FilesystemStaleErrors.WithLabelValues(op, volume).Inc()

		if try == config.MaxRetries {
			logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, err)
			metrics.FilesystemRetryFailures.WithLabelValues(op, volume).Inc()
			return err
		}

		metrics.FilesystemRetryAttempts.WithLabelValues(op, volume).Inc()
		logging.Debug("NFS %s stale handle for %s, retrying in %v (attempt %d/%d)",
			op, path, backoff, try+1, config.MaxRetries)
		time.Sleep(backoff)

		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}
}

// StatWithRetry is os.Stat with the stale-handle retry loop. The walker uses
// it when a dirent's cached info has gone stale mid-walk.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := withRetry("stat", path, config, func() error {
		var statErr error
		info, statErr = os.Stat(path)
		return statErr
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// OpenWithRetry is os.Open with the stale-handle retry loop. The image
// prober opens every candidate file through it.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	var file *os.File
	err := withRetry("open", path, config, func() error {
		var openErr error
		file, openErr = os.Open(path)
		return openErr
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}
