package store

import (
	"time"

	"media-index/internal/mediatypes"
)

// ExtractStatus records the outcome of metadata extraction for a media row.
type ExtractStatus string

const (
	// ExtractOK means metadata was extracted successfully.
	ExtractOK ExtractStatus = "ok"
	// ExtractFailed means the extractor returned an error for the file.
	ExtractFailed ExtractStatus = "failed"
	// ExtractTimeout means the extraction call exceeded its per-file timeout.
	ExtractTimeout ExtractStatus = "timeout"
)

// Project is the isolation boundary for all indexed data.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Folder is one directory node in a project-scoped hierarchy.
// A folder with a nil parent is a scan root.
type Folder struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"projectId"`
	Path      string    `json:"path"`
	PathKey   string    `json:"-"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MediaRecord is one indexed photo or video file within one project.
//
// The three derived date fields are computed once at index time from the
// raw capture date (or the filesystem modification time when no capture
// date is available) so date-range queries never parse strings at runtime.
// They are nil when the raw capture date could not be converted.
type MediaRecord struct {
	ID           int64           `json:"id"`
	ProjectID    string          `json:"projectId"`
	FolderID     int64           `json:"folderId"`
	Path         string          `json:"path"`
	PathKey      string          `json:"-"`
	Name         string          `json:"name"`
	Kind         mediatypes.Kind `json:"kind"`
	Size         int64           `json:"size"`
	ModTime      time.Time       `json:"modTime"`
	Width        int             `json:"width,omitempty"`
	Height       int             `json:"height,omitempty"`
	DurationSecs float64         `json:"durationSecs,omitempty"`
	Codec        string          `json:"codec,omitempty"`
	BitrateBps   int64           `json:"bitrateBps,omitempty"`
	CaptureDate  string          `json:"captureDate,omitempty"`
	CreatedTS    *int64          `json:"createdTs,omitempty"`
	CreatedDate  *string         `json:"createdDate,omitempty"`
	CreatedYear  *int            `json:"createdYear,omitempty"`
	Status       ExtractStatus   `json:"extractStatus"`
	ExtractError string          `json:"extractError,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
}

// Tag is a name scoped to one project. The same name in two projects is two
// independent entities.
type Tag struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	ItemCount int       `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// FileStat is the (size, mtime) pair the scan diff compares against.
type FileStat struct {
	Size    int64
	ModTime time.Time
}

// MediaPage is one page of a media listing.
type MediaPage struct {
	Items      []MediaRecord `json:"items"`
	TotalItems int           `json:"totalItems"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// FolderCount holds aggregate media counts for one folder.
type FolderCount struct {
	FolderID int64  `json:"folderId"`
	Path     string `json:"path"`
	Direct   int    `json:"direct"`
	Subtree  int    `json:"subtree"`
}

// DateCounts holds media counts bucketed by capture day, with month and
// year rollups.
type DateCounts struct {
	ByYear  map[int]int    `json:"byYear"`
	ByMonth map[string]int `json:"byMonth"` // "2006-01"
	ByDay   map[string]int `json:"byDay"`   // "2006-01-02"
}
