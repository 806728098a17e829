package mediatypes

// Kind represents the media kind of an indexed file.
type Kind string

const (
	// KindPhoto represents a still image file.
	KindPhoto Kind = "photo"
	// KindVideo represents a video file.
	KindVideo Kind = "video"
	// KindOther represents an unsupported file type; such files are never indexed.
	KindOther Kind = "other"
)

// PhotoExtensions maps file extensions to whether they are supported photo formats.
var PhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// KindForExt returns the Kind for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns KindOther if the extension is not recognized.
func KindForExt(ext string) Kind {
	if PhotoExtensions[ext] {
		return KindPhoto
	}
	if VideoExtensions[ext] {
		return KindVideo
	}
	return KindOther
}

// IsIndexable returns true if the extension represents a supported media file.
func IsIndexable(ext string) bool {
	return KindForExt(ext) != KindOther
}
