// Package mediatypes classifies file extensions into indexable media kinds.
//
// It is a dependency-free foundation importable from anywhere in the module
// without creating import cycles: nothing here reaches beyond the standard
// library.
//
// # Kinds
//
// A Kind labels what a file is to the indexer:
//
//	mediatypes.KindPhoto // still images (jpg, png, webp, tiff, ...)
//	mediatypes.KindVideo // video files (mp4, mkv, mov, ...)
//	mediatypes.KindOther // everything else; never indexed
//
// # Extension Detection
//
// Classify a file by its lowercased extension:
//
//	ext := strings.ToLower(filepath.Ext(name))
//	switch mediatypes.KindForExt(ext) {
//	case mediatypes.KindPhoto:
//	    // probe image dimensions
//	case mediatypes.KindVideo:
//	    // probe duration and codec
//	default:
//	    // skip
//	}
//
// The walker uses KindForExt to decide which directory entries become scan
// candidates, and the tag service uses it when backfilling a row for a path
// that has not been scanned yet.
//
// # Supported Formats
//
// The extension maps are exported for direct membership checks:
//
//	if mediatypes.PhotoExtensions[ext] {
//	    // supported photo format
//	}
package mediatypes
