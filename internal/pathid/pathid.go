package pathid

import (
	"os"
	"path"
	"runtime"
	"strings"
)

// caseFold reports whether comparison keys fold case on this platform.
// Windows is always case-insensitive; the default filesystems on macOS
// (HFS+/APFS) are case-insensitive as well. MEDIA_INDEX_CASEFOLD overrides
// the platform default, which tests also rely on.
var caseFold = defaultCaseFold()

func defaultCaseFold() bool {
	switch os.Getenv("MEDIA_INDEX_CASEFOLD") {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// SetCaseFold overrides the platform casing policy. Intended for tests.
func SetCaseFold(fold bool) {
	caseFold = fold
}

// CaseFold reports the active casing policy.
func CaseFold() bool {
	return caseFold
}

// Key returns the canonical comparison key for a raw filesystem path.
// Separators are folded to "/", redundant separators and "." segments are
// cleaned, trailing separators trimmed, and case folded when the platform
// policy calls for it. Key("") is "".
func Key(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ReplaceAll(raw, "\\", "/")

	// Preserve a windows drive prefix through path.Clean, which is written
	// for slash-separated paths and has no drive-letter awareness.
	var drive string
	if len(s) >= 2 && s[1] == ':' && isASCIILetter(s[0]) {
		drive = s[:2]
		s = s[2:]
		if s == "" {
			s = "/"
		}
	}

	s = path.Clean(s)
	if s == "." {
		s = ""
	}

	s = drive + s
	if len(s) > 1 && strings.HasSuffix(s, "/") {
		s = strings.TrimSuffix(s, "/")
	}

	if caseFold {
		s = strings.ToLower(s)
	}
	return s
}

// Components splits a directory path into its path elements, root first.
// A windows drive or a leading separator is part of the first component so
// that "C:/a/b" yields ["C:", "a", "b"] and "/lib/2023" yields ["/lib", "2023"].
func Components(dir string) []string {
	s := strings.ReplaceAll(dir, "\\", "/")
	s = strings.TrimSuffix(s, "/")
	if s == "" {
		return nil
	}

	var out []string
	switch {
	case len(s) >= 2 && s[1] == ':' && isASCIILetter(s[0]):
		out = append(out, s[:2])
		s = strings.TrimPrefix(s[2:], "/")
	case strings.HasPrefix(s, "/"):
		s = strings.TrimPrefix(s, "/")
		if s == "" {
			return []string{"/"}
		}
		first, rest, found := strings.Cut(s, "/")
		out = append(out, "/"+first)
		if !found {
			return out
		}
		s = rest
	}

	for _, part := range strings.Split(s, "/") {
		if part == "" || part == "." {
			continue
		}
		out = append(out, part)
	}
	return out
}

// Join appends a path element to an ancestor path using "/" separators.
func Join(ancestor, name string) string {
	if ancestor == "" {
		return name
	}
	if strings.HasSuffix(ancestor, "/") {
		return ancestor + name
	}
	return ancestor + "/" + name
}

// DisplayName returns the last element of a path with its original casing.
func DisplayName(p string) string {
	s := strings.ReplaceAll(p, "\\", "/")
	s = strings.TrimSuffix(s, "/")
	if s == "" {
		return ""
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
