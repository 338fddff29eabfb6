package ioutils

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultFileName is used when a URL has no usable last path segment.
const DefaultFileName = "index.html"

// MaxFileNameLength is the longest file name, in bytes, FileNameFromURL
// produces. Most file systems stop at 255.
const MaxFileNameLength = 200

var (
	// Characters: < > : " / \ | ? * and control characters (0x00-0x1f)
	invalidChars   = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots   = regexp.MustCompile(`\.+$`)
	repeatedSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// This function ensures filenames are valid across different operating systems,
// particularly Windows which has the most restrictive naming rules.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("Song: Part 1/2")     // Returns "Song_ Part 1_2"
//	SanitizeFileName("Track...")           // Returns "Track"
//	SanitizeFileName("Name   with  spaces") // Returns "Name with spaces"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}

// FileNameFromURL returns the name a download of rawURL is saved under: the
// last segment of the URL path, percent-decoded and sanitized. The query
// string is ignored.
//
// Example:
//
//	FileNameFromURL("https://example.com/pub/file%20v2.tar.gz?x=1") // "file v2.tar.gz"
//	FileNameFromURL("https://example.com/")                        // "index.html"
func FileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = ""
	}
	name = SanitizeFileName(name)
	if name == "" || name == "_" {
		return DefaultFileName, nil
	}

	return truncateName(name, MaxFileNameLength), nil
}

// truncateName shortens name to at most max bytes, keeping the extension
// and never splitting a UTF-8 sequence.
func truncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	ext := path.Ext(name)
	if len(ext) >= max {
		ext = ""
	}
	stem := name[:len(name)-len(ext)]
	stem = stem[:max-len(ext)]
	for !utf8.ValidString(stem) {
		stem = stem[:len(stem)-1]
	}
	return stem + ext
}

// NumberedName inserts "-n" before the extension of name, treating
// ".tar.<x>" as one extension.
//
//	NumberedName("release.tar.gz", 1) // "release-1.tar.gz"
//	NumberedName("index.html", 2)     // "index-2.html"
func NumberedName(name string, n int) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if inner := path.Ext(stem); strings.EqualFold(inner, ".tar") {
		ext = inner + ext
		stem = strings.TrimSuffix(stem, inner)
	}
	if stem == "" {
		stem, ext = name, ""
	}
	suffix := fmt.Sprintf("-%d", n)
	if room := MaxFileNameLength - len(suffix) - len(ext); len(stem) > room && room > 0 {
		stem = stem[:room]
		for !utf8.ValidString(stem) {
			stem = stem[:len(stem)-1]
		}
	}
	return stem + suffix + ext
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
