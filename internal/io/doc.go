// Package ioutils provides file naming and file system utilities for dlm.
//
// This package contains functions for:
//   - Deriving an output file name from a download URL
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation
//
// # File Names
//
//	name, err := ioutils.FileNameFromURL("https://example.com/pub/file%20v2.tar.gz?x=1")
//	// name == "file v2.tar.gz"
//
// # Filename Sanitization
//
// Use SanitizeFileName to remove invalid characters from filenames:
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
package ioutils
