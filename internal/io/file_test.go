package ioutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal-file.bin", "normal-file.bin"},
		{"file:with:colons.bin", "file_with_colons.bin"},
		{"file<with>brackets.bin", "file_with_brackets.bin"},
		{"file/with\\slashes.bin", "file_with_slashes.bin"},
		{"file|with|pipes.bin", "file_with_pipes.bin"},
		{"file?with*wildcards.bin", "file_with_wildcards.bin"},
		{"file\"with\"quotes.bin", "file_with_quotes.bin"},
		{"trailing dots...", "trailing dots"},
		{"multiple   spaces", "multiple spaces"},
		{"trailing spaces   ", "trailing spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeFileName(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFileNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/pub/file.tar.gz", "file.tar.gz"},
		{"https://example.com/pub/file%20v2.tar.gz?x=1#frag", "file v2.tar.gz"},
		{"https://example.com/a%3Ab.txt", "a_b.txt"},
		{"https://example.com/dir/", "dir"},
		{"https://example.com/", DefaultFileName},
		{"https://example.com", DefaultFileName},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := FileNameFromURL(tt.url)
			if err != nil {
				t.Fatalf("FileNameFromURL(%q): %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("FileNameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestFileNameFromURL_Invalid(t *testing.T) {
	if _, err := FileNameFromURL("http://[::1]:namedport/x"); err == nil {
		t.Error("expected error for malformed URL")
	}
}

func TestFileNameFromURL_LongName(t *testing.T) {
	long := strings.Repeat("a", 300) + ".bin"
	got, err := FileNameFromURL("https://example.com/" + long)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != MaxFileNameLength {
		t.Errorf("len = %d, want %d", len(got), MaxFileNameLength)
	}
	if !strings.HasSuffix(got, ".bin") {
		t.Errorf("extension lost: %q", got)
	}
}

func TestTruncateName_KeepsUTF8(t *testing.T) {
	name := strings.Repeat("é", 10) + ".txt" // 2 bytes per é
	got := truncateName(name, 9)
	if !utf8.ValidString(got) {
		t.Fatalf("invalid UTF-8: %q", got)
	}
	if got != "éé.txt" {
		t.Errorf("truncateName = %q, want %q", got, "éé.txt")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("second call: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
}

func TestNumberedName(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want string
	}{
		{"release.tar.gz", 1, "release-1.tar.gz"},
		{"index.html", 2, "index-2.html"},
		{"README", 1, "README-1"},
		{".bashrc", 1, ".bashrc-1"},
		{"a.b.iso", 3, "a.b-3.iso"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NumberedName(tt.name, tt.n)
			if got != tt.want {
				t.Errorf("NumberedName(%q, %d) = %q, want %q", tt.name, tt.n, got, tt.want)
			}
		})
	}
}

func TestNumberedName_KeepsSuffixAtMaxLength(t *testing.T) {
	name := strings.Repeat("x", MaxFileNameLength-4) + ".iso"
	got := NumberedName(name, 12)

	if len(got) > MaxFileNameLength {
		t.Fatalf("len = %d, want <= %d", len(got), MaxFileNameLength)
	}
	if !strings.HasSuffix(got, "-12.iso") {
		t.Errorf("NumberedName() = %q, want suffix -12.iso", got)
	}
}
