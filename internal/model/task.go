package model

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	ioutils "github.com/handiism/dlm/internal/io"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("download_url", validateDownloadURL)
}

// Task is a single URL to download.
//
// A Task is created before dispatch and never modified afterwards. It is
// consumed by exactly one worker.
//
// Example:
//
//	task, err := NewTask("https://example.com/pub/file.tar.gz")
//	// task.FileName = "file.tar.gz"
type Task struct {
	// ID identifies the task in logs.
	ID uuid.UUID

	// URL is the address to fetch. Always http or https.
	URL string

	// FileName is the name the body is stored under, derived from the
	// last segment of the URL path.
	FileName string
}

// NewTask validates rawURL and derives the output file name from it.
func NewTask(rawURL string) (Task, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := ValidateURL(rawURL); err != nil {
		return Task{}, err
	}

	name, err := ioutils.FileNameFromURL(rawURL)
	if err != nil {
		return Task{}, err
	}

	return Task{
		ID:       uuid.New(),
		URL:      rawURL,
		FileName: name,
	}, nil
}

// Label is the text shown on the task's progress lane.
func (t Task) Label() string {
	return t.FileName
}

// ValidateURL reports whether u is an absolute http or https URL.
func ValidateURL(u string) error {
	if err := validate.Var(u, "required,download_url"); err != nil {
		return fmt.Errorf("invalid URL %q: %w", u, err)
	}
	return nil
}

func validateDownloadURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// ParseTasks reads one URL per line from r. Blank lines and lines starting
// with '#' are skipped, and a URL seen twice is only kept once. Every
// invalid line is reported, joined into one error.
//
// Example input:
//
//	# mirrors
//	https://example.com/a.iso
//	https://example.com/b.iso
func ParseTasks(r io.Reader) ([]Task, error) {
	var (
		tasks []Task
		errs  []error
		seen  = make(map[string]bool)
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true

		task, err := NewTask(line)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", lineNo, err))
			continue
		}
		tasks = append(tasks, task)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}

	return UniqueFileNames(tasks), errors.Join(errs...)
}

// UniqueFileNames renames tasks whose FileName was already taken by an
// earlier task, so no two tasks write to the same object. The first task
// keeps its name; later ones get "-1", "-2", ... before the extension,
// skipping any name another task derived from its own URL. Names are
// compared case-insensitively. tasks is modified in place.
func UniqueFileNames(tasks []Task) []Task {
	derived := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		derived[strings.ToLower(t.FileName)] = true
	}

	used := make(map[string]bool, len(tasks))
	for i := range tasks {
		name := tasks[i].FileName
		for n := 1; used[strings.ToLower(name)]; n++ {
			name = ioutils.NumberedName(tasks[i].FileName, n)
			if derived[strings.ToLower(name)] {
				name = tasks[i].FileName
			}
		}
		tasks[i].FileName = name
		used[strings.ToLower(name)] = true
	}
	return tasks
}

// TasksFromURLs builds tasks from URLs given directly, e.g. on the command
// line, with the same rules as ParseTasks.
func TasksFromURLs(urls []string) ([]Task, error) {
	return ParseTasks(strings.NewReader(strings.Join(urls, "\n")))
}
