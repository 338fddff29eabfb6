package storage

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/handiism/dlm/internal/dlerror"
	ioutils "github.com/handiism/dlm/internal/io"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// Store is an output location for downloads.
type Store struct {
	bucket *blob.Bucket
}

// Open opens the bucket at location. A location without a URL scheme is a
// local directory, created if missing. Drivers other than file and mem must
// be registered by the caller with a blank import.
func Open(ctx context.Context, location string) (*Store, error) {
	bucketURL, err := BucketURL(location)
	if err != nil {
		return nil, err
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	return New(bucket), nil
}

// New wraps an already opened bucket.
func New(bucket *blob.Bucket) *Store {
	return &Store{bucket: bucket}
}

// BucketURL turns a plain directory path into a file bucket URL. Locations
// that already carry a scheme are returned as given.
func BucketURL(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("empty output location")
	}
	if strings.Contains(location, "://") {
		return location, nil
	}

	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", location, err)
	}
	if err := ioutils.EnsureDir(abs); err != nil {
		return "", fmt.Errorf("create %s: %w", abs, err)
	}

	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme:   "file",
		Path:     p,
		RawQuery: "create_dir=true&no_tmp_dir=true&metadata=skip",
	}
	return u.String(), nil
}

// Exists reports whether an object named key has been committed.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return false, dlerror.IO(err)
	}
	return ok, nil
}

// NewWriter starts writing the object named key. The object does not exist
// until Commit succeeds.
func (s *Store) NewWriter(ctx context.Context, key string) (*Writer, error) {
	wctx, cancel := context.WithCancel(ctx)
	w, err := s.bucket.NewWriter(wctx, key, nil)
	if err != nil {
		cancel()
		return nil, dlerror.IO(err)
	}
	return &Writer{key: key, w: w, cancel: cancel}, nil
}

// Close releases the bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// Writer streams one object into the bucket.
type Writer struct {
	key     string
	w       *blob.Writer
	cancel  context.CancelFunc
	written int64
	done    bool
}

// Write implements io.Writer. Errors are classified as IoError.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.written += int64(n)
	if err != nil {
		return n, dlerror.IO(err)
	}
	return n, nil
}

// Written returns the number of bytes accepted so far.
func (w *Writer) Written() int64 { return w.written }

// Commit finishes the write and makes the object visible.
func (w *Writer) Commit() error {
	if w.done {
		return nil
	}
	w.done = true
	defer w.cancel()
	if err := w.w.Close(); err != nil {
		return dlerror.IO(fmt.Errorf("commit %s: %w", w.key, err))
	}
	return nil
}

// Abort discards everything written so far. It is safe to call after
// Commit, in which case it does nothing.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.cancel()
	// Closing a writer whose context is canceled discards the object; the
	// returned error only reports that.
	_ = w.w.Close()
}
