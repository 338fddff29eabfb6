package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/handiism/dlm/internal/dlerror"
	dlhttp "github.com/handiism/dlm/internal/http"
	"github.com/handiism/dlm/internal/model"
	"github.com/handiism/dlm/internal/progress"
	"github.com/handiism/dlm/internal/storage"
)

// Fetcher starts a transfer. *http.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*dlhttp.Response, error)
}

// Store is where bodies are written. *storage.Store implements it.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	NewWriter(ctx context.Context, key string) (*storage.Writer, error)
}

// Recorder observes task lifecycles, e.g. for metrics. *metrics.Collector
// implements it.
type Recorder interface {
	TaskStarted()
	TaskFinished(kind string, bytes int64, elapsed time.Duration)
}

// Outcome is the result of one task.
type Outcome struct {
	Task model.Task

	// Lane is the id of the progress lane the task ran on, or -1 if it
	// never got one.
	Lane int

	// Bytes is the number of body bytes transferred.
	Bytes int64

	// Skipped is set when the file already existed and was left alone.
	Skipped bool

	// Err is nil on success.
	Err *dlerror.Error

	Duration time.Duration
}

// OK reports whether the task succeeded (including skipped).
func (o Outcome) OK() bool { return o.Err == nil }

// Kind is "ok", "skipped" or the error kind, for metrics and summaries.
func (o Outcome) Kind() string {
	switch {
	case o.Err != nil:
		return o.Err.Kind.String()
	case o.Skipped:
		return "skipped"
	default:
		return "ok"
	}
}

// Worker downloads one task at a time on a lane taken from a pool.
type Worker struct {
	Fetcher    Fetcher
	Store      Store
	Classifier *dlerror.Classifier
	Recorder   Recorder
	Logger     *slog.Logger

	// Overwrite replaces existing files instead of skipping them.
	Overwrite bool
}

// Process acquires a lane, downloads task while reporting on that lane, and
// always gives the lane back before returning.
func (w *Worker) Process(ctx context.Context, pool *progress.Pool, task model.Task) Outcome {
	lane, err := pool.Acquire(ctx)
	if err != nil {
		return Outcome{Task: task, Lane: -1, Err: w.classify(err)}
	}
	defer pool.Release(lane)

	return w.Run(ctx, pool, task, lane)
}

// Run downloads task on an already acquired lane. It does not release the
// lane.
func (w *Worker) Run(ctx context.Context, pool *progress.Pool, task model.Task, lane *progress.Lane) Outcome {
	start := time.Now()
	out := Outcome{Task: task, Lane: lane.ID()}
	finished := false
	if w.Recorder != nil {
		w.Recorder.TaskStarted()
		defer func() {
			kind := out.Kind()
			if !finished {
				// panicking out of fetch
				kind = dlerror.TaskFailed.String()
			}
			w.Recorder.TaskFinished(kind, out.Bytes, time.Since(start))
		}()
	}

	bytes, skipped, err := w.fetch(ctx, task, lane)
	out.Bytes = bytes
	out.Skipped = skipped
	out.Err = w.classify(err)
	out.Duration = time.Since(start)

	logger := w.logger().With("task_id", task.ID.String(), "url", task.URL, "lane", lane.ID())
	switch {
	case out.Err != nil:
		lane.SetLabel(fmt.Sprintf("✗ %s %s", out.Err.Kind, task.Label()))
		pool.Logf(progress.LevelError, "failed %s: %v", task.URL, out.Err)
		logger.Error("download failed", "kind", out.Err.Kind.String(), "error", out.Err)
	case skipped:
		lane.SetLabel("= " + task.Label())
		pool.Logf(progress.LevelVerbose, "skipped %s: already exists", task.FileName)
		logger.Info("download skipped", "file", task.FileName)
	default:
		lane.SetLabel("✓ " + task.Label())
		pool.Logf(progress.LevelSuccess, "completed %s (%d bytes)", task.FileName, bytes)
		logger.Info("download completed", "file", task.FileName, "bytes", bytes, "elapsed", out.Duration)
	}

	finished = true
	return out
}

func (w *Worker) fetch(ctx context.Context, task model.Task, lane *progress.Lane) (int64, bool, error) {
	lane.SetLabel(task.Label())

	if !w.Overwrite {
		exists, err := w.Store.Exists(ctx, task.FileName)
		if err != nil {
			return 0, false, err
		}
		if exists {
			return 0, true, nil
		}
	}

	resp, err := w.Fetcher.Fetch(ctx, task.URL)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()

	if resp.ContentLength > 0 {
		lane.SetTotal(resp.ContentLength)
	}

	dst, err := w.Store.NewWriter(ctx, task.FileName)
	if err != nil {
		return 0, false, err
	}

	pw := &dlhttp.ProgressWriter{
		Writer: dst,
		Total:  resp.ContentLength,
		OnUpdate: func(written, _ int64) {
			lane.SetPosition(written)
		},
	}
	n, err := io.Copy(pw, resp.Body)
	if err != nil {
		dst.Abort()
		return n, false, err
	}
	if err := dst.Commit(); err != nil {
		return n, false, err
	}

	return n, false, nil
}

func (w *Worker) classify(err error) *dlerror.Error {
	if w.Classifier != nil {
		return w.Classifier.Classify(err)
	}
	return dlerror.Classify(err)
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
