package download

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/handiism/dlm/internal/dlerror"
	"github.com/handiism/dlm/internal/model"
	"github.com/handiism/dlm/internal/progress"
	"golang.org/x/sync/errgroup"
)

// Options configures a Manager.
type Options struct {
	// Concurrency is the number of lanes, and so the maximum number of
	// transfers in flight.
	Concurrency int

	// DrainTimeout bounds the wait for lanes to come back once every task
	// has reported. Zero means no limit.
	DrainTimeout time.Duration

	// Sink receives display updates. Nil discards them.
	Sink progress.Sink

	Logger *slog.Logger
}

// Manager dispatches tasks to workers and tracks overall completion.
type Manager struct {
	worker *Worker
	opts   Options
}

// NewManager creates a new download Manager.
func NewManager(worker *Worker, opts Options) *Manager {
	if opts.Sink == nil {
		opts.Sink = progress.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{worker: worker, opts: opts}
}

type completion struct {
	index   int
	outcome Outcome
}

// Run downloads every task, at most Concurrency at a time, and returns one
// outcome per task. A failed task never stops the others; the only errors
// Run returns come from setting up or draining the lane pool.
func (m *Manager) Run(ctx context.Context, tasks []model.Task) (*Report, error) {
	pool, err := progress.NewPool(m.opts.Concurrency, len(tasks), m.opts.Sink)
	if err != nil {
		return nil, fmt.Errorf("init progress pool: %w", err)
	}

	started := time.Now()
	m.opts.Logger.Info("dispatching downloads", "tasks", len(tasks), "concurrency", m.opts.Concurrency)
	pool.Logf(progress.LevelInfo, "starting %d downloads with %d lanes", len(tasks), m.opts.Concurrency)

	done := make(chan completion, len(tasks))
	var g errgroup.Group
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			done <- completion{index: i, outcome: m.process(ctx, pool, task)}
			return nil
		})
	}

	report := &Report{Outcomes: make([]Outcome, len(tasks))}
	for range tasks {
		c := <-done
		report.Outcomes[c.index] = c.outcome
		report.Completed, _ = pool.Aggregate().Inc()
	}
	// every goroutine has sent, so this only reaps them
	_ = g.Wait()

	report.FreeLanes = pool.Available()
	report.Elapsed = time.Since(started)

	// lanes are always given back, so draining outlives a canceled run
	drainCtx := context.WithoutCancel(ctx)
	if m.opts.DrainTimeout > 0 {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithTimeout(drainCtx, m.opts.DrainTimeout)
		defer cancel()
	}
	if err := pool.Drain(drainCtx); err != nil {
		return report, fmt.Errorf("finalize progress pool: %w", err)
	}

	m.opts.Logger.Info("downloads finished",
		"completed", report.Completed,
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"skipped", report.Skipped(),
		"bytes", report.Bytes(),
		"elapsed", report.Elapsed,
	)
	return report, nil
}

// process runs one task and turns a panic into a TaskFailed outcome, so
// that every task reports exactly once.
func (m *Manager) process(ctx context.Context, pool *progress.Pool, task model.Task) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Task: task, Lane: -1, Err: dlerror.Task(r)}
			m.opts.Logger.Error("download worker panicked", "task_id", task.ID.String(), "url", task.URL, "panic", r)
			pool.Logf(progress.LevelError, "failed %s: %v", task.URL, out.Err)
		}
	}()
	return m.worker.Process(ctx, pool, task)
}
