// Package download runs a list of download tasks concurrently.
//
// # Manager
//
// The Manager starts one goroutine per task. Each goroutine hands its task
// to a Worker, which:
//
//  1. Acquires a progress lane from the pool (blocking while all are busy)
//  2. Skips the file if it already exists, unless overwriting
//  3. Streams the body into storage, advancing the lane as bytes arrive
//  4. Classifies any failure into a dlerror.Kind
//  5. Releases the lane, whatever happened
//
// The number of lanes is the concurrency limit. No other limiter is used.
//
// # Basic Usage
//
//	worker := &download.Worker{Fetcher: client, Store: store}
//	manager := download.NewManager(worker, download.Options{
//	    Concurrency: 4,
//	    Sink:        program,
//	})
//
//	report, err := manager.Run(ctx, tasks)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Exit(report.ExitCode())
//
// # Failures
//
// A failing task never aborts the run. Its error is kept in the task's
// Outcome and the remaining tasks carry on. Run itself only fails when the
// pool cannot be created or cannot be drained.
package download
