// Package dlerror defines the closed set of failure kinds a download can end
// with, and the classifier that maps transport and I/O errors onto them.
//
// # Kinds
//
//   - ConnectionClosed: the peer closed the connection before completion
//   - ConnectionTimeout: the connection attempt timed out
//   - ResponseBodyError: the response body could not be fully read
//   - DeadlineElapsed: a bounded wait ran out of time
//   - ResponseStatusNotSuccess: the server answered with a non-2xx status
//   - IoError: a local filesystem or storage failure
//   - TaskFailed: a worker died instead of reporting an outcome
//   - ChannelError: an internal hand-off channel was closed
//   - Other: anything else, carrying the original message verbatim
//
// # Classification
//
//	err := client.Fetch(ctx, url)
//	if err != nil {
//	    e := dlerror.Classify(err)
//	    if errors.Is(e, dlerror.ErrConnectionClosed) {
//	        // ...
//	    }
//	}
//
// Classify looks at structured signals first (wrapped error types and
// sentinel errors from net, io and context) and only then falls back to
// matching known phrases in the error text. Text matching is fragile: a
// transport upgrade that rewords its errors silently turns them into Other.
// New wording is added through NewClassifier rather than in the worker.
package dlerror
