package dlerror

import (
	"fmt"
	"net/http"
)

// Kind is one of the closed set of failure categories.
type Kind int

const (
	Other Kind = iota
	ConnectionClosed
	ConnectionTimeout
	ResponseBodyError
	DeadlineElapsed
	ResponseStatusNotSuccess
	IoError
	TaskFailed
	ChannelError
)

var kindNames = [...]string{
	Other:                    "other",
	ConnectionClosed:         "connection closed",
	ConnectionTimeout:        "connection timeout",
	ResponseBodyError:        "body error",
	DeadlineElapsed:          "deadline elapsed",
	ResponseStatusNotSuccess: "bad status",
	IoError:                  "io error",
	TaskFailed:               "task failed",
	ChannelError:             "channel error",
}

// String returns a short, stable name for the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Error is a classified failure. Detail is empty for the kinds that carry no
// message, and holds the original error text for Other.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

// Sentinels for errors.Is. Two *Error values match when their kinds match.
var (
	ErrConnectionClosed         = &Error{Kind: ConnectionClosed}
	ErrConnectionTimeout        = &Error{Kind: ConnectionTimeout}
	ErrResponseBody             = &Error{Kind: ResponseBodyError}
	ErrDeadlineElapsed          = &Error{Kind: DeadlineElapsed}
	ErrResponseStatusNotSuccess = &Error{Kind: ResponseStatusNotSuccess}
	ErrIO                       = &Error{Kind: IoError}
	ErrTaskFailed               = &Error{Kind: TaskFailed}
	ErrChannel                  = &Error{Kind: ChannelError}
	ErrOther                    = &Error{Kind: Other}
)

func (e *Error) Error() string {
	switch {
	case e.Kind == Other:
		return e.Detail
	case e.Detail != "":
		return e.Kind.String() + ": " + e.Detail
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Deadline classifies the expiry of a bounded wait.
func Deadline(err error) *Error {
	return &Error{Kind: DeadlineElapsed, Err: err}
}

// Status builds a ResponseStatusNotSuccess error from an HTTP status code
// and the status line the server sent (which may be empty).
func Status(code int, status string) *Error {
	if status == "" {
		status = fmt.Sprintf("%d %s", code, http.StatusText(code))
	}
	return &Error{Kind: ResponseStatusNotSuccess, Detail: status}
}

// IO wraps a local filesystem or storage failure.
func IO(err error) *Error {
	return &Error{Kind: IoError, Detail: err.Error(), Err: err}
}

// Task wraps a failure surfaced while joining a worker, typically the value
// recovered from a panic.
func Task(v any) *Error {
	e := &Error{Kind: TaskFailed, Detail: fmt.Sprint(v)}
	if err, ok := v.(error); ok {
		e.Err = err
	}
	return e
}

// Channel wraps a failure reading from an internal hand-off channel.
func Channel(err error) *Error {
	return &Error{Kind: ChannelError, Detail: err.Error(), Err: err}
}

// Otherf builds an Other error from a format string.
func Otherf(format string, args ...any) *Error {
	return &Error{Kind: Other, Detail: fmt.Sprintf(format, args...)}
}

// BodyReadError marks an error returned while reading a response body. The
// transport wraps body reads with it so the classifier does not have to
// guess from the message.
type BodyReadError struct {
	Err error
}

func (e *BodyReadError) Error() string {
	return "error reading a body from connection: " + e.Err.Error()
}

func (e *BodyReadError) Unwrap() error { return e.Err }
