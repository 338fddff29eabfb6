package dlerror

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net"
	"os"
	"strings"
	"syscall"
)

// Rule maps a phrase found in an error's text to a kind.
type Rule struct {
	Kind   Kind
	Phrase string
}

// Classifier turns arbitrary errors into *Error values. The zero value
// skips the phrase rules; use NewClassifier for the full text fallback.
type Classifier struct {
	rules []Rule
}

// Rules recognized by Default, in priority order: body read, peer closed,
// connect timeout.
var defaultRules = []Rule{
	{ResponseBodyError, "error reading a body from connection"},
	{ResponseBodyError, "http: unexpected eof reading trailer"},
	{ConnectionClosed, "connection closed before message completed"},
	{ConnectionClosed, "server closed idle connection"},
	{ConnectionClosed, "connection reset by peer"},
	{ConnectionClosed, "broken pipe"},
	{ConnectionTimeout, "error trying to connect: operation timed out"},
	{ConnectionTimeout, "dial tcp: i/o timeout"},
	{ConnectionTimeout, "tls handshake timeout"},
}

// Default is the classifier used by Classify.
var Default = NewClassifier()

// NewClassifier returns a classifier with the default rules followed by
// extra. Extra rules are only consulted when no default rule matches.
func NewClassifier(extra ...Rule) *Classifier {
	rules := make([]Rule, 0, len(defaultRules)+len(extra))
	rules = append(rules, defaultRules...)
	for _, r := range extra {
		r.Phrase = strings.ToLower(r.Phrase)
		rules = append(rules, r)
	}
	return &Classifier{rules: rules}
}

// Classify is Default.Classify.
func Classify(err error) *Error {
	return Default.Classify(err)
}

// Classify maps err to exactly one *Error. It returns nil for a nil error.
func (c *Classifier) Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if kind, ok := structuredKind(err); ok {
		e := &Error{Kind: kind, Err: err}
		if kind == IoError {
			e.Detail = err.Error()
		}
		return e
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, r := range c.rules {
		if strings.Contains(lower, r.Phrase) {
			return &Error{Kind: r.Kind, Err: err}
		}
	}
	if isDialTimeoutText(lower) {
		return &Error{Kind: ConnectionTimeout, Err: err}
	}

	return &Error{Kind: Other, Detail: msg, Err: err}
}

func structuredKind(err error) (Kind, bool) {
	var body *BodyReadError
	if errors.As(err, &body) {
		return ResponseBodyError, true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return ConnectionClosed, true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && opErr.Timeout() {
		return ConnectionTimeout, true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return DeadlineElapsed, true
	}

	var pathErr *fs.PathError
	var linkErr *os.LinkError
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) {
		return IoError, true
	}

	return Other, false
}

// Go's dialer reports "dial tcp 10.0.0.1:80: i/o timeout" with the address
// in the middle, so a single phrase does not cover it.
func isDialTimeoutText(lower string) bool {
	return strings.Contains(lower, "dial tcp") && strings.Contains(lower, "i/o timeout")
}
