package dlerror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify_Text(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want Kind
	}{
		{"body", "error reading a body from connection: unexpected end", ResponseBodyError},
		{"closed", "connection closed before message completed", ConnectionClosed},
		{"reset", "read tcp 10.0.0.1:4000: connection reset by peer (text only)", ConnectionClosed},
		{"connect timeout", "error trying to connect: operation timed out", ConnectionTimeout},
		{"go dial timeout", "Get \"http://10.255.255.1\": dial tcp 10.255.255.1:80: i/o timeout", ConnectionTimeout},
		{"body wins over closed", "error reading a body from connection: connection closed before message completed", ResponseBodyError},
		{"closed wins over timeout", "connection closed before message completed; error trying to connect: operation timed out", ConnectionClosed},
		{"case insensitive", "Connection Closed Before Message Completed", ConnectionClosed},
		{"unknown", "something odd happened", Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(errors.New(tt.msg))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestClassify_OtherKeepsMessageVerbatim(t *testing.T) {
	msgs := []string{
		"something odd happened",
		"  leading and trailing spaces  ",
		"ünïcödé message ✓",
		"",
	}
	for _, msg := range msgs {
		got := Classify(errors.New(msg))
		assert.Equal(t, Other, got.Kind)
		assert.Equal(t, msg, got.Detail)
		assert.Equal(t, msg, got.Error())
	}
}

func TestClassify_Deterministic(t *testing.T) {
	inputs := []error{
		errors.New("connection closed before message completed"),
		errors.New("error trying to connect: operation timed out"),
		errors.New("no idea"),
		io.ErrUnexpectedEOF,
	}
	for _, in := range inputs {
		first := Classify(in)
		for i := 0; i < 10; i++ {
			again := Classify(in)
			assert.Equal(t, first.Kind, again.Kind)
			assert.Equal(t, first.Detail, again.Detail)
		}
	}
}

func TestClassify_Structured(t *testing.T) {
	_, openErr := os.Open(filepath.Join(t.TempDir(), "missing", "file"))
	require.Error(t, openErr)

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"body read wrapper", &BodyReadError{Err: io.ErrUnexpectedEOF}, ResponseBodyError},
		{"eof from client", &url.Error{Op: "Get", URL: "http://x", Err: io.EOF}, ConnectionClosed},
		{"unexpected eof", fmt.Errorf("copy: %w", io.ErrUnexpectedEOF), ConnectionClosed},
		{"econnreset", &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, ConnectionClosed},
		{"dial timeout", &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Net: "tcp", Err: timeoutErr{}}}, ConnectionTimeout},
		{"read timeout is not a connect timeout", &net.OpError{Op: "read", Net: "tcp", Err: timeoutErr{}}, Other},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), DeadlineElapsed},
		{"path error", openErr, IoError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_PassesThroughClassified(t *testing.T) {
	orig := Status(404, "404 Not Found")
	wrapped := fmt.Errorf("fetch: %w", orig)

	got := Classify(wrapped)
	assert.Same(t, orig, got)
	assert.Equal(t, "404 Not Found", got.Detail)
}

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestNewClassifier_ExtraRules(t *testing.T) {
	c := NewClassifier(Rule{Kind: ConnectionClosed, Phrase: "Stream Was Reset"})

	assert.Equal(t, ConnectionClosed, c.Classify(errors.New("http2: stream was reset")).Kind)
	assert.Equal(t, Other, Classify(errors.New("http2: stream was reset")).Kind)
	assert.Equal(t, ResponseBodyError, c.Classify(errors.New("error reading a body from connection: stream was reset")).Kind)
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("task 3: %w", &Error{Kind: ConnectionClosed})

	assert.ErrorIs(t, err, ErrConnectionClosed)
	assert.NotErrorIs(t, err, ErrConnectionTimeout)
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, "bad status: 503 Service Unavailable", Status(503, "").Error())
	assert.Equal(t, "deadline elapsed", Deadline(context.DeadlineExceeded).Error())
	assert.ErrorIs(t, Deadline(context.DeadlineExceeded), context.DeadlineExceeded)

	boom := errors.New("boom")
	task := Task(boom)
	assert.Equal(t, TaskFailed, task.Kind)
	assert.ErrorIs(t, task, boom)
	assert.Equal(t, "task failed: index out of range", Task("index out of range").Error())

	ch := Channel(errors.New("pool closed"))
	assert.Equal(t, ChannelError, ch.Kind)
	assert.Equal(t, "channel error: pool closed", ch.Error())

	assert.Equal(t, "io error: disk full", IO(errors.New("disk full")).Error())
	assert.Equal(t, "3 of 4", Otherf("%d of %d", 3, 4).Error())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "connection closed", ConnectionClosed.String())
	assert.Equal(t, "other", Other.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
