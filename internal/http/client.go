package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/handiism/dlm/internal/dlerror"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "dlm"

// Options configures a Client.
type Options struct {
	// UserAgent is sent with every request.
	UserAgent string

	// ConnectTimeout bounds establishing the TCP connection and the TLS
	// handshake. Zero means 10 seconds.
	ConnectTimeout time.Duration

	// HeaderTimeout bounds waiting for the response headers once the
	// request is sent. Zero means no limit. The body transfer itself is
	// never bounded, large files may take as long as they take.
	HeaderTimeout time.Duration

	// RateLimit caps the combined body read rate of every download made
	// through this client, in bytes per second. Zero means unlimited.
	RateLimit int64
}

// Client fetches URLs for the download workers.
//
// Client provides:
//   - Configured User-Agent header
//   - Connect and response-header timeouts
//   - An optional bandwidth limit shared by all transfers
//   - Body read errors tagged as dlerror.BodyReadError
//
// Example usage:
//
//	client := NewClient(Options{UserAgent: "dlm/1.0"})
//
//	resp, err := client.Fetch(ctx, "https://example.com/file.iso")
//	if err != nil {
//	    return dlerror.Classify(err)
//	}
//	defer resp.Body.Close()
//	io.Copy(&ProgressWriter{Writer: dst, Total: resp.ContentLength}, resp.Body)
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

// NewClient creates a new HTTP client.
func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.HeaderTimeout,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	c := &Client{
		httpClient: &http.Client{Transport: transport},
		userAgent:  opts.UserAgent,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), int(opts.RateLimit))
	}
	return c
}

// Response is the part of an HTTP response a worker needs.
type Response struct {
	// Body streams the response body. Read errors other than io.EOF are
	// wrapped in *dlerror.BodyReadError. The caller must close it.
	Body io.ReadCloser

	// ContentLength is the advertised body size, or 0 when unknown.
	ContentLength int64

	// StatusCode is the HTTP status, always 2xx.
	StatusCode int
}

// Fetch performs a GET request and returns the response once headers have
// arrived.
//
// Returns an error if:
//   - The request cannot be built (malformed URL)
//   - The connection or request fails
//   - The response status is not 2xx (a dlerror ResponseStatusNotSuccess)
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, dlerror.Status(resp.StatusCode, resp.Status)
	}

	length := resp.ContentLength
	if length < 0 {
		length = 0
	}

	return &Response{
		Body:          &body{ctx: ctx, rc: resp.Body, limiter: c.limiter},
		ContentLength: length,
		StatusCode:    resp.StatusCode,
	}, nil
}

type body struct {
	ctx     context.Context
	rc      io.ReadCloser
	limiter *rate.Limiter
}

func (b *body) Read(p []byte) (int, error) {
	if b.limiter != nil && len(p) > b.limiter.Burst() {
		p = p[:b.limiter.Burst()]
	}

	n, err := b.rc.Read(p)
	if n > 0 && b.limiter != nil {
		if werr := b.limiter.WaitN(b.ctx, n); werr != nil {
			return n, werr
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		err = &dlerror.BodyReadError{Err: err}
	}
	return n, err
}

func (b *body) Close() error {
	return b.rc.Close()
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  resp.ContentLength,
//	    OnUpdate: func(written, total int64) {
//	        lane.SetPosition(written)
//	    },
//	}
//	io.Copy(pw, resp.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	// Parameters are (bytesWritten, totalExpected).
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}
