package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/handiism/dlm/internal/dlerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Fetch(t *testing.T) {
	content := strings.Repeat("hello world ", 1000)
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		_, _ = io.WriteString(w, content)
	}))
	defer server.Close()

	client := NewClient(Options{UserAgent: "dlm-test"})
	resp, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "dlm-test", gotUA)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(len(content)), resp.ContentLength)

	var buf bytes.Buffer
	var updates int
	var last int64
	pw := &ProgressWriter{
		Writer: &buf,
		Total:  resp.ContentLength,
		OnUpdate: func(written, total int64) {
			updates++
			assert.GreaterOrEqual(t, written, last)
			assert.Equal(t, int64(len(content)), total)
			last = written
		},
	}
	n, err := io.Copy(pw, resp.Body)
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), n)
	assert.Equal(t, content, buf.String())
	assert.Positive(t, updates)
	assert.Equal(t, n, last)
}

func TestClient_Fetch_DefaultUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	resp, err := NewClient(Options{}).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestClient_Fetch_UnknownLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		_, _ = io.WriteString(w, "chunked body")
	}))
	defer server.Close()

	resp, err := NewClient(Options{}).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Zero(t, resp.ContentLength)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "chunked body", string(data))
}

func TestClient_Fetch_StatusNotSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewClient(Options{}).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, dlerror.ErrResponseStatusNotSuccess)

	classified := dlerror.Classify(err)
	assert.Equal(t, dlerror.ResponseStatusNotSuccess, classified.Kind)
	assert.Equal(t, "404 Not Found", classified.Detail)
}

func TestClient_Fetch_ConnectionClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer server.Close()

	_, err := NewClient(Options{}).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, dlerror.ConnectionClosed, dlerror.Classify(err).Kind)
}

func TestClient_Fetch_TruncatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "only a little")
	}))
	defer server.Close()

	resp, err := NewClient(Options{}).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, int64(1000), resp.ContentLength)

	_, err = io.Copy(io.Discard, resp.Body)
	require.Error(t, err)

	var bodyErr *dlerror.BodyReadError
	assert.ErrorAs(t, err, &bodyErr)
	assert.Equal(t, dlerror.ResponseBodyError, dlerror.Classify(err).Kind)
}

func TestClient_Fetch_BadURL(t *testing.T) {
	_, err := NewClient(Options{}).Fetch(context.Background(), "http://[::1]:namedport")
	require.Error(t, err)
	assert.Equal(t, dlerror.Other, dlerror.Classify(err).Kind)
}

func TestClient_RateLimit(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 20000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	}))
	defer server.Close()

	client := NewClient(Options{RateLimit: 10000})
	resp, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	start := time.Now()
	n, err := io.Copy(io.Discard, resp.Body)
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), n)
	assert.GreaterOrEqual(t, time.Since(start), 800*time.Millisecond)
}
