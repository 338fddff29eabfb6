package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.TaskStarted()
	c.TaskStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(c.InFlight))

	c.TaskFinished("ok", 1024, 2*time.Second)
	c.TaskFinished("connection closed", 0, time.Second)

	assert.Equal(t, 0.0, testutil.ToFloat64(c.InFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Downloads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Downloads.WithLabelValues("connection closed")))
	assert.Equal(t, 1024.0, testutil.ToFloat64(c.DownloadBytes))
	assert.Equal(t, 1, testutil.CollectAndCount(c.DownloadDuration))
}

func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.TaskStarted()
	c.TaskFinished("ok", 10, time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `dlm_downloads_total{outcome="ok"} 1`)
	assert.Contains(t, string(body), "dlm_download_bytes_total 10")

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}
