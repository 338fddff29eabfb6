package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dlm"

// Collector records download task metrics.
type Collector struct {
	Downloads        *prometheus.CounterVec
	DownloadBytes    prometheus.Counter
	DownloadDuration prometheus.Histogram
	InFlight         prometheus.Gauge
}

// NewCollector registers the download metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		Downloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Total number of finished downloads by outcome",
		}, []string{"outcome"}),

		DownloadBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_bytes_total",
			Help:      "Total bytes downloaded",
		}),

		DownloadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Download duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "downloads_in_flight",
			Help:      "Number of downloads currently holding a lane",
		}),
	}
}

// TaskStarted implements download.Recorder.
func (c *Collector) TaskStarted() {
	c.InFlight.Inc()
}

// TaskFinished implements download.Recorder. kind is "ok", "skipped" or an
// error kind.
func (c *Collector) TaskFinished(kind string, bytes int64, elapsed time.Duration) {
	c.InFlight.Dec()
	c.Downloads.WithLabelValues(kind).Inc()
	if bytes > 0 {
		c.DownloadBytes.Add(float64(bytes))
	}
	c.DownloadDuration.Observe(elapsed.Seconds())
}

// Handler serves /metrics from g and a /healthz probe.
func Handler(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	return r
}
