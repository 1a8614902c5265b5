// metrics.go - Prometheus metrics for downloads and HTTP traffic.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var requestDurationBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// Metrics holds the collectors for one server. Each server owns its registry
// so tests can build servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	downloadsTotal      *prometheus.CounterVec
	downloadBytesTotal  *prometheus.CounterVec
	downloadErrorsTotal *prometheus.CounterVec
	notFoundTotal       prometheus.Counter
	rateLimitedTotal    prometheus.Counter
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics(build BuildInfo) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csv_http_requests_total",
			Help: "Total number of HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "csv_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: requestDurationBuckets,
		}, []string{"method"}),
		downloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csv_downloads_total",
			Help: "Total number of completed file downloads.",
		}, []string{"file"}),
		downloadBytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csv_download_bytes_total",
			Help: "Total number of bytes sent for file downloads.",
		}, []string{"file"}),
		downloadErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csv_download_errors_total",
			Help: "Downloads of allow-listed files that failed on disk.",
		}, []string{"file"}),
		notFoundTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csv_not_found_total",
			Help: "Requests for filenames outside the allow-list.",
		}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csv_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}

	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "csv_build_info",
		Help:        "Build information.",
		ConstLabels: prometheus.Labels{"version": build.Version, "commit": build.Commit},
	})
	info.Set(1)

	start := time.Now()
	uptime := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "csv_uptime_seconds",
		Help: "Seconds since the server was created.",
	}, func() float64 {
		return time.Since(start).Seconds()
	})

	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.downloadsTotal,
		m.downloadBytesTotal,
		m.downloadErrorsTotal,
		m.notFoundTotal,
		m.rateLimitedTotal,
		info,
		uptime,
	)

	return m
}

// RecordRequest records one finished HTTP request.
func (m *Metrics) RecordRequest(method string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordDownload records a successful download of an allow-listed file.
func (m *Metrics) RecordDownload(file string, bytes int64) {
	m.downloadsTotal.WithLabelValues(file).Inc()
	m.downloadBytesTotal.WithLabelValues(file).Add(float64(bytes))
}

// RecordDownloadError records a disk failure for an allow-listed file.
func (m *Metrics) RecordDownloadError(file string) {
	m.downloadErrorsTotal.WithLabelValues(file).Inc()
}

// RecordNotFound records a request for a key outside the allow-list.
// The key itself is not used as a label to keep cardinality bounded.
func (m *Metrics) RecordNotFound() {
	m.notFoundTotal.Inc()
}

// RecordRateLimited records a request rejected with 429.
func (m *Metrics) RecordRateLimited() {
	m.rateLimitedTotal.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
