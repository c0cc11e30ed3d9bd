// Package metrics exposes Prometheus collectors for HTTP traffic and imports.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sales-service/internal/models"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	imports        *prometheus.CounterVec
	importRows     *prometheus.CounterVec
	batches        *prometheus.CounterVec
	batchDuration  prometheus.Histogram
	importDuration prometheus.Histogram
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(namespace, subsystem string, reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		imports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "imports_total",
			Help:      "Finished uploads by final status.",
		}, []string{"status"}),
		importRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "import_rows_total",
			Help:      "Source rows by outcome.",
		}, []string{"outcome"}),
		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "import_batches_total",
			Help:      "Batch transactions by outcome.",
		}, []string{"outcome"}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "import_batch_duration_seconds",
			Help:      "Batch transaction latency including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		importDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "import_duration_seconds",
			Help:      "Whole upload processing time.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

// Middleware records request counts and latency per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() gin.HandlerFunc {
	var h http.Handler
	if m == nil {
		h = promhttp.Handler()
	} else {
		h = promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	}
	return gin.WrapH(h)
}

// ObserveBatch records one batch outcome
func (m *Metrics) ObserveBatch(result models.BatchResult) {
	if m == nil {
		return
	}
	outcome := "committed"
	if !result.Success {
		outcome = "failed"
	}
	m.batches.WithLabelValues(outcome).Inc()
	m.batchDuration.Observe(float64(result.DurationMs) / 1000)
}

// ObserveImport records the totals of a finished upload
func (m *Metrics) ObserveImport(report *models.ImportReport) {
	if m == nil || report == nil {
		return
	}
	m.imports.WithLabelValues(string(report.Status)).Inc()
	m.importRows.WithLabelValues("persisted").Add(float64(report.PersistedRows))
	m.importRows.WithLabelValues("invalid").Add(float64(report.InvalidRows))
	m.importRows.WithLabelValues("failed").Add(float64(report.FailedRows))
	m.importDuration.Observe(float64(report.ProcessingMs) / 1000)
}
