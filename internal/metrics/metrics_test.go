package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"sales-service/internal/models"
)

func TestMetrics_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("test", "sales", prometheus.NewRegistry())

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/heartbeat", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/heartbeat", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/heartbeat", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_sales_http_requests_total")
}

func TestMetrics_ObserveImport(t *testing.T) {
	m := New("test", "sales", prometheus.NewRegistry())

	m.ObserveBatch(models.BatchResult{Success: true, DurationMs: 20})
	m.ObserveBatch(models.BatchResult{Success: false, DurationMs: 5})
	m.ObserveImport(&models.ImportReport{
		Status:        models.ImportStatusPartial,
		PersistedRows: 10,
		InvalidRows:   2,
		FailedRows:    3,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues("PARTIAL")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.importRows.WithLabelValues("persisted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.importRows.WithLabelValues("failed")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBatch(models.BatchResult{})
		m.ObserveImport(&models.ImportReport{})
	})
}
