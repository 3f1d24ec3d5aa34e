package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/escrowledger/internal/infrastructure/metrics"
)

// MetricsMiddleware records HTTP request metrics.
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

// NewMetricsMiddleware creates a new MetricsMiddleware.
func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

// Wrap wraps an http.Handler with metrics collection.
func (m *MetricsMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := normalizePath(r.URL.Path)
		m.metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		m.metrics.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// normalizePath collapses path parameters to keep label cardinality low.
// /api/v1/escrows/4dd2...c1 -> /api/v1/escrows/:reference
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) < 4 || parts[1] != "api" || parts[2] != "v1" {
		return path
	}

	switch parts[3] {
	case "escrows":
		if len(parts) > 4 {
			parts[4] = ":reference"
		}
	case "identities":
		if len(parts) > 4 {
			parts[4] = ":identity"
		}
		if len(parts) > 6 && parts[5] == "accounts" {
			parts[6] = ":account"
		}
		if len(parts) > 8 && parts[7] == "postings" {
			parts[8] = ":index"
		}
	case "accounts":
		if len(parts) > 4 {
			parts[4] = ":account"
		}
	case "custody":
		if len(parts) > 4 {
			parts[4] = ":account"
		}
	}

	return strings.Join(parts, "/")
}
