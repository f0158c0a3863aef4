package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics holds the request collectors shared by every module.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers the request collectors on reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agropulse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by module, method and status code.",
		}, []string{"module", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agropulse",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by module.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"module"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Metrics returns middleware that records request counts and latency under
// the given module label.
func Metrics(m *HTTPMetrics, module string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := Record(w)
			next.ServeHTTP(rec, r)

			m.requests.WithLabelValues(module, r.Method, strconv.Itoa(rec.Status())).Inc()
			m.duration.WithLabelValues(module).Observe(time.Since(start).Seconds())
		})
	}
}
