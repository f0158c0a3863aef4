package prediction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// Metrics holds the collectors shared by every upstream.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	breaker  *prometheus.GaugeVec
}

// NewMetrics creates and registers the upstream collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agropulse",
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Calls to prediction services, by upstream and outcome.",
		}, []string{"upstream", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agropulse",
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Latency of calls to prediction services.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"upstream"}),
		breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "agropulse",
			Subsystem: "upstream",
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"upstream"}),
	}
	reg.MustRegister(m.calls, m.duration, m.breaker)
	return m
}

func (m *Metrics) observe(upstream string, category Category, seconds float64) {
	outcome := string(category)
	if category == CategoryNone {
		outcome = "success"
	}
	m.calls.WithLabelValues(upstream, outcome).Inc()
	m.duration.WithLabelValues(upstream).Observe(seconds)
}

func (m *Metrics) setBreaker(upstream string, state gobreaker.State) {
	m.breaker.WithLabelValues(upstream).Set(float64(state))
}
