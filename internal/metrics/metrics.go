// Package metrics exports query observations to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
)

// QueryMetrics is a bayes.QueryObserver recording query latency, enumerated
// assignments and failures by error kind.
type QueryMetrics struct {
	Duration    prometheus.Histogram
	Assignments prometheus.Counter
	Errors      *prometheus.CounterVec
}

// NewQueryMetrics creates the query metrics and registers them with reg.
func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bayes_query_duration_seconds",
		Help:    "Wall-clock duration of enumeration queries",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	assignments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bayes_query_assignments_total",
		Help: "Total number of full assignments evaluated by queries",
	})

	errors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bayes_query_errors_total",
		Help: "Total number of failed queries by error kind",
	}, []string{"kind"})

	reg.MustRegister(duration, assignments, errors)

	return &QueryMetrics{
		Duration:    duration,
		Assignments: assignments,
		Errors:      errors,
	}
}

func (m *QueryMetrics) ObserveQuery(ev bayes.QueryEvent) {
	m.Duration.Observe(ev.Duration.Seconds())
	m.Assignments.Add(float64(ev.Assignments))
	if ev.Err != nil {
		kind := bayes.Kind(ev.Err)
		if kind == "" {
			kind = "other"
		}
		m.Errors.WithLabelValues(kind).Inc()
	}
}
