package client

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for statements run by a client
type Metrics struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pgquery",
				Name:      "queries_total",
				Help:      "Total number of statements executed, by provider and status.",
			},
			[]string{"provider", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pgquery",
				Name:      "query_duration_seconds",
				Help:      "Statement execution time in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.queries, m.duration)
	}
	return m
}

// Middleware returns a middleware recording every statement
func (m *Metrics) Middleware() Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()

		status := "ok"
		if err != nil {
			status = "error"
		}
		m.queries.WithLabelValues(event.Provider, status).Inc()
		m.duration.WithLabelValues(event.Provider).Observe(event.Duration.Seconds())

		return err
	}
}

// Queries returns the counter for the given provider and status
func (m *Metrics) Queries(provider, status string) prometheus.Counter {
	return m.queries.WithLabelValues(provider, status)
}
