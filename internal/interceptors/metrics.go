package interceptors

import (
	"context"
	"time"

	"github.com/hanpama/routegraph/internal/middleware"
	"github.com/hanpama/routegraph/internal/request"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts and times dispatches per field.
type Metrics struct {
	Dispatches *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors under namespace and registers them
// with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatches_total",
				Help:      "Total number of resolver dispatches",
			},
			[]string{"field", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Resolver dispatch duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"field"},
		),
	}
	for _, c := range []prometheus.Collector{m.Dispatches, m.Duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware returns the interceptor recording into m.
func (m *Metrics) Middleware() *middleware.Middleware {
	return middleware.Fn(func(_ context.Context, data *request.ResolverData, next middleware.NextFunc, _ []string) (any, error) {
		start := time.Now()
		res, err := next()
		field := label(data)
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.Dispatches.WithLabelValues(field, status).Inc()
		m.Duration.WithLabelValues(field).Observe(time.Since(start).Seconds())
		return res, err
	})
}
