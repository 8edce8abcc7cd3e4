package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds the Prometheus metrics exposed by the API server.
// Each server owns its registry so tests can spin up isolated instances.
type MetricsRegistry struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	Predictions     *prometheus.CounterVec
	SweepPoints     prometheus.Counter
	RequestErrors   *prometheus.CounterVec
}

// NewMetricsRegistry creates and registers the API metrics.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpi_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"endpoint", "status"},
		),

		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpi_predictions_total",
				Help: "Total demand predictions served, by confidence tier",
			},
			[]string{"confidence"},
		),

		SweepPoints: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rpi_sweep_points_total",
				Help: "Total price points evaluated by the optimizer",
			},
		),

		RequestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpi_request_errors_total",
				Help: "Total failed API requests by endpoint",
			},
			[]string{"endpoint"},
		),
	}

	m.registry.MustRegister(
		m.RequestDuration,
		m.Predictions,
		m.SweepPoints,
		m.RequestErrors,
	)
	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed request.
func (m *MetricsRegistry) ObserveRequest(endpoint, status string, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(endpoint, status).Observe(elapsed.Seconds())
}
