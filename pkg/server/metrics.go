package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	candidates prometheus.Counter
	scraped    prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "titleforge",
			Name:      "operations_total",
			Help:      "Session operations by route and response status.",
		}, []string{"operation", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "titleforge",
			Name:      "operation_duration_seconds",
			Help:      "Session operation latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation"}),
		candidates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "titleforge",
			Name:      "candidates_generated_total",
			Help:      "Title candidates returned to clients.",
		}),
		scraped: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "titleforge",
			Name:      "scraped_titles",
			Help:      "Titles held from the most recent scrape.",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observe(operation string, status int, took time.Duration) {
	m.requests.WithLabelValues(operation, http.StatusText(status)).Inc()
	m.latency.WithLabelValues(operation).Observe(took.Seconds())
}
