// Package metrics exposes Prometheus collectors for the facade service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facade"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	jobs            *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	staticFetches   *prometheus.CounterVec
	panoramaLookups *prometheus.CounterVec
	jobInFlight     prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		jobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Transformation jobs by terminal outcome",
			},
			[]string{"outcome"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of job stages",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"stage"},
		),
		staticFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "static_fetch_total",
				Help:      "Street View still-image requests by HTTP status",
			},
			[]string{"status"},
		),
		panoramaLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "panorama_lookups_total",
				Help:      "Street View metadata lookups by result",
			},
			[]string{"result"},
		),
		jobInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "job_in_flight",
				Help:      "1 while a transformation job is capturing or transforming",
			},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// JobFinished counts a terminal job outcome (succeeded, failed, rejected).
func (m *Metrics) JobFinished(outcome string) {
	m.jobs.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a job stage took.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// SetJobInFlight toggles the in-flight gauge.
func (m *Metrics) SetJobInFlight(active bool) {
	if active {
		m.jobInFlight.Set(1)
		return
	}
	m.jobInFlight.Set(0)
}

// StaticFetch counts a still-image request by status.
func (m *Metrics) StaticFetch(status string) {
	m.staticFetches.WithLabelValues(status).Inc()
}

// PanoramaLookup counts a metadata lookup by result.
func (m *Metrics) PanoramaLookup(result string) {
	m.panoramaLookups.WithLabelValues(result).Inc()
}
