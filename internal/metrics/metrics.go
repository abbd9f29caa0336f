// Package metrics exposes payload builder metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Build failure reasons.
const (
	ReasonSchema   = "schema"
	ReasonCallback = "callback"
	ReasonTooLarge = "too_large"
	ReasonEmit     = "emit"
	ReasonOther    = "other"
)

// Metrics holds the collectors of one process on a private registry,
// so independent instances never collide.
type Metrics struct {
	registry *prometheus.Registry

	payloads      *prometheus.CounterVec
	records       prometheus.Counter
	skipped       prometheus.Counter
	payloadBytes  prometheus.Histogram
	buildDuration prometheus.Histogram
	reloads       *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		payloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "log_payload_builds_total",
			Help: "Payload builds by outcome",
		}, []string{"status", "reason"}),
		records: factory.NewCounter(prometheus.CounterOpts{
			Name: "log_payload_records_total",
			Help: "Records encoded into emitted payloads",
		}),
		skipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "log_payload_filtered_total",
			Help: "Raw messages dropped by the filter",
		}),
		payloadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "log_payload_compressed_bytes",
			Help:    "Size of emitted compressed payloads",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}),
		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "log_payload_build_duration_seconds",
			Help: "Duration of payload builds",
		}),
		reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "log_payload_config_reloads_total",
			Help: "Configuration reloads by outcome",
		}, []string{"status"}),
	}
}

// BuildSucceeded records an emitted payload.
func (m *Metrics) BuildSucceeded(records, skipped, compressed int, d time.Duration) {
	m.payloads.WithLabelValues("ok", "").Inc()
	m.records.Add(float64(records))
	m.skipped.Add(float64(skipped))
	m.payloadBytes.Observe(float64(compressed))
	m.buildDuration.Observe(d.Seconds())
}

// BuildFailed records a build or emit failure.
func (m *Metrics) BuildFailed(reason string, d time.Duration) {
	m.payloads.WithLabelValues("error", reason).Inc()
	m.buildDuration.Observe(d.Seconds())
}

// ConfigReloaded records a configuration reload attempt.
func (m *Metrics) ConfigReloaded(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.reloads.WithLabelValues(status).Inc()
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
