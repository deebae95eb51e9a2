// Package metrics holds the Prometheus collectors for the registry.
//
// Every recorder method is safe to call on a nil *Metrics so services and
// tests can run without a registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "guildhall"

// Metrics groups the registry collectors and the registry that owns them
type Metrics struct {
	registry   *prometheus.Registry
	mutations  *prometheus.CounterVec
	published  *prometheus.CounterVec
	dropped    prometheus.Counter
	cached     *prometheus.GaugeVec
	violations prometheus.Gauge
}

// New creates collectors on a fresh registry that also exports Go runtime
// and process metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Registry mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Change events published on the event bus.",
		}, []string{"event"}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Change events dropped because a subscriber buffer was full.",
		}),
		cached: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_entities",
			Help:      "Entities held in the in-memory cache.",
		}, []string{"collection"}),
		violations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invariant_violations",
			Help:      "Relational invariant violations found by the last audit.",
		}),
	}
}

// Mutation counts one registry operation
func (m *Metrics) Mutation(operation, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation, outcome).Inc()
}

// EventPublished counts one published event
func (m *Metrics) EventPublished(event string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(event).Inc()
}

// EventDropped counts one event a subscriber never received
func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

// SetCached records the size of a cached collection
func (m *Metrics) SetCached(collection string, n int) {
	if m == nil {
		return
	}
	m.cached.WithLabelValues(collection).Set(float64(n))
}

// SetViolations records the result of the last invariant audit
func (m *Metrics) SetViolations(n int) {
	if m == nil {
		return
	}
	m.violations.Set(float64(n))
}

// Registry exposes the underlying registry for gathering in tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
