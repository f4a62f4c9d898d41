// Package metrics exports router metrics in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/intentgate/router"
)

// RouterMetrics implements router.Observer and exposes the collected
// metrics over /metrics.
type RouterMetrics struct {
	registry *prometheus.Registry

	turnLatency  *prometheus.HistogramVec
	decisions    *prometheus.CounterVec
	gates        *prometheus.CounterVec
	lowConfident prometheus.Counter
}

// Config configures the exporter.
type Config struct {
	// Registry to use; a fresh one is created when nil.
	Registry *prometheus.Registry

	// Buckets for latency histograms, in seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns buckets suitable for a rule layer measured in
// microseconds and a fallback layer measured in seconds.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}
}

// NewRouterMetrics creates and registers the metric vectors.
func NewRouterMetrics(cfg Config) *RouterMetrics {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &RouterMetrics{registry: registry}

	m.turnLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "intentgate",
			Subsystem: "router",
			Name:      "turn_latency_seconds",
			Help:      "Turn handling latency by stage",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"stage"},
	)

	m.decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intentgate",
			Subsystem: "router",
			Name:      "decisions_total",
			Help:      "Routing decisions by intent, route and deciding layer",
		},
		[]string{"intent", "route", "layer"},
	)

	m.gates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intentgate",
			Subsystem: "router",
			Name:      "gates_total",
			Help:      "Safety gates fired by kind",
		},
		[]string{"kind"},
	)

	m.lowConfident = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "intentgate",
			Subsystem: "router",
			Name:      "low_confidence_decisions_total",
			Help:      "Finalized decisions below the fallback threshold",
		},
	)

	registry.MustRegister(m.turnLatency, m.decisions, m.gates, m.lowConfident)
	return m
}

// ObserveTurn implements router.Observer.
func (m *RouterMetrics) ObserveTurn(obs router.TurnObservation) {
	m.turnLatency.WithLabelValues("total").Observe(obs.TotalLatency.Seconds())
	if obs.RuleLatency > 0 {
		m.turnLatency.WithLabelValues("rule").Observe(obs.RuleLatency.Seconds())
	}
	if obs.FallbackLatency > 0 {
		m.turnLatency.WithLabelValues("fallback").Observe(obs.FallbackLatency.Seconds())
	}

	m.decisions.WithLabelValues(string(obs.Intent), string(obs.Route), obs.Layer).Inc()

	if obs.ClarifyFired {
		m.gates.WithLabelValues("clarification").Inc()
	}
	if obs.ConfirmFired {
		m.gates.WithLabelValues("confirmation").Inc()
	}
	if !obs.ClarifyFired && !obs.ConfirmFired && obs.Confidence < 0.85 {
		m.lowConfident.Inc()
	}
}

// Handler returns the /metrics HTTP handler.
func (m *RouterMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
