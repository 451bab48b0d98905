// Package metrics exposes the engine's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements engine.Metrics with Prometheus counters.
type Metrics struct {
	registry *prometheus.Registry

	sessionsStarted   *prometheus.CounterVec
	turnsProcessed    prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionsEscalated prometheus.Counter
	itemsAutoFilled   prometheus.Counter
	researchPasses    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "growbal_sessions_started_total",
			Help: "Onboarding sessions started, by service type.",
		}, []string{"service_type"}),
		turnsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "growbal_turns_processed_total",
			Help: "User turns processed across all sessions.",
		}),
		sessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "growbal_sessions_completed_total",
			Help: "Sessions that reached completion.",
		}),
		sessionsEscalated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "growbal_sessions_escalated_total",
			Help: "Sessions handed off to a human.",
		}),
		itemsAutoFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "growbal_items_autofilled_total",
			Help: "Checklist items auto-filled from research.",
		}),
		researchPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "growbal_research_passes_total",
			Help: "Research passes executed.",
		}),
	}
	m.registry.MustRegister(
		m.sessionsStarted,
		m.turnsProcessed,
		m.sessionsCompleted,
		m.sessionsEscalated,
		m.itemsAutoFilled,
		m.researchPasses,
	)
	return m
}

func (m *Metrics) SessionStarted(serviceType string) {
	m.sessionsStarted.WithLabelValues(serviceType).Inc()
}

func (m *Metrics) TurnProcessed()          { m.turnsProcessed.Inc() }
func (m *Metrics) SessionCompleted()       { m.sessionsCompleted.Inc() }
func (m *Metrics) SessionEscalated(string) { m.sessionsEscalated.Inc() }
func (m *Metrics) ItemAutoFilled()         { m.itemsAutoFilled.Inc() }
func (m *Metrics) ResearchPass()           { m.researchPasses.Inc() }

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
