// Package metrics exposes the Prometheus instrumentation for the tutor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the tutor's counters behind one registry so tests can
// run with an isolated instance.
type Metrics struct {
	registry *prometheus.Registry

	// HintLevel observes the generation depth (attempt count) that
	// produced each question.
	HintLevel prometheus.Histogram

	// TurnsPerSession observes the turn count of each ended session.
	TurnsPerSession prometheus.Summary

	// DropOffs counts sessions that ended after a single exchange.
	DropOffs prometheus.Counter

	// BlockedPrompts counts turns answered with a fallback question
	// instead of a generated one.
	BlockedPrompts prometheus.Counter

	// ActiveSessions tracks the size of the session registry.
	ActiveSessions prometheus.Gauge
}

// New builds a Metrics instance backed by its own registry, with the
// standard Go process collectors attached.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HintLevel: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hint_level_distribution",
			Help:    "Distribution of hint levels or depth provided to students",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
		TurnsPerSession: prometheus.NewSummary(prometheus.SummaryOpts{
			Name:       "avg_turns_per_session",
			Help:       "Average number of turns per chat session",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
		DropOffs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drop_off_rate",
			Help: "Number of sessions dropped after the first response",
		}),
		BlockedPrompts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blocked_prompts",
			Help: "Number of answer-seeking prompts that were blocked",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of currently active chat sessions",
		}),
	}

	reg.MustRegister(m.HintLevel, m.TurnsPerSession, m.DropOffs, m.BlockedPrompts, m.ActiveSessions)
	return m
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
