package fdsearch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes search and selector counters. A nil *Metrics is valid and
// records nothing, so components never need to check for it.
type Metrics struct {
	lookaheads    *prometheus.CounterVec
	speculative   *prometheus.CounterVec
	pruned        prometheus.Counter
	escalations   prometheus.Counter
	relaxAttempts prometheus.Counter
	nodes         prometheus.Counter
	fails         prometheus.Counter
	solutions     prometheus.Counter
}

// NewMetrics registers the counters on reg. Use a fresh registry per
// portfolio worker or share one; the counters are safe for concurrent use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		lookaheads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gokanbest",
			Subsystem: "search",
			Name:      "lookahead_evaluations_total",
			Help:      "Speculative candidate evaluations by propagation mode.",
		}, []string{"mode"}),
		speculative: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gokanbest",
			Subsystem: "search",
			Name:      "speculative_contradictions_total",
			Help:      "Contradictions absorbed inside a speculative checkpoint.",
		}, []string{"family"}),
		pruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gokanbest",
			Subsystem: "search",
			Name:      "pruned_values_total",
			Help:      "Values permanently removed after failing lookahead.",
		}),
		escalations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gokanbest",
			Subsystem: "search",
			Name:      "relaxation_escalations_total",
			Help:      "Times the initial relaxation step was doubled.",
		}),
		relaxAttempts: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gokanbest",
			Subsystem: "search",
			Name:      "relaxation_attempts_total",
			Help:      "Objective bound tightenings tried by relaxation selectors.",
		}),
		nodes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gokanbest",
			Subsystem: "search",
			Name:      "nodes_total",
			Help:      "Search nodes explored.",
		}),
		fails: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gokanbest",
			Subsystem: "search",
			Name:      "fails_total",
			Help:      "Failed search nodes.",
		}),
		solutions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gokanbest",
			Subsystem: "search",
			Name:      "solutions_total",
			Help:      "Solutions found.",
		}),
	}
}

func (m *Metrics) lookahead(mode PropagationMode) {
	if m != nil {
		m.lookaheads.WithLabelValues(mode.String()).Inc()
	}
}

func (m *Metrics) absorbed(family string) {
	if m != nil {
		m.speculative.WithLabelValues(family).Inc()
	}
}

func (m *Metrics) prunedValues(n int) {
	if m != nil && n > 0 {
		m.pruned.Add(float64(n))
	}
}

func (m *Metrics) escalated() {
	if m != nil {
		m.escalations.Inc()
	}
}

func (m *Metrics) relaxAttempt() {
	if m != nil {
		m.relaxAttempts.Inc()
	}
}

func (m *Metrics) node() {
	if m != nil {
		m.nodes.Inc()
	}
}

func (m *Metrics) fail() {
	if m != nil {
		m.fails.Inc()
	}
}

func (m *Metrics) solution() {
	if m != nil {
		m.solutions.Inc()
	}
}
