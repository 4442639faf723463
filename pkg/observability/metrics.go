package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors for a decision engine. A nil
// *Metrics is valid and records nothing, so instrumentation stays optional.
type Metrics struct {
	evaluationPasses   prometheus.Counter
	evaluationDuration prometheus.Histogram
	rulesTriggered     *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	factSourceErrors   prometheus.Counter
	dispatchErrors     *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		evaluationPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riposte_evaluation_passes_total",
			Help: "Total number of rule evaluation passes run by the polling loop",
		}),
		evaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "riposte_evaluation_duration_seconds",
			Help:    "Duration of a single evaluation pass, facts to dispatched actions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}),
		rulesTriggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riposte_rules_triggered_total",
			Help: "Total number of rule triggers by rule name and action",
		}, []string{"rule", "action"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riposte_transitions_total",
			Help: "Total number of state transitions by target state",
		}, []string{"to"}),
		factSourceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riposte_fact_source_errors_total",
			Help: "Total number of failed fact reads, each one a skipped pass",
		}),
		dispatchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riposte_dispatch_errors_total",
			Help: "Total number of failed action dispatches by action",
		}, []string{"action"}),
	}
	reg.MustRegister(
		m.evaluationPasses,
		m.evaluationDuration,
		m.rulesTriggered,
		m.transitions,
		m.factSourceErrors,
		m.dispatchErrors,
	)
	return m
}

// ObserveEvaluationPass records one completed pass and its duration.
func (m *Metrics) ObserveEvaluationPass(seconds float64) {
	if m == nil {
		return
	}
	m.evaluationPasses.Inc()
	m.evaluationDuration.Observe(seconds)
}

// ObserveRuleTriggered records one rule trigger.
func (m *Metrics) ObserveRuleTriggered(rule, action string) {
	if m == nil {
		return
	}
	m.rulesTriggered.WithLabelValues(rule, action).Inc()
}

// ObserveTransition records one state change.
func (m *Metrics) ObserveTransition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

// ObserveFactSourceError records one failed fact read.
func (m *Metrics) ObserveFactSourceError() {
	if m == nil {
		return
	}
	m.factSourceErrors.Inc()
}

// ObserveDispatchError records one failed action dispatch.
func (m *Metrics) ObserveDispatchError(action string) {
	if m == nil {
		return
	}
	m.dispatchErrors.WithLabelValues(action).Inc()
}
