package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveEvaluationPass(0.002)
	m.ObserveEvaluationPass(0.004)
	m.ObserveRuleTriggered("flee-when-hurt", "Flee")
	m.ObserveRuleTriggered("flee-when-hurt", "Flee")
	m.ObserveTransition("Fighting")
	m.ObserveFactSourceError()
	m.ObserveDispatchError("Flee")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.evaluationPasses))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.rulesTriggered.WithLabelValues("flee-when-hurt", "Flee")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transitions.WithLabelValues("Fighting")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.factSourceErrors))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.dispatchErrors.WithLabelValues("Flee")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvaluationPass(0.1)
		m.ObserveRuleTriggered("r", "a")
		m.ObserveTransition("s")
		m.ObserveFactSourceError()
		m.ObserveDispatchError("a")
	})
}
