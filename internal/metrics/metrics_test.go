package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestPipelineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.ObserveJudge("hiv", "ok")
	m.ObserveJudge("hiv", "ok")
	m.ObserveJudge("mental_health", "error")
	m.ObserveRecommendation("unconfigured")
	m.ObserveRetrieval(nil)
	m.ObserveRetrieval(errors.New("boom"))
	m.ObserveAnalysis("HIGH", "LOW", true, 1.5)

	assert.Equal(t, 2.0, counterValue(t, reg, "carelens_judge_assessments_total", map[string]string{"domain": "hiv", "status": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "carelens_judge_assessments_total", map[string]string{"domain": "mental_health", "status": "error"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "carelens_recommend_recommendations_total", map[string]string{"status": "unconfigured"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "carelens_retrieval_queries_total", map[string]string{"status": "error"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "carelens_analysis_conversations_total", map[string]string{"hiv_category": "HIGH", "mh_category": "LOW"}))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.ObserveJudge("hiv", "ok")
		m.ObserveRecommendation("ok")
		m.ObserveRetrieval(nil)
		m.ObserveAnalysis("LOW", "LOW", false, 0.1)
	})
}
