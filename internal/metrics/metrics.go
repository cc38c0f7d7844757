// Package metrics exposes Prometheus counters and histograms for the risk pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "carelens"

// PipelineMetrics tracks judge, recommendation and analysis outcomes.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	judgeTotal      *prometheus.CounterVec
	recommendTotal  *prometheus.CounterVec
	analyzedTotal   *prometheus.CounterVec
	retrievalTotal  *prometheus.CounterVec
	analysisLatency *prometheus.HistogramVec
}

// NewPipelineMetrics registers the pipeline collectors on reg, or on the
// default registerer when reg is nil.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		judgeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "judge",
			Name:      "assessments_total",
			Help:      "Risk model assessments by domain and status",
		}, []string{"domain", "status"}),
		recommendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "recommendations_total",
			Help:      "Generated recommendations by status",
		}, []string{"status"}),
		analyzedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "conversations_total",
			Help:      "Conversations analyzed by HIV and mental health category",
		}, []string{"hiv_category", "mh_category"}),
		retrievalTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "queries_total",
			Help:      "Guideline retrieval queries by status",
		}, []string{"status"}),
		analysisLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Per-conversation analysis latency",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"llm"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.judgeTotal, m.recommendTotal, m.analyzedTotal, m.retrievalTotal, m.analysisLatency)
	return m
}

func (m *PipelineMetrics) ObserveJudge(domain, status string) {
	if m == nil {
		return
	}
	m.judgeTotal.WithLabelValues(domain, status).Inc()
}

func (m *PipelineMetrics) ObserveRecommendation(status string) {
	if m == nil {
		return
	}
	m.recommendTotal.WithLabelValues(status).Inc()
}

func (m *PipelineMetrics) ObserveRetrieval(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.retrievalTotal.WithLabelValues(status).Inc()
}

// ObserveAnalysis records one finished conversation. configured reports
// whether a generative model took part.
func (m *PipelineMetrics) ObserveAnalysis(hivCategory, mhCategory string, configured bool, seconds float64) {
	if m == nil {
		return
	}
	m.analyzedTotal.WithLabelValues(hivCategory, mhCategory).Inc()
	label := "unconfigured"
	if configured {
		label = "configured"
	}
	m.analysisLatency.WithLabelValues(label).Observe(seconds)
}
