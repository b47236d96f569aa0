package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics tracks per-stage behavior of the claim audit pipeline.
type PipelineMetrics struct {
	stageTotal         *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	riskScore          *prometheus.HistogramVec
	collaborationTotal *prometheus.CounterVec
	llmCallsTotal      *prometheus.CounterVec
}

// NewPipelineMetrics registers pipeline collectors on the shared registry so
// both HTTP and pipeline series are served from one /metrics endpoint.
func NewPipelineMetrics(server *HTTPServerMetrics) *PipelineMetrics {
	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimaudit",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Total pipeline stage executions by stage and status.",
		},
		[]string{"service", "stage", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "claimaudit",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage"},
	)
	riskScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "claimaudit",
			Subsystem: "pipeline",
			Name:      "risk_score",
			Help:      "Distribution of final risk scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"service"},
	)
	collaborationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimaudit",
			Subsystem: "pipeline",
			Name:      "collaboration_total",
			Help:      "Total collaboration re-queries by outcome.",
		},
		[]string{"service", "outcome"},
	)
	llmCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimaudit",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total model calls by operation and status.",
		},
		[]string{"service", "operation", "status"},
	)

	server.registry.MustRegister(stageTotal, stageDuration, riskScore, collaborationTotal, llmCallsTotal)

	return &PipelineMetrics{
		stageTotal:         stageTotal,
		stageDuration:      stageDuration,
		riskScore:          riskScore,
		collaborationTotal: collaborationTotal,
		llmCallsTotal:      llmCallsTotal,
	}
}

func (m *PipelineMetrics) RecordStage(service, stage string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "degraded"
	}
	m.stageTotal.WithLabelValues(service, stage, status).Inc()
	m.stageDuration.WithLabelValues(service, stage).Observe(duration.Seconds())
}

func (m *PipelineMetrics) RecordRiskScore(service string, score int) {
	m.riskScore.WithLabelValues(service).Observe(float64(score))
}

func (m *PipelineMetrics) RecordCollaboration(service, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.collaborationTotal.WithLabelValues(service, outcome).Inc()
}

func (m *PipelineMetrics) RecordLLMCall(service, operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.llmCallsTotal.WithLabelValues(service, operation, status).Inc()
}
