package bootstrap

import (
	"context"
	"time"

	"github.com/mlevkov/claimaudit/internal/core/domain"
	"github.com/mlevkov/claimaudit/internal/core/ports"
	"github.com/mlevkov/claimaudit/internal/observability/metrics"
)

const pipelineService = "claimaudit-pipeline"

type instrumentedGenerator struct {
	next    ports.TextGenerator
	metrics *metrics.PipelineMetrics
}

func instrumentGenerator(next ports.TextGenerator, m *metrics.PipelineMetrics) ports.TextGenerator {
	return &instrumentedGenerator{next: next, metrics: m}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := g.next.Generate(ctx, prompt)
	g.metrics.RecordLLMCall(pipelineService, "generate", err)
	return text, err
}

func (g *instrumentedGenerator) DescribeImage(ctx context.Context, mimeType string, data []byte, prompt string) (string, error) {
	text, err := g.next.DescribeImage(ctx, mimeType, data, prompt)
	g.metrics.RecordLLMCall(pipelineService, "describe_image", err)
	return text, err
}

type instrumentedAuditor struct {
	next    ports.ClaimAuditor
	metrics *metrics.PipelineMetrics
}

func instrumentAuditor(next ports.ClaimAuditor, m *metrics.PipelineMetrics) ports.ClaimAuditor {
	return &instrumentedAuditor{next: next, metrics: m}
}

func (a *instrumentedAuditor) Audit(ctx context.Context, source, language string) (*domain.AuditResult, error) {
	result, err := a.next.Audit(ctx, source, language)
	if err != nil {
		return nil, err
	}

	for _, stage := range result.Stages {
		a.metrics.RecordStage(pipelineService, stage.Name, stage.Success,
			time.Duration(stage.DurationMS*float64(time.Millisecond)))
	}
	a.metrics.RecordRiskScore(pipelineService, result.Assessment.Score)
	a.metrics.RecordCollaboration(pipelineService, string(result.Assessment.Collaboration))
	return result, nil
}
