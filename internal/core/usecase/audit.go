package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mlevkov/claimaudit/internal/core/domain"
	"github.com/mlevkov/claimaudit/internal/core/ports"
)

// AuditClaimUseCase runs the full pipeline over one stored document:
// analysis, field extraction, rule validation, risk scoring, report
// composition. Stages degrade internally, so the only errors this use
// case returns are context cancellation and contract violations.
type AuditClaimUseCase struct {
	analyzer  ports.DocumentAnalyzer
	extractor ports.FieldExtractor
	validator ports.RuleValidator
	scorer    ports.RiskScorer
	composer  ports.ReportComposer
	storage   ports.ObjectStorage
	logger    *slog.Logger
}

func NewAuditClaimUseCase(
	analyzer ports.DocumentAnalyzer,
	extractor ports.FieldExtractor,
	validator ports.RuleValidator,
	scorer ports.RiskScorer,
	composer ports.ReportComposer,
	storage ports.ObjectStorage,
	logger *slog.Logger,
) *AuditClaimUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditClaimUseCase{
		analyzer:  analyzer,
		extractor: extractor,
		validator: validator,
		scorer:    scorer,
		composer:  composer,
		storage:   storage,
		logger:    logger,
	}
}

func (uc *AuditClaimUseCase) Audit(ctx context.Context, source, language string) (*domain.AuditResult, error) {
	if strings.TrimSpace(source) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "audit", fmt.Errorf("empty document source"))
	}

	runID := uuid.NewString()
	result := &domain.AuditResult{RunID: runID}
	uc.logger.Info("audit_started", "run_id", runID, "source", source, "language", language)

	// Stage 1: document analysis.
	start := time.Now()
	payload := uc.analyzer.Analyze(ctx, source)
	result.Payload = payload
	result.Stages = append(result.Stages, stageStatus("document_analysis", payload.Kind.IsReadable(), start, map[string]string{
		"kind":       string(payload.Kind),
		"confidence": strconv.FormatFloat(payload.Confidence, 'f', 2, 64),
	}))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: field extraction.
	start = time.Now()
	fields := uc.extractor.Extract(ctx, payload)
	result.Stages = append(result.Stages, stageStatus("field_extraction", fields.ExtractionError == "", start, map[string]string{
		"source": fields.Source,
	}))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: rule validation.
	start = time.Now()
	validation := uc.validator.Validate(fields)
	result.Validation = validation
	result.Stages = append(result.Stages, stageStatus("rule_validation", validation.Valid, start, map[string]string{
		"violations": strconv.Itoa(len(validation.Violations)),
	}))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: risk scoring. The scorer may rewrite fields in place when
	// the collaboration re-query returns better values.
	start = time.Now()
	assessment := uc.scorer.Score(ctx, &fields, validation, &payload)
	if assessment.Score < 0 || assessment.Score > 100 {
		return nil, domain.WrapError(domain.ErrContract, "audit.risk_scoring",
			fmt.Errorf("risk score %d outside [0, 100]", assessment.Score))
	}
	result.Payload = payload
	result.Fields = fields
	result.Assessment = assessment
	result.Stages = append(result.Stages, stageStatus("risk_scoring", assessment.ModelAssisted, start, map[string]string{
		"score":         strconv.Itoa(assessment.Score),
		"level":         string(assessment.Level),
		"collaboration": string(assessment.Collaboration),
	}))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 5: report composition.
	start = time.Now()
	report := uc.composer.Compose(ctx, assessment, fields, language)
	result.Report = report
	result.Stages = append(result.Stages, stageStatus("report_composition", report.Content != "", start, map[string]string{
		"recommendation": string(report.Recommendation),
		"language":       report.Language,
	}))

	uc.persistReport(ctx, result)

	uc.logger.Info("audit_finished",
		"run_id", runID,
		"score", assessment.Score,
		"level", assessment.Level,
		"recommendation", report.Recommendation,
	)
	return result, nil
}

// persistReport writes the rendered report next to the claim documents.
// Failures degrade to an unset ReportKey, the run itself still succeeds.
func (uc *AuditClaimUseCase) persistReport(ctx context.Context, result *domain.AuditResult) {
	key := fmt.Sprintf("reports/%s.txt", result.RunID)
	if err := uc.storage.Save(ctx, key, strings.NewReader(result.Report.Content)); err != nil {
		uc.logger.Warn("report_save_failed", "run_id", result.RunID, "key", key, "error", err)
		return
	}
	result.ReportKey = key
}

func stageStatus(name string, success bool, start time.Time, detail map[string]string) domain.StageStatus {
	return domain.StageStatus{
		Name:       name,
		Success:    success,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000.0,
		Detail:     detail,
	}
}
