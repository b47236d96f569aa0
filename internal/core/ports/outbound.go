package ports

import (
	"context"
	"io"

	"github.com/mlevkov/claimaudit/internal/core/domain"
)

// TextGenerator is the hosted LLM surface: prompt in, text out. Calls may
// fail after the client's bounded retries; stages translate failures into
// their own fallback values.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	DescribeImage(ctx context.Context, mimeType string, data []byte, prompt string) (string, error)
}

// ObjectStorage stores claim documents and report artifacts.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// DocumentAnalyzer converts a stored document into a DocumentPayload.
// It never fails: every internal fault is converted into an error-kind
// payload so the pipeline always has something to pass downstream.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, source string) domain.DocumentPayload
}

// FieldExtractor produces structured fields from a document payload.
// Both operations degrade to well-formed fallback values instead of
// returning errors.
type FieldExtractor interface {
	Extract(ctx context.Context, payload domain.DocumentPayload) domain.ExtractedFields
	CollaborativeExtract(ctx context.Context, payload domain.DocumentPayload, focusFields []string, requestContext string) domain.CollaborationResult
}

// RuleValidator applies the static business rules. Deterministic, local.
type RuleValidator interface {
	Validate(fields domain.ExtractedFields) domain.ValidationResult
}

// RiskScorer combines rule violations, fraud heuristics and one model
// call into a RiskAssessment. It may overwrite fields in place when the
// collaboration re-query returns higher-confidence values.
type RiskScorer interface {
	Score(ctx context.Context, fields *domain.ExtractedFields, validation domain.ValidationResult, payload *domain.DocumentPayload) domain.RiskAssessment
}

// ReportComposer renders the terminal report for a run.
type ReportComposer interface {
	Compose(ctx context.Context, assessment domain.RiskAssessment, fields domain.ExtractedFields, language string) domain.FinalReport
}
