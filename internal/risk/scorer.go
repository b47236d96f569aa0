// Package risk implements the risk-scoring stage: additive rule-based
// penalties, deterministic fraud-pattern checks, document-kind
// adjustments, one model call for a qualitative assessment, and the
// low-confidence collaboration re-query back into the field extractor.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mlevkov/claimaudit/internal/core/domain"
	"github.com/mlevkov/claimaudit/internal/core/ports"
	"github.com/mlevkov/claimaudit/internal/extract"
	"github.com/mlevkov/claimaudit/internal/parsing"
)

const (
	collaborationThreshold = 0.7
	collaborationDeltaMin  = -20
	collaborationDeltaMax  = 30

	smallImageBytes = 50_000
)

var responseKeys = []string{
	"RISK_LEVEL",
	"FRAUD_INDICATORS",
	"SIU_REFERRAL",
	"PRIORITY",
	"SETTLEMENT_LOW",
	"SETTLEMENT_HIGH",
	"ANALYSIS",
}

const fallbackAnalysis = "Automated qualitative analysis was unavailable; the assessment reflects rule-based and pattern-based signals only."

type Scorer struct {
	gen          ports.TextGenerator
	collaborator ports.FieldExtractor
	logger       *slog.Logger
}

// NewScorer builds the stage. collaborator may be nil, in which case the
// re-query step is reported as unavailable.
func NewScorer(gen ports.TextGenerator, collaborator ports.FieldExtractor, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{gen: gen, collaborator: collaborator, logger: logger}
}

// modelOpinion is the parsed qualitative assessment from the model call,
// or its conservative stand-in when the call failed.
type modelOpinion struct {
	level      domain.RiskLevel
	levelKnown bool
	indicators []string
	siu        bool
	priority   domain.ProcessingPriority
	priorityOK bool
	settlement *domain.SettlementRange
	analysis   string
	degraded   bool
}

// Score follows a fixed additive order for reproducibility: validation
// penalties, fraud patterns, document adjustments, model bonus,
// collaboration delta, then clamping and the derived decisions.
func (s *Scorer) Score(
	ctx context.Context,
	fields *domain.ExtractedFields,
	validation domain.ValidationResult,
	payload *domain.DocumentPayload,
) domain.RiskAssessment {
	score := 0
	factors := []string{}
	indicators := []string{}

	score += s.applyValidationPenalties(validation, &factors)
	score += s.applyFraudPatterns(*fields, &factors, &indicators)
	score += s.applyDocumentAdjustments(payload, &factors, &indicators)

	opinion := s.consultModel(ctx, *fields, validation, indicators, score)
	score += levelBonus(opinion)
	indicators = append(indicators, opinion.indicators...)

	outcome, delta := s.collaborate(ctx, fields, payload, opinion, &factors, &indicators)
	score += delta

	score = domain.ClampScore(score)
	level := domain.RiskLevelForScore(score)

	assessment := domain.RiskAssessment{
		Score:                 score,
		Level:                 level,
		RiskFactors:           factors,
		FraudIndicators:       indicators,
		AutoApproveEligible:   score <= 25 && len(indicators) == 0,
		SIUReferralRequired:   score >= 75 || opinion.siu,
		Priority:              s.decidePriority(score, opinion),
		Settlement:            opinion.settlement,
		Analysis:              opinion.analysis,
		ModelAssisted:         !opinion.degraded,
		Collaboration:         outcome,
		CollaborationAdjusted: delta,
	}

	if opinion.levelKnown && opinion.level != level {
		assessment.Warnings = append(assessment.Warnings, fmt.Sprintf(
			"model-assessed risk level %s differs from score-derived level %s; score-derived level is authoritative",
			opinion.level, level,
		))
	}
	return assessment
}

func (s *Scorer) applyValidationPenalties(validation domain.ValidationResult, factors *[]string) int {
	if validation.Valid {
		return 0
	}

	score := 10
	*factors = append(*factors, "Rule validation failed")
	for _, violation := range validation.Violations {
		lower := strings.ToLower(violation)
		switch {
		case strings.Contains(lower, "missing required field"):
			score += 20
			*factors = append(*factors, violation)
		case strings.Contains(lower, "claim amount"):
			score += 40
			*factors = append(*factors, violation)
		case strings.Contains(lower, "invalid format"):
			score += 15
			*factors = append(*factors, violation)
		}
	}
	return score
}

// Both high-value tiers add independently: a claim above 100k collects
// the 50k bonus as well.
func (s *Scorer) applyFraudPatterns(fields domain.ExtractedFields, factors, indicators *[]string) int {
	amount := fields.ClaimAmount
	if !amount.Set {
		return 0
	}
	if !amount.Parsed {
		*indicators = append(*indicators, "Invalid claim amount format")
		*factors = append(*factors, fmt.Sprintf("Claim amount %q is not numeric", amount.Raw))
		return 10
	}

	score := 0
	if amount.Value > 50_000 {
		score += 15
		*indicators = append(*indicators, "High-value claim")
	}
	if amount.Value > 100_000 {
		score += 25
		*indicators = append(*indicators, "Very high-value claim - potential inflation")
	}
	return score
}

func (s *Scorer) applyDocumentAdjustments(payload *domain.DocumentPayload, factors, indicators *[]string) int {
	if payload == nil {
		return 0
	}

	score := 0
	if payload.Confidence < 0.7 {
		score += 15
		*factors = append(*factors, "Low document extraction confidence")
	}

	switch payload.Kind {
	case domain.KindImage:
		score += 10
		*factors = append(*factors, "Image-based document")
		if quality := strings.ToLower(payload.Metadata["quality"]); strings.Contains(quality, "poor") || strings.Contains(quality, "blurry") {
			score += 10
			*indicators = append(*indicators, "Poor image quality")
		}
		if size, err := strconv.Atoi(payload.Metadata["file_size_bytes"]); err == nil && size > 0 && size < smallImageBytes {
			score += 5
			*factors = append(*factors, "Unusually small image file")
		}
	case domain.KindMedicalImaging:
		score += 20
		if payload.PrivacySensitive {
			score += 5
		}
		*factors = append(*factors, "Medical imaging document requires privacy and compliance handling")
	case domain.KindError:
		score += 40
		*indicators = append(*indicators, "Document analysis failed")
	case domain.KindImageError:
		score += 35
		*indicators = append(*indicators, "Image could not be read")
	case domain.KindUnsupported:
		score += 30
		*indicators = append(*indicators, "Unsupported document type")
	}
	return score
}

func (s *Scorer) consultModel(
	ctx context.Context,
	fields domain.ExtractedFields,
	validation domain.ValidationResult,
	indicators []string,
	runningScore int,
) modelOpinion {
	raw, err := s.gen.Generate(ctx, buildAssessmentPrompt(fields, validation, indicators))
	if err != nil {
		s.logger.Warn("risk_model_call_degraded", "source", fields.Source, "error", err)
		return degradedOpinion(runningScore)
	}
	return parseOpinion(raw)
}

// degradedOpinion is the rule-only stand-in used when the model call
// fails after retries: no score bonus, Standard priority, no settlement
// estimate, referral decided purely by the score threshold.
func degradedOpinion(runningScore int) modelOpinion {
	level := domain.RiskLow
	if runningScore > 30 {
		level = domain.RiskMedium
	}
	return modelOpinion{
		level:      level,
		levelKnown: false,
		analysis:   fallbackAnalysis,
		degraded:   true,
	}
}

func parseOpinion(raw string) modelOpinion {
	kv := parsing.ParseKVLines(raw, responseKeys)

	opinion := modelOpinion{
		indicators: kv.List("FRAUD_INDICATORS"),
		siu:        kv.Bool("SIU_REFERRAL", false),
		analysis:   kv.Str("ANALYSIS", ""),
	}
	if level, ok := domain.ParseRiskLevel(kv.Str("RISK_LEVEL", "")); ok {
		opinion.level = level
		opinion.levelKnown = true
	}
	if priority, ok := domain.ParsePriority(kv.Str("PRIORITY", "")); ok {
		opinion.priority = priority
		opinion.priorityOK = true
	}
	low := kv.Float("SETTLEMENT_LOW", -1)
	high := kv.Float("SETTLEMENT_HIGH", -1)
	if low >= 0 && high >= low {
		opinion.settlement = &domain.SettlementRange{Low: low, High: high}
	}
	return opinion
}

func levelBonus(opinion modelOpinion) int {
	if !opinion.levelKnown {
		return 0
	}
	switch opinion.level {
	case domain.RiskMedium:
		return 15
	case domain.RiskHigh:
		return 30
	case domain.RiskCritical:
		return 40
	default:
		return 0
	}
}

// collaborate runs the bounded one-shot re-query when the heuristic
// confidence estimate falls below the threshold. The returned delta is
// already clamped to [-20, +30]; failures cost a flat +5.
func (s *Scorer) collaborate(
	ctx context.Context,
	fields *domain.ExtractedFields,
	payload *domain.DocumentPayload,
	opinion modelOpinion,
	factors, indicators *[]string,
) (domain.CollaborationOutcome, int) {
	missing := missingCriticalFields(*fields)
	unclear := unclearFields(*fields)

	conditions := 0
	if len(missing) > 0 {
		conditions++
	}
	if len(unclear) > 0 {
		conditions++
	}
	if opinion.levelKnown && opinion.level == domain.RiskMedium {
		conditions++
	}
	if strings.Contains(strings.ToLower(opinion.analysis), "insufficient") {
		conditions++
	}

	estimate := 1 - float64(conditions)/4
	if estimate >= collaborationThreshold {
		return domain.CollabSkipped, 0
	}
	if s.collaborator == nil {
		return domain.CollabUnavailable, 0
	}

	focus := append(missing, unclear...)
	if len(focus) == 0 {
		return domain.CollabSkipped, 0
	}

	var doc domain.DocumentPayload
	if payload != nil {
		doc = *payload
	} else {
		doc = domain.DocumentPayload{Source: fields.Source}
	}

	result := s.collaborator.CollaborativeExtract(ctx, doc, focus, opinion.analysis)
	if !result.Success {
		*indicators = append(*indicators, "Collaborative re-extraction failed")
		return domain.CollabFailed, 5
	}

	delta := 0
	for _, name := range focus {
		field, ok := result.Fields[name]
		if !ok {
			continue
		}
		delta += 10 * len(field.RedFlags)
		*indicators = append(*indicators, field.RedFlags...)
		if field.Confidence == domain.CollabConfidenceLow {
			delta += 5
		}
		wasUnset := !fieldIsSet(*fields, name)
		if field.Value != "" && wasUnset && (name == domain.FieldClaimAmount || name == domain.FieldPolicyNumber) {
			delta -= 10
		}
		applyCollaborationValue(fields, name, field)
	}

	if delta < collaborationDeltaMin {
		delta = collaborationDeltaMin
	}
	if delta > collaborationDeltaMax {
		delta = collaborationDeltaMax
	}
	*factors = append(*factors, fmt.Sprintf("Collaborative re-query adjusted score by %+d", delta))
	return domain.CollabApplied, delta
}

func (s *Scorer) decidePriority(score int, opinion modelOpinion) domain.ProcessingPriority {
	switch {
	case score <= 15:
		return domain.PriorityExpedited
	case score >= 75:
		return domain.PriorityEnhancedReview
	case opinion.priorityOK:
		return opinion.priority
	default:
		return domain.PriorityStandard
	}
}

func missingCriticalFields(fields domain.ExtractedFields) []string {
	var missing []string
	if !fields.ClaimantName.Set {
		missing = append(missing, domain.FieldClaimantName)
	}
	if !fields.PolicyNumber.Set {
		missing = append(missing, domain.FieldPolicyNumber)
	}
	if !fields.ClaimAmount.Set {
		missing = append(missing, domain.FieldClaimAmount)
	}
	return missing
}

func unclearFields(fields domain.ExtractedFields) []string {
	var unclear []string
	check := func(name string, value domain.OptString) {
		if !value.Set {
			return
		}
		switch strings.ToLower(strings.TrimSpace(value.Value)) {
		case "", "unknown", "unclear", "n/a", "none":
			unclear = append(unclear, name)
		}
	}
	check(domain.FieldClaimantName, fields.ClaimantName)
	check(domain.FieldPolicyNumber, fields.PolicyNumber)
	check(domain.FieldDateOfIncident, fields.DateOfIncident)
	if fields.ClaimAmount.Set && !fields.ClaimAmount.Parsed {
		unclear = append(unclear, domain.FieldClaimAmount)
	}
	return unclear
}

func fieldIsSet(fields domain.ExtractedFields, name string) bool {
	switch name {
	case domain.FieldClaimantName:
		return fields.ClaimantName.Set
	case domain.FieldPolicyNumber:
		return fields.PolicyNumber.Set
	case domain.FieldDateOfIncident:
		return fields.DateOfIncident.Set
	case domain.FieldClaimAmount:
		return fields.ClaimAmount.Set
	case domain.FieldVehicleDetails:
		return fields.VehicleDetails.Set
	default:
		_, ok := fields.Additional[name]
		return ok
	}
}

// applyCollaborationValue overwrites a field when the re-query produced a
// usable value for a previously unset field or a high-confidence
// replacement for an existing one.
func applyCollaborationValue(fields *domain.ExtractedFields, name string, field domain.CollaborationField) {
	if field.Value == "" {
		return
	}
	if fieldIsSet(*fields, name) && field.Confidence != domain.CollabConfidenceHigh {
		return
	}

	switch name {
	case domain.FieldClaimantName:
		fields.ClaimantName = domain.SomeString(field.Value)
	case domain.FieldPolicyNumber:
		fields.PolicyNumber = domain.SomeString(field.Value)
	case domain.FieldDateOfIncident:
		fields.DateOfIncident = domain.SomeString(field.Value)
	case domain.FieldVehicleDetails:
		fields.VehicleDetails = domain.SomeString(field.Value)
	case domain.FieldClaimAmount:
		fields.ClaimAmount = extract.ParseAmount(field.Value)
	default:
		if fields.Additional == nil {
			fields.Additional = make(map[string]string)
		}
		fields.Additional[name] = field.Value
	}
}

func buildAssessmentPrompt(fields domain.ExtractedFields, validation domain.ValidationResult, indicators []string) string {
	var b strings.Builder
	b.WriteString("You are a senior insurance fraud analyst. Assess the risk of the claim below.\n\n")

	b.WriteString("Extracted fields:\n")
	writeField := func(name string, v domain.OptString) {
		if v.Set {
			fmt.Fprintf(&b, "- %s: %s\n", name, v.Value)
		} else {
			fmt.Fprintf(&b, "- %s: <missing>\n", name)
		}
	}
	writeField(domain.FieldClaimantName, fields.ClaimantName)
	writeField(domain.FieldPolicyNumber, fields.PolicyNumber)
	writeField(domain.FieldDateOfIncident, fields.DateOfIncident)
	if fields.ClaimAmount.Set {
		fmt.Fprintf(&b, "- %s: %s\n", domain.FieldClaimAmount, fields.ClaimAmount.Raw)
	} else {
		fmt.Fprintf(&b, "- %s: <missing>\n", domain.FieldClaimAmount)
	}
	writeField(domain.FieldVehicleDetails, fields.VehicleDetails)
	for name, value := range fields.Additional {
		fmt.Fprintf(&b, "- %s: %s\n", name, value)
	}

	if len(validation.Violations) > 0 {
		b.WriteString("\nRule violations:\n")
		for _, violation := range validation.Violations {
			fmt.Fprintf(&b, "- %s\n", violation)
		}
	}
	if len(indicators) > 0 {
		b.WriteString("\nPattern findings so far:\n")
		for _, indicator := range indicators {
			fmt.Fprintf(&b, "- %s\n", indicator)
		}
	}

	b.WriteString("\nRespond with exactly these lines and nothing else:\n")
	b.WriteString("RISK_LEVEL: Low|Medium|High|Critical\n")
	b.WriteString("FRAUD_INDICATORS: <semicolon-separated list, or empty>\n")
	b.WriteString("SIU_REFERRAL: yes|no\n")
	b.WriteString("PRIORITY: Expedited|Standard|Enhanced_Review\n")
	b.WriteString("SETTLEMENT_LOW: <number>\n")
	b.WriteString("SETTLEMENT_HIGH: <number>\n")
	b.WriteString("ANALYSIS: <one paragraph>\n")
	return b.String()
}
