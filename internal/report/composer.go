// Package report implements the final stage: a deterministic
// recommendation derived from the risk assessment, a localized
// next-action checklist, and a model-written narrative with a fixed
// fallback. The composer never fails; the caller always receives a
// well-formed FinalReport.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mlevkov/claimaudit/internal/core/domain"
	"github.com/mlevkov/claimaudit/internal/core/ports"
	"github.com/mlevkov/claimaudit/internal/i18n"
	"github.com/mlevkov/claimaudit/internal/parsing"
)

const fallbackConfidence = 0.6

var narrativeKeys = []string{"SUMMARY", "CONFIDENCE"}

type Composer struct {
	gen    ports.TextGenerator
	logger *slog.Logger
}

func NewComposer(gen ports.TextGenerator, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{gen: gen, logger: logger}
}

// Recommend maps an assessment to the final recommendation. First match
// wins, in this fixed priority order.
func Recommend(a domain.RiskAssessment) domain.Recommendation {
	switch {
	case a.AutoApproveEligible:
		return domain.RecommendExpeditedApprove
	case a.SIUReferralRequired:
		return domain.RecommendSIUReferral
	case a.Score >= 70:
		return domain.RecommendDeny
	case a.Score >= 40:
		return domain.RecommendManualReview
	default:
		return domain.RecommendApprove
	}
}

func (c *Composer) Compose(
	ctx context.Context,
	assessment domain.RiskAssessment,
	fields domain.ExtractedFields,
	language string,
) domain.FinalReport {
	lang := i18n.Normalize(language)
	recommendation := Recommend(assessment)
	actions := i18n.NextActions(lang, recommendation)

	narrative, confidence := c.narrate(ctx, assessment, fields, recommendation, lang)

	return domain.FinalReport{
		Content:               renderContent(lang, assessment, fields, recommendation, narrative, actions),
		Recommendation:        recommendation,
		Confidence:            confidence,
		Priority:              assessment.Priority,
		InvestigationRequired: assessment.SIUReferralRequired,
		NextActions:           actions,
		Language:              lang,
	}
}

func (c *Composer) narrate(
	ctx context.Context,
	assessment domain.RiskAssessment,
	fields domain.ExtractedFields,
	recommendation domain.Recommendation,
	lang string,
) (string, float64) {
	raw, err := c.gen.Generate(ctx, buildNarrativePrompt(assessment, fields, recommendation, lang))
	if err != nil {
		c.logger.Warn("report_narrative_degraded", "source", fields.Source, "error", err)
		return i18n.FallbackNarrative(lang), fallbackConfidence
	}

	kv := parsing.ParseKVLines(raw, narrativeKeys)
	summary := kv.Str("SUMMARY", "")
	if summary == "" {
		return i18n.FallbackNarrative(lang), fallbackConfidence
	}

	confidence := kv.Float("CONFIDENCE", fallbackConfidence)
	if confidence < 0 || confidence > 1 {
		confidence = fallbackConfidence
	}
	return summary, confidence
}

func buildNarrativePrompt(
	assessment domain.RiskAssessment,
	fields domain.ExtractedFields,
	recommendation domain.Recommendation,
	lang string,
) string {
	var b strings.Builder
	b.WriteString("You are writing the closing narrative of an insurance claim audit report. ")
	if lang == i18n.LangZH {
		b.WriteString("Write the summary in Chinese. ")
	} else {
		b.WriteString("Write the summary in English. ")
	}
	fmt.Fprintf(&b, "The decision is %q with risk score %d (%s).\n", recommendation, assessment.Score, assessment.Level)

	if fields.ClaimantName.Set {
		fmt.Fprintf(&b, "Claimant: %s\n", fields.ClaimantName.Value)
	}
	if fields.ClaimAmount.Set {
		fmt.Fprintf(&b, "Claim amount: %s\n", fields.ClaimAmount.Raw)
	}
	if len(assessment.FraudIndicators) > 0 {
		fmt.Fprintf(&b, "Fraud indicators: %s\n", strings.Join(assessment.FraudIndicators, "; "))
	}
	if assessment.Analysis != "" {
		fmt.Fprintf(&b, "Risk analysis: %s\n", assessment.Analysis)
	}

	b.WriteString("\nRespond with exactly these lines:\n")
	b.WriteString("SUMMARY: <one short paragraph justifying the decision>\n")
	b.WriteString("CONFIDENCE: <number between 0 and 1>\n")
	return b.String()
}

func renderContent(
	lang string,
	assessment domain.RiskAssessment,
	fields domain.ExtractedFields,
	recommendation domain.Recommendation,
	narrative string,
	actions []string,
) string {
	missing := i18n.Label(lang, "missing")
	fieldOrDefault := func(v domain.OptString) string {
		if v.Set {
			return v.Value
		}
		return missing
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", i18n.Label(lang, "report_title"))

	fmt.Fprintf(&b, "## %s\n", i18n.Label(lang, "section_fields"))
	fmt.Fprintf(&b, "- %s: %s\n", domain.FieldClaimantName, fieldOrDefault(fields.ClaimantName))
	fmt.Fprintf(&b, "- %s: %s\n", domain.FieldPolicyNumber, fieldOrDefault(fields.PolicyNumber))
	fmt.Fprintf(&b, "- %s: %s\n", domain.FieldDateOfIncident, fieldOrDefault(fields.DateOfIncident))
	if fields.ClaimAmount.Set {
		fmt.Fprintf(&b, "- %s: %s\n", domain.FieldClaimAmount, fields.ClaimAmount.Raw)
	} else {
		fmt.Fprintf(&b, "- %s: %s\n", domain.FieldClaimAmount, missing)
	}
	fmt.Fprintf(&b, "- %s: %s\n", domain.FieldVehicleDetails, fieldOrDefault(fields.VehicleDetails))
	for name, value := range fields.Additional {
		fmt.Fprintf(&b, "- %s: %s\n", name, value)
	}

	fmt.Fprintf(&b, "\n## %s\n", i18n.Label(lang, "section_risk"))
	fmt.Fprintf(&b, "- %s: %d\n", i18n.Label(lang, "risk_score"), assessment.Score)
	fmt.Fprintf(&b, "- %s: %s\n", i18n.Label(lang, "risk_level"), assessment.Level)
	fmt.Fprintf(&b, "- %s: %s\n", i18n.Label(lang, "priority"), assessment.Priority)
	fmt.Fprintf(&b, "- %s: %s\n", i18n.Label(lang, "recommendation"), recommendation)
	for _, indicator := range assessment.FraudIndicators {
		fmt.Fprintf(&b, "- ⚠ %s\n", indicator)
	}
	for _, warning := range assessment.Warnings {
		fmt.Fprintf(&b, "- %s\n", warning)
	}
	if assessment.Settlement != nil {
		fmt.Fprintf(&b, "- Settlement estimate: %.2f to %.2f\n", assessment.Settlement.Low, assessment.Settlement.High)
	}

	fmt.Fprintf(&b, "\n## %s\n%s\n", i18n.Label(lang, "section_analysis"), narrative)

	fmt.Fprintf(&b, "\n## %s\n", i18n.Label(lang, "section_actions"))
	for i, action := range actions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, action)
	}
	return b.String()
}
