package domain

import "fmt"

type DocumentKind string

const (
	KindPDF            DocumentKind = "pdf"
	KindImage          DocumentKind = "image"
	KindImageError     DocumentKind = "image_error"
	KindWord           DocumentKind = "word"
	KindMedicalImaging DocumentKind = "medical_imaging"
	KindUnsupported    DocumentKind = "unsupported"
	KindError          DocumentKind = "error"
)

// IsReadable reports whether the payload carries usable document content,
// as opposed to a diagnostic produced by a failed extraction branch.
func (k DocumentKind) IsReadable() bool {
	switch k {
	case KindImageError, KindUnsupported, KindError:
		return false
	default:
		return true
	}
}

// DocumentPayload is the output of the document-analysis stage. It is
// immutable once produced and valid under every failure condition of the
// analyzer: failed branches yield an error-kind payload, never an error.
type DocumentPayload struct {
	Source               string            `json:"source"`
	Kind                 DocumentKind      `json:"kind"`
	Text                 string            `json:"text"`
	Confidence           float64           `json:"confidence"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	RequiresManualReview bool              `json:"requires_manual_review"`
	PrivacySensitive     bool              `json:"privacy_sensitive"`
}

// OptString is an explicitly-unset-aware string field extracted by the LLM.
type OptString struct {
	Value string `json:"value"`
	Set   bool   `json:"set"`
}

func SomeString(v string) OptString { return OptString{Value: v, Set: true} }

// OptAmount carries a monetary field as returned by the model. Raw keeps
// the literal response value so that unparsable amounts remain visible to
// the fraud-pattern checks.
type OptAmount struct {
	Raw    string  `json:"raw"`
	Value  float64 `json:"value"`
	Parsed bool    `json:"parsed"`
	Set    bool    `json:"set"`
}

func SomeAmount(v float64) OptAmount {
	return OptAmount{Raw: fmt.Sprintf("%g", v), Value: v, Parsed: true, Set: true}
}

// Canonical extracted field names.
const (
	FieldClaimantName   = "claimant_name"
	FieldPolicyNumber   = "policy_number"
	FieldDateOfIncident = "date_of_incident"
	FieldClaimAmount    = "claim_amount"
	FieldVehicleDetails = "vehicle_details"
)

// ExtractedFields is the structured-extraction result. A collaboration
// re-query may overwrite individual fields when a higher-confidence value
// is found; no other stage mutates it.
type ExtractedFields struct {
	Source         string            `json:"source"`
	ClaimantName   OptString         `json:"claimant_name"`
	PolicyNumber   OptString         `json:"policy_number"`
	DateOfIncident OptString         `json:"date_of_incident"`
	ClaimAmount    OptAmount         `json:"claim_amount"`
	VehicleDetails OptString         `json:"vehicle_details"`
	Additional     map[string]string `json:"additional,omitempty"`

	// ExtractionError is set when the model response could not be parsed
	// and the fixed fallback object was substituted.
	ExtractionError string `json:"extraction_error,omitempty"`
	RawOutput       string `json:"raw_output,omitempty"`
}

// CollaborationConfidence is the per-field confidence grade reported by a
// collaborative re-extraction.
type CollaborationConfidence string

const (
	CollabConfidenceHigh   CollaborationConfidence = "High"
	CollabConfidenceMedium CollaborationConfidence = "Medium"
	CollabConfidenceLow    CollaborationConfidence = "Low"
)

type CollaborationField struct {
	Value      string                  `json:"value"`
	Confidence CollaborationConfidence `json:"confidence"`
	Context    string                  `json:"context,omitempty"`
	RedFlags   []string                `json:"red_flags,omitempty"`
}

// CollaborationResult is the outcome of one collaborative re-query. It is
// always well formed: failures degrade to Success=false with no fields.
type CollaborationResult struct {
	Success       bool                          `json:"collaboration_success"`
	Fields        map[string]CollaborationField `json:"fields,omitempty"`
	FailureReason string                        `json:"failure_reason,omitempty"`
}

// ValidationResult is produced once by the rule validator and is immutable.
type ValidationResult struct {
	Valid      bool            `json:"valid"`
	Violations []string        `json:"violations"`
	Fields     ExtractedFields `json:"fields"`
	Source     string          `json:"source"`
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

type ProcessingPriority string

const (
	PriorityExpedited      ProcessingPriority = "Expedited"
	PriorityStandard       ProcessingPriority = "Standard"
	PriorityEnhancedReview ProcessingPriority = "Enhanced_Review"
)

type SettlementRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// CollaborationOutcome records how the re-query step ended for one run.
type CollaborationOutcome string

const (
	CollabSkipped     CollaborationOutcome = "skipped"
	CollabUnavailable CollaborationOutcome = "unavailable"
	CollabApplied     CollaborationOutcome = "applied"
	CollabFailed      CollaborationOutcome = "failed"
)

type RiskAssessment struct {
	Score                 int                  `json:"score"`
	Level                 RiskLevel            `json:"level"`
	RiskFactors           []string             `json:"risk_factors"`
	FraudIndicators       []string             `json:"fraud_indicators"`
	AutoApproveEligible   bool                 `json:"auto_approve_eligible"`
	SIUReferralRequired   bool                 `json:"siu_referral_required"`
	Priority              ProcessingPriority   `json:"processing_priority"`
	Settlement            *SettlementRange     `json:"settlement_range,omitempty"`
	Analysis              string               `json:"analysis"`
	Warnings              []string             `json:"warnings,omitempty"`
	ModelAssisted         bool                 `json:"model_assisted"`
	Collaboration         CollaborationOutcome `json:"collaboration"`
	CollaborationAdjusted int                  `json:"collaboration_adjusted"`
}

type Recommendation string

const (
	RecommendApprove          Recommendation = "approve"
	RecommendDeny             Recommendation = "deny"
	RecommendManualReview     Recommendation = "manual_review"
	RecommendSIUReferral      Recommendation = "siu_referral"
	RecommendExpeditedApprove Recommendation = "expedited_approve"
)

// FinalReport is the terminal artifact of one pipeline run.
type FinalReport struct {
	Content               string             `json:"content"`
	Recommendation        Recommendation     `json:"recommendation"`
	Confidence            float64            `json:"confidence"`
	Priority              ProcessingPriority `json:"processing_priority"`
	InvestigationRequired bool               `json:"investigation_required"`
	NextActions           []string           `json:"next_actions"`
	Language              string             `json:"language"`
}

// StageStatus is one entry of the per-stage status map returned alongside
// the final report.
type StageStatus struct {
	Name       string            `json:"name"`
	Success    bool              `json:"success"`
	DurationMS float64           `json:"duration_ms"`
	Detail     map[string]string `json:"detail,omitempty"`
}

// AuditResult bundles the terminal report with every intermediate entity
// of the run, in dependency order.
type AuditResult struct {
	RunID      string          `json:"run_id"`
	Payload    DocumentPayload `json:"document"`
	Fields     ExtractedFields `json:"fields"`
	Validation ValidationResult `json:"validation"`
	Assessment RiskAssessment  `json:"assessment"`
	Report     FinalReport     `json:"report"`
	Stages     []StageStatus   `json:"stages"`
	ReportKey  string          `json:"report_key,omitempty"`
}

// ClampScore bounds a running risk total to [0, 100].
func ClampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// RiskLevelForScore maps a clamped score to the authoritative final level.
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score >= 85:
		return RiskCritical
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ParseRiskLevel normalizes a model-reported level; ok is false for
// unrecognized input.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return RiskLevel(s), true
	}
	return "", false
}

// ParsePriority normalizes a model-suggested processing priority.
func ParsePriority(s string) (ProcessingPriority, bool) {
	switch ProcessingPriority(s) {
	case PriorityExpedited, PriorityStandard, PriorityEnhancedReview:
		return ProcessingPriority(s), true
	}
	return "", false
}
