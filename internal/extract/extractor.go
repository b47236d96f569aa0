// Package extract implements the structured-field extraction stage: a
// document-kind-specific JSON prompt against the hosted model, lenient
// response recovery, and the narrower collaborative re-query used by the
// risk scorer when its confidence is low.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mlevkov/claimaudit/internal/core/domain"
	"github.com/mlevkov/claimaudit/internal/core/ports"
	"github.com/mlevkov/claimaudit/internal/parsing"
)

var baseFields = []string{
	domain.FieldClaimantName,
	domain.FieldPolicyNumber,
	domain.FieldDateOfIncident,
	domain.FieldClaimAmount,
	domain.FieldVehicleDetails,
}

// richKindFields are additionally requested for documents whose content
// is a description rather than verbatim text.
var richKindFields = []string{
	"damage_description",
	"injury_details",
	"treatment_facility",
	"diagnosis",
	"provider_name",
}

type FieldExtractor struct {
	gen    ports.TextGenerator
	logger *slog.Logger
}

func NewFieldExtractor(gen ports.TextGenerator, logger *slog.Logger) *FieldExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldExtractor{gen: gen, logger: logger}
}

// Extract never fails: a model or parse failure yields the fixed fallback
// object with every field explicitly null so the pipeline can continue.
func (e *FieldExtractor) Extract(ctx context.Context, payload domain.DocumentPayload) domain.ExtractedFields {
	prompt := buildExtractionPrompt(payload)

	raw, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		e.logger.Warn("field_extraction_degraded", "source", payload.Source, "error", err)
		return fallbackFields(payload.Source, "model call failed: "+err.Error(), "")
	}

	cleaned := parsing.ExtractJSONObject(raw)
	var decoded map[string]any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		e.logger.Warn("field_extraction_parse_failed", "source", payload.Source, "error", err)
		return fallbackFields(payload.Source, "response is not valid JSON: "+err.Error(), raw)
	}

	return buildFields(payload, decoded)
}

// CollaborativeExtract issues a narrower prompt restricted to focusFields.
// Failure degrades to Success=false with an empty field map; it never
// aborts the caller.
func (e *FieldExtractor) CollaborativeExtract(
	ctx context.Context,
	payload domain.DocumentPayload,
	focusFields []string,
	requestContext string,
) domain.CollaborationResult {
	if len(focusFields) == 0 {
		return domain.CollaborationResult{Success: false, FailureReason: "no focus fields requested"}
	}

	prompt := buildCollaborationPrompt(payload, focusFields, requestContext)
	raw, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		e.logger.Warn("collaborative_extraction_failed", "source", payload.Source, "error", err)
		return domain.CollaborationResult{Success: false, FailureReason: "model call failed: " + err.Error()}
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(parsing.ExtractJSONObject(raw)), &decoded); err != nil {
		return domain.CollaborationResult{Success: false, FailureReason: "response is not valid JSON: " + err.Error()}
	}

	fields := make(map[string]domain.CollaborationField, len(focusFields))
	for _, name := range focusFields {
		entry, ok := decoded[name]
		if !ok {
			continue
		}
		var field struct {
			Value      string   `json:"value"`
			Confidence string   `json:"confidence"`
			Context    string   `json:"context"`
			RedFlags   []string `json:"red_flags"`
		}
		if err := json.Unmarshal(entry, &field); err != nil {
			continue
		}
		fields[name] = domain.CollaborationField{
			Value:      strings.TrimSpace(field.Value),
			Confidence: normalizeConfidence(field.Confidence),
			Context:    field.Context,
			RedFlags:   field.RedFlags,
		}
	}

	return domain.CollaborationResult{Success: true, Fields: fields}
}

func buildExtractionPrompt(payload domain.DocumentPayload) string {
	requested := baseFields
	switch payload.Kind {
	case domain.KindImage, domain.KindMedicalImaging, domain.KindWord:
		requested = append(append([]string{}, baseFields...), richKindFields...)
	}

	var b strings.Builder
	b.WriteString("You are an insurance claim processing assistant. ")
	b.WriteString("Extract the following fields from the claim document below and ")
	b.WriteString("return ONLY a JSON object with exactly these keys. ")
	b.WriteString("Use null for any field that is not present in the document.\n\nFields:\n")
	for _, name := range requested {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString("\nDocument kind: ")
	b.WriteString(string(payload.Kind))
	b.WriteString("\nDocument content:\n")
	b.WriteString(payload.Text)
	return b.String()
}

func buildCollaborationPrompt(payload domain.DocumentPayload, focusFields []string, requestContext string) string {
	var b strings.Builder
	b.WriteString("You are re-examining an insurance claim document because the initial ")
	b.WriteString("assessment had low confidence. Focus ONLY on these fields:\n")
	for _, name := range focusFields {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString("\nFor each field return a JSON object keyed by field name, where each ")
	b.WriteString(`entry has the shape {"value": string, "confidence": "High"|"Medium"|"Low", `)
	b.WriteString(`"context": string, "red_flags": [string]}. `)
	b.WriteString("List anything suspicious about a field in its red_flags array.\n")
	if requestContext != "" {
		b.WriteString("\nAssessment context: ")
		b.WriteString(requestContext)
		b.WriteString("\n")
	}
	b.WriteString("\nDocument content:\n")
	b.WriteString(payload.Text)
	return b.String()
}

func fallbackFields(source, reason, raw string) domain.ExtractedFields {
	return domain.ExtractedFields{
		Source:          source,
		ExtractionError: reason,
		RawOutput:       raw,
	}
}

func buildFields(payload domain.DocumentPayload, decoded map[string]any) domain.ExtractedFields {
	fields := domain.ExtractedFields{Source: payload.Source}

	fields.ClaimantName = optString(decoded, domain.FieldClaimantName)
	fields.PolicyNumber = optString(decoded, domain.FieldPolicyNumber)
	fields.DateOfIncident = optString(decoded, domain.FieldDateOfIncident)
	fields.VehicleDetails = optString(decoded, domain.FieldVehicleDetails)
	fields.ClaimAmount = optAmount(decoded, domain.FieldClaimAmount)

	for _, name := range richKindFields {
		if v := optString(decoded, name); v.Set {
			if fields.Additional == nil {
				fields.Additional = make(map[string]string)
			}
			fields.Additional[name] = v.Value
		}
	}
	return fields
}

func optString(decoded map[string]any, key string) domain.OptString {
	v, ok := decoded[key]
	if !ok || v == nil {
		return domain.OptString{}
	}
	switch t := v.(type) {
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return domain.OptString{}
		}
		return domain.SomeString(trimmed)
	case float64:
		return domain.SomeString(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return domain.SomeString(fmt.Sprintf("%v", t))
	}
}

func optAmount(decoded map[string]any, key string) domain.OptAmount {
	v, ok := decoded[key]
	if !ok || v == nil {
		return domain.OptAmount{}
	}
	switch t := v.(type) {
	case float64:
		return domain.SomeAmount(t)
	case string:
		raw := strings.TrimSpace(t)
		if raw == "" {
			return domain.OptAmount{}
		}
		return ParseAmount(raw)
	default:
		return domain.OptAmount{Raw: fmt.Sprintf("%v", t), Set: true}
	}
}

// ParseAmount interprets a model-reported monetary string, tolerating
// currency symbols and thousands separators. Unparsable values stay
// visible through Raw with Parsed=false.
func ParseAmount(raw string) domain.OptAmount {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimPrefix(cleaned, "¥")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "USD"))

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return domain.OptAmount{Raw: raw, Set: true}
	}
	return domain.OptAmount{Raw: raw, Value: value, Parsed: true, Set: true}
}

func normalizeConfidence(s string) domain.CollaborationConfidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return domain.CollabConfidenceHigh
	case "low":
		return domain.CollabConfidenceLow
	default:
		return domain.CollabConfidenceMedium
	}
}
