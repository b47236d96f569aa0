// Package rules applies the static business rules to extracted claim
// fields. Rules are evaluated independently and all violations are
// collected; validity means zero violations. No network access.
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mlevkov/claimaudit/internal/core/domain"
)

type Validator struct {
	cfg Config
}

func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg.normalize()}
}

func (v *Validator) Validate(fields domain.ExtractedFields) domain.ValidationResult {
	violations := []string{}

	for _, name := range v.cfg.RequiredFields {
		if !fieldPresent(fields, name) {
			violations = append(violations, "Missing required field: "+name)
		}
	}

	if fields.ClaimAmount.Set && fields.ClaimAmount.Parsed {
		amount := fields.ClaimAmount.Value
		if amount <= 0 || amount > v.cfg.ClaimAmountMax {
			violations = append(violations, fmt.Sprintf(
				"Claim amount %s outside allowed range (0, %s]",
				strconv.FormatFloat(amount, 'f', -1, 64),
				strconv.FormatFloat(v.cfg.ClaimAmountMax, 'f', -1, 64),
			))
		}
	}

	if fields.PolicyNumber.Set {
		if !strings.HasPrefix(fields.PolicyNumber.Value, v.cfg.PolicyNumberPrefix) {
			violations = append(violations, fmt.Sprintf(
				"Policy number %q has invalid format: expected prefix %q",
				fields.PolicyNumber.Value, v.cfg.PolicyNumberPrefix,
			))
		}
	}

	return domain.ValidationResult{
		Valid:      len(violations) == 0,
		Violations: violations,
		Fields:     fields,
		Source:     fields.Source,
	}
}

func fieldPresent(fields domain.ExtractedFields, name string) bool {
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
