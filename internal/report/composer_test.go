package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mlevkov/claimaudit/internal/core/domain"
)

type generatorFake struct {
	response string
	err      error
}

func (g *generatorFake) Generate(context.Context, string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func (g *generatorFake) DescribeImage(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("not scripted")
}

func TestRecommendPriorityOrder(t *testing.T) {
	tests := []struct {
		name       string
		assessment domain.RiskAssessment
		want       domain.Recommendation
	}{
		{
			name:       "auto approve wins first",
			assessment: domain.RiskAssessment{Score: 20, AutoApproveEligible: true},
			want:       domain.RecommendExpeditedApprove,
		},
		{
			name:       "siu referral before deny",
			assessment: domain.RiskAssessment{Score: 90, SIUReferralRequired: true},
			want:       domain.RecommendSIUReferral,
		},
		{
			name:       "deny at 70",
			assessment: domain.RiskAssessment{Score: 70},
			want:       domain.RecommendDeny,
		},
		{
			name:       "manual review at 40",
			assessment: domain.RiskAssessment{Score: 40},
			want:       domain.RecommendManualReview,
		},
		{
			name:       "approve below 40",
			assessment: domain.RiskAssessment{Score: 30},
			want:       domain.RecommendApprove,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recommend(tt.assessment); got != tt.want {
				t.Errorf("Recommend() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRecommendIsDeterministic(t *testing.T) {
	a := domain.RiskAssessment{Score: 55, SIUReferralRequired: false}
	first := Recommend(a)
	for i := 0; i < 5; i++ {
		if Recommend(a) != first {
			t.Fatal("recommendation mapping must be deterministic")
		}
	}
}

func TestComposeWithNarrative(t *testing.T) {
	gen := &generatorFake{response: "SUMMARY: The claim is consistent and low risk.\nCONFIDENCE: 0.92\n"}
	c := NewComposer(gen, nil)

	fields := domain.ExtractedFields{
		Source:       "claims/sample.pdf",
		ClaimantName: domain.SomeString("Jane Doe"),
		PolicyNumber: domain.SomeString("PN-1001"),
		ClaimAmount:  domain.SomeAmount(1200),
	}
	assessment := domain.RiskAssessment{
		Score:               10,
		Level:               domain.RiskLow,
		Priority:            domain.PriorityExpedited,
		AutoApproveEligible: true,
	}

	rep := c.Compose(context.Background(), assessment, fields, "en")

	if rep.Recommendation != domain.RecommendExpeditedApprove {
		t.Errorf("recommendation = %s", rep.Recommendation)
	}
	if rep.Confidence != 0.92 {
		t.Errorf("confidence = %v", rep.Confidence)
	}
	if !strings.Contains(rep.Content, "The claim is consistent and low risk.") {
		t.Error("narrative missing from report content")
	}
	if !strings.Contains(rep.Content, "Jane Doe") {
		t.Error("fields missing from report content")
	}
	if len(rep.NextActions) == 0 {
		t.Fatal("next actions missing")
	}
	if rep.InvestigationRequired {
		t.Error("investigation flag should follow the assessment")
	}
}

func TestComposeModelFailureFallsBack(t *testing.T) {
	gen := &generatorFake{err: errors.New("unavailable")}
	c := NewComposer(gen, nil)

	rep := c.Compose(context.Background(), domain.RiskAssessment{Score: 50, Level: domain.RiskMedium, Priority: domain.PriorityStandard}, domain.ExtractedFields{}, "en")

	if rep.Confidence != 0.6 {
		t.Errorf("fallback confidence = %v, want 0.6", rep.Confidence)
	}
	if rep.Recommendation != domain.RecommendManualReview {
		t.Errorf("recommendation = %s", rep.Recommendation)
	}
	if rep.Content == "" || rep.NextActions == nil {
		t.Fatal("fallback report must still be fully formed")
	}
}

func TestComposeMalformedNarrativeFallsBack(t *testing.T) {
	gen := &generatorFake{response: "I cannot produce the requested format."}
	rep := NewComposer(gen, nil).Compose(context.Background(), domain.RiskAssessment{Score: 10, Level: domain.RiskLow, Priority: domain.PriorityExpedited}, domain.ExtractedFields{}, "en")
	if rep.Confidence != 0.6 {
		t.Errorf("confidence = %v", rep.Confidence)
	}
}

func TestComposeOutOfRangeConfidence(t *testing.T) {
	gen := &generatorFake{response: "SUMMARY: fine\nCONFIDENCE: 7\n"}
	rep := NewComposer(gen, nil).Compose(context.Background(), domain.RiskAssessment{Score: 10, Level: domain.RiskLow, Priority: domain.PriorityExpedited}, domain.ExtractedFields{}, "en")
	if rep.Confidence != 0.6 {
		t.Errorf("out-of-range confidence should default, got %v", rep.Confidence)
	}
}

func TestComposeChineseLocalization(t *testing.T) {
	gen := &generatorFake{response: "SUMMARY: 理赔信息一致，风险较低。\nCONFIDENCE: 0.9\n"}
	assessment := domain.RiskAssessment{Score: 90, Level: domain.RiskCritical, Priority: domain.PriorityEnhancedReview, SIUReferralRequired: true}

	rep := NewComposer(gen, nil).Compose(context.Background(), assessment, domain.ExtractedFields{}, "zh")

	if rep.Language != "zh" {
		t.Errorf("language = %q", rep.Language)
	}
	if rep.Recommendation != domain.RecommendSIUReferral {
		t.Errorf("recommendation = %s", rep.Recommendation)
	}
	if !strings.Contains(rep.NextActions[0], "特殊调查组") {
		t.Errorf("next actions not localized: %v", rep.NextActions)
	}
	if !strings.Contains(rep.Content, "保险理赔审核报告") {
		t.Error("report title not localized")
	}
}

func TestComposeUnknownLanguageDefaultsToEnglish(t *testing.T) {
	gen := &generatorFake{response: "SUMMARY: fine\nCONFIDENCE: 0.8\n"}
	rep := NewComposer(gen, nil).Compose(context.Background(), domain.RiskAssessment{Score: 10, Level: domain.RiskLow, Priority: domain.PriorityExpedited}, domain.ExtractedFields{}, "fr")
	if rep.Language != "en" {
		t.Errorf("language = %q, want en fallback", rep.Language)
	}
}
