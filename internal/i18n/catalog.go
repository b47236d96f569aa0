// Package i18n provides the English/Chinese strings used by the report
// composer. Language is always an explicit parameter; there is no
// process-wide selection state.
package i18n

import "github.com/mlevkov/claimaudit/internal/core/domain"

const (
	LangEN = "en"
	LangZH = "zh"
)

// Normalize maps arbitrary user input to a supported language code,
// defaulting to English.
func Normalize(lang string) string {
	switch lang {
	case LangZH, "zh-CN", "zh-Hans", "chinese":
		return LangZH
	default:
		return LangEN
	}
}

// NextActions returns the fixed checklist attached to a recommendation.
func NextActions(lang string, rec domain.Recommendation) []string {
	catalog := nextActionsEN
	if Normalize(lang) == LangZH {
		catalog = nextActionsZH
	}
	actions, ok := catalog[rec]
	if !ok {
		actions = catalog[domain.RecommendManualReview]
	}
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}

// Label returns a localized report heading.
func Label(lang, key string) string {
	if Normalize(lang) == LangZH {
		if v, ok := labelsZH[key]; ok {
			return v
		}
	}
	return labelsEN[key]
}

// FallbackNarrative is substituted when the model cannot produce a
// report narrative.
func FallbackNarrative(lang string) string {
	if Normalize(lang) == LangZH {
		return "系统无法生成智能分析摘要，本报告基于规则评估结果自动生成，请人工复核。"
	}
	return "An automated narrative could not be generated; this report was assembled from the rule-based assessment and should be reviewed by an adjuster."
}

var nextActionsEN = map[domain.Recommendation][]string{
	domain.RecommendExpeditedApprove: {
		"Issue settlement payment through the expedited channel",
		"Notify the claimant of the approval",
		"Archive the claim file",
	},
	domain.RecommendApprove: {
		"Confirm settlement amount with the adjuster",
		"Issue settlement payment",
		"Notify the claimant of the approval",
	},
	domain.RecommendManualReview: {
		"Assign the claim to a human adjuster",
		"Request any missing documentation from the claimant",
		"Re-run the audit after documents are supplemented",
	},
	domain.RecommendDeny: {
		"Prepare the denial letter with the cited violations",
		"Notify the claimant with appeal instructions",
		"Retain the file for the regulatory review window",
	},
	domain.RecommendSIUReferral: {
		"Escalate the claim to the Special Investigation Unit",
		"Freeze settlement processing pending investigation",
		"Preserve all submitted documents as evidence",
	},
}

var nextActionsZH = map[domain.Recommendation][]string{
	domain.RecommendExpeditedApprove: {
		"通过快速通道发放理赔款",
		"通知申请人审批已通过",
		"归档理赔案卷",
	},
	domain.RecommendApprove: {
		"与理算员确认理赔金额",
		"发放理赔款",
		"通知申请人审批已通过",
	},
	domain.RecommendManualReview: {
		"将案件分配给人工理算员",
		"要求申请人补充缺失材料",
		"材料补齐后重新执行审核",
	},
	domain.RecommendDeny: {
		"依据违规项起草拒赔通知书",
		"通知申请人并告知申诉途径",
		"在监管复核期内留存案卷",
	},
	domain.RecommendSIUReferral: {
		"将案件移交特殊调查组(SIU)",
		"冻结理赔处理流程等待调查",
		"保全所有已提交材料作为证据",
	},
}

var labelsEN = map[string]string{
	"report_title":     "Insurance Claim Audit Report",
	"section_fields":   "Extracted Claim Fields",
	"section_risk":     "Risk Assessment",
	"section_analysis": "Analysis",
	"section_actions":  "Next Actions",
	"recommendation":   "Recommendation",
	"risk_score":       "Risk Score",
	"risk_level":       "Risk Level",
	"priority":         "Processing Priority",
	"missing":          "<missing>",
}

var labelsZH = map[string]string{
	"report_title":     "保险理赔审核报告",
	"section_fields":   "提取的理赔信息",
	"section_risk":     "风险评估",
	"section_analysis": "分析说明",
	"section_actions":  "后续处理",
	"recommendation":   "处理建议",
	"risk_score":       "风险评分",
	"risk_level":       "风险等级",
	"priority":         "处理优先级",
	"missing":          "<缺失>",
}
