package service

import (
	"strings"

	"leasewise-backend/models"
)

// Deterministic keyword classifier used whenever the LLM path is
// unavailable or returns unusable output. No network, no state.

// highRelevanceKeywords are terms that always warrant manual review.
var highRelevanceKeywords = []string{
	"eviction",
	"security deposit",
	"lease termination",
	"rent control",
	"rent cap",
	"rent stabilization",
	"just cause",
	"tenant protection",
	"habitability",
	"retaliation",
	"lockout",
}

// mediumRelevanceKeywords are generic landlord-tenant terms.
var mediumRelevanceKeywords = []string{
	"landlord",
	"tenant",
	"rental",
	"lease",
	"housing",
	"renter",
}

// fallbackCategoryKeywords maps keywords to compliance categories. This
// table is maintained independently of the category list embedded in the
// LLM prompt and is deliberately narrower.
var fallbackCategoryKeywords = map[models.ComplianceCategory][]string{
	models.CategoryDeposits:      {"security deposit", "deposit return", "deposit interest"},
	models.CategoryDisclosures:   {"disclosure", "disclose", "lead paint", "lead-based paint"},
	models.CategoryEvictions:     {"eviction", "unlawful detainer", "just cause", "notice to quit"},
	models.CategoryFairHousing:   {"fair housing", "discrimination", "source of income", "protected class"},
	models.CategoryRentIncreases: {"rent increase", "rent control", "rent cap", "rent stabilization"},
	models.CategoryHabitability:  {"habitability", "habitable", "code violation", "mold"},
	models.CategoryScreening:     {"screening", "background check", "criminal history", "credit report"},
	models.CategoryLeaseTerms:    {"late fee", "lease term", "renewal", "termination notice"},
}

// applicationImpactKeywords drive the fallback for the application-impact
// entry point; mapped to the rule type each keyword suggests.
var applicationImpactKeywords = map[models.ComplianceRuleType][]string{
	models.RuleScreeningRestriction:  {"screening", "background check", "criminal history", "tenant selection"},
	models.RuleFeeLimit:              {"application fee", "screening fee"},
	models.RuleRequiredAuthorization: {"authorization", "consent"},
	models.RuleRequiredDocument:      {"required document", "proof of income"},
	models.RuleRequiredDisclosure:    {"application", "applicant", "disclosure"},
}

// FallbackClassify classifies a record by keyword tiers. A high-tier
// match never auto-claims specific template impact: affected template ids
// stay empty and the rationale requests manual review.
func FallbackClassify(record models.LegalRecord) models.ClassificationResult {
	text := strings.ToLower(record.Title + " " + record.Description)

	result := models.ClassificationResult{
		AffectedTemplateIDs: []string{},
		AffectedCategories:  fallbackCategories(text),
	}

	switch {
	case matchesAny(text, highRelevanceKeywords):
		result.RelevanceLevel = models.RelevanceHigh
		result.Rationale = "Matched high-priority landlord-tenant keywords; classifier unavailable, manual review required."
	case matchesAny(text, mediumRelevanceKeywords):
		result.RelevanceLevel = models.RelevanceMedium
		result.Rationale = "Matched general landlord-tenant keywords; classifier unavailable."
	default:
		result.RelevanceLevel = models.RelevanceLow
		result.Rationale = "No landlord-tenant keywords matched; classifier unavailable."
	}

	return result
}

// fallbackCategories computes affected categories from the keyword table,
// independently of the relevance tiers, so categories and relevance can
// degrade separately.
func fallbackCategories(text string) []models.ComplianceCategory {
	var categories []models.ComplianceCategory
	for _, category := range models.AllComplianceCategories {
		if matchesAny(text, fallbackCategoryKeywords[category]) {
			categories = append(categories, category)
		}
	}
	if categories == nil {
		categories = []models.ComplianceCategory{}
	}
	return categories
}

// FallbackApplicationImpact is the deterministic path for the
// application-impact entry point.
func FallbackApplicationImpact(record models.LegalRecord) models.ApplicationImpact {
	text := strings.ToLower(record.Title + " " + record.Description)

	for _, ruleType := range []models.ComplianceRuleType{
		models.RuleScreeningRestriction,
		models.RuleFeeLimit,
		models.RuleRequiredAuthorization,
		models.RuleRequiredDocument,
		models.RuleRequiredDisclosure,
	} {
		if matchesAny(text, applicationImpactKeywords[ruleType]) {
			return models.ApplicationImpact{
				ChangesApplication: true,
				RuleType:           ruleType,
				Rationale:          "Matched rental-application keywords; classifier unavailable, manual review required.",
			}
		}
	}

	return models.ApplicationImpact{
		ChangesApplication: false,
		Rationale:          "No rental-application keywords matched; classifier unavailable.",
	}
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
