package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"leasewise-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassificationResponse(t *testing.T) {
	raw := `{
		"relevance_level": "High",
		"rationale": "Directly changes security deposit handling.",
		"affected_template_ids": ["abc-123"],
		"affected_compliance_categories": ["Deposits", "lease_terms"],
		"recommended_changes": "Update the deposit clause."
	}`

	result, err := parseClassificationResponse(raw)

	require.NoError(t, err)
	assert.Equal(t, models.RelevanceHigh, result.RelevanceLevel)
	assert.Equal(t, "Directly changes security deposit handling.", result.Rationale)
	assert.Equal(t, []string{"abc-123"}, result.AffectedTemplateIDs)
	assert.Equal(t, []models.ComplianceCategory{models.CategoryDeposits, models.CategoryLeaseTerms}, result.AffectedCategories)
	assert.Equal(t, "Update the deposit clause.", result.RecommendedChanges)
}

func TestParseClassificationResponseToleratesCodeFence(t *testing.T) {
	raw := "```json\n{\"relevance_level\": \"low\", \"rationale\": \"unrelated\"}\n```"

	result, err := parseClassificationResponse(raw)

	require.NoError(t, err)
	assert.Equal(t, models.RelevanceLow, result.RelevanceLevel)
}

func TestParseClassificationResponseRejectsGarbage(t *testing.T) {
	_, err := parseClassificationResponse("I think this bill is quite relevant.")
	assert.Error(t, err)
}

func TestParseClassificationResponseRejectsUnknownLevel(t *testing.T) {
	_, err := parseClassificationResponse(`{"relevance_level": "critical", "rationale": "x"}`)
	assert.Error(t, err)
}

func TestParseClassificationResponseRequiresRationale(t *testing.T) {
	_, err := parseClassificationResponse(`{"relevance_level": "high", "rationale": "  "}`)
	assert.Error(t, err)
}

func TestBuildClassificationPromptListsOnlyActiveTemplates(t *testing.T) {
	active := models.DocumentTemplate{ID: uuid.New(), Title: "Residential Lease", TemplateType: "lease", Active: true}
	inactive := models.DocumentTemplate{ID: uuid.New(), Title: "Retired Notice", TemplateType: "notice", Active: false}

	prompt := buildClassificationPrompt(models.LegalRecord{
		NativeNumber: "AB 12",
		StateID:      "CA",
		Title:        "Deposit limits",
		Description:  "Caps deposits.",
	}, []models.DocumentTemplate{active, inactive})

	assert.Contains(t, prompt, active.ID.String())
	assert.NotContains(t, prompt, inactive.ID.String())
	assert.Contains(t, prompt, string(models.CategoryFairHousing))
}

func TestBuildClassificationPromptTruncatesLongRecords(t *testing.T) {
	record := models.LegalRecord{
		NativeNumber: "HB 1",
		StateID:      "TX",
		Title:        "Very long bill",
		Description:  strings.Repeat("landlord tenant obligations ", 2000),
	}

	prompt := buildClassificationPrompt(record, nil)

	assert.Less(t, len(prompt), maxPromptChars+2000, "record text must be bounded")
}

func TestTruncatePromptNeverSplitsRunes(t *testing.T) {
	// Multi-byte text sized so a naive byte cut would land mid-rune.
	text := strings.Repeat("住宅賃貸", 30)
	for max := 1; max < len(text); max += 7 {
		truncated := truncatePrompt(text, max)
		assert.LessOrEqual(t, len(truncated), max)
		assert.True(t, utf8.ValidString(truncated), "max=%d", max)
	}

	assert.Equal(t, "short", truncatePrompt("short", 100))
}

func TestBuildClassificationPromptStaysValidUTF8(t *testing.T) {
	record := models.LegalRecord{
		NativeNumber: "AB 99",
		StateID:      "CA",
		Title:        "Renter protections",
		Description:  strings.Repeat("保証金の返還期限を短縮する。", 400),
	}

	prompt := buildClassificationPrompt(record, nil)

	assert.True(t, utf8.ValidString(prompt))
}

func TestBuildApplicationImpactPromptStaysValidUTF8(t *testing.T) {
	record := models.LegalRecord{
		NativeNumber: "SB 42",
		StateID:      "WA",
		Title:        "Screening fee limits",
		Description:  strings.Repeat("申込手数料の上限を定める。", 400),
	}

	prompt := buildApplicationImpactPrompt(record)

	assert.True(t, utf8.ValidString(prompt))
}

func TestClassifyRecordWithoutClientUsesValidatedFallback(t *testing.T) {
	s := NewClassifierService()
	lease := models.DocumentTemplate{ID: uuid.New(), Title: "Lease", TemplateType: "lease", Active: true}

	result := s.ClassifyRecord(context.Background(), models.LegalRecord{
		Title:       "Eviction notice reform",
		Description: "Extends notice to quit periods.",
	}, []models.DocumentTemplate{lease})

	assert.Equal(t, models.RelevanceHigh, result.RelevanceLevel)
	assert.NotEmpty(t, result.Rationale)
	assert.Empty(t, result.AffectedTemplateIDs)
	assert.NotNil(t, result.AffectedTemplateIDs)
}

func TestParseApplicationImpactResponse(t *testing.T) {
	raw := `{
		"changes_application": true,
		"rule_type": "screening_restriction",
		"suggested_rule_text": "Do not consider arrests without conviction.",
		"rationale": "Restricts criminal history screening."
	}`

	impact, err := parseApplicationImpactResponse(raw)

	require.NoError(t, err)
	assert.True(t, impact.ChangesApplication)
	assert.Equal(t, models.RuleScreeningRestriction, impact.RuleType)
	assert.Equal(t, "Do not consider arrests without conviction.", impact.SuggestedRuleText)
}

func TestParseApplicationImpactResponseRejectsUnknownRuleType(t *testing.T) {
	raw := `{"changes_application": true, "rule_type": "mystery", "rationale": "x"}`

	_, err := parseApplicationImpactResponse(raw)

	assert.Error(t, err)
}

func TestParseApplicationImpactResponseIgnoresRuleTypeWhenNoChange(t *testing.T) {
	raw := `{"changes_application": false, "rationale": "no application impact"}`

	impact, err := parseApplicationImpactResponse(raw)

	require.NoError(t, err)
	assert.False(t, impact.ChangesApplication)
	assert.Empty(t, impact.RuleType)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
}
