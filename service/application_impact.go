package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"leasewise-backend/models"
)

// AnalyzeApplicationImpact is the second classifier entry point: given a
// bill, determine whether it changes rental-application requirements
// (new disclosures, authorizations, required documents) rather than
// general template impact. Same two-path design as ClassifyRecord.
func (s *ClassifierService) AnalyzeApplicationImpact(
	ctx context.Context,
	record models.LegalRecord,
) models.ApplicationImpact {
	if s.client == nil {
		return FallbackApplicationImpact(record)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.generateJSON(cctx, buildApplicationImpactPrompt(record))
	if err != nil {
		log.Printf("Warning: application impact call failed for %s: %v. Using keyword fallback.", record.ExternalID, err)
		return FallbackApplicationImpact(record)
	}

	impact, err := parseApplicationImpactResponse(raw)
	if err != nil {
		log.Printf("Warning: unusable application impact output for %s: %v. Using keyword fallback.", record.ExternalID, err)
		return FallbackApplicationImpact(record)
	}
	return impact
}

func buildApplicationImpactPrompt(record models.LegalRecord) string {
	recordText := truncatePrompt(record.Title+"\n\n"+record.Description, maxPromptChars)

	return fmt.Sprintf(`You are a landlord-tenant compliance analyst for a property management platform.

BILL (%s, jurisdiction %s):
%s

TASK:
Determine whether this bill changes rental-application requirements: new
disclosures, authorizations, required documents, screening restrictions,
or application fee limits. Ignore impacts outside the application
process.

Respond with a single JSON object:
{
  "changes_application": true or false,
  "rule_type": one of "required_disclosure", "required_authorization", "required_document", "screening_restriction", "fee_limit" (omit if changes_application is false),
  "suggested_rule_text": short rule text for a human editor (may be empty),
  "rationale": short plain-language explanation (required, non-empty)
}

Do not include any text outside the JSON object.`,
		record.NativeNumber,
		record.StateID,
		recordText,
	)
}

type applicationImpactResponse struct {
	ChangesApplication bool   `json:"changes_application"`
	RuleType           string `json:"rule_type"`
	SuggestedRuleText  string `json:"suggested_rule_text"`
	Rationale          string `json:"rationale"`
}

func parseApplicationImpactResponse(raw string) (models.ApplicationImpact, error) {
	var impact models.ApplicationImpact

	var parsed applicationImpactResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return impact, fmt.Errorf("failed to decode application impact JSON: %w", err)
	}
	if strings.TrimSpace(parsed.Rationale) == "" {
		return impact, errors.New("missing rationale")
	}

	impact.ChangesApplication = parsed.ChangesApplication
	impact.SuggestedRuleText = strings.TrimSpace(parsed.SuggestedRuleText)
	impact.Rationale = strings.TrimSpace(parsed.Rationale)

	if parsed.ChangesApplication {
		ruleType := models.ComplianceRuleType(strings.ToLower(strings.TrimSpace(parsed.RuleType)))
		if !ruleType.Valid() {
			return models.ApplicationImpact{}, fmt.Errorf("unknown rule type %q", parsed.RuleType)
		}
		impact.RuleType = ruleType
	}

	return impact, nil
}
