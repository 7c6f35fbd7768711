package service

import (
	"leasewise-backend/models"
)

// The impact mapper never trusts classifier output: claimed template ids
// are intersected with the actual active set for the record's
// jurisdiction, and claimed categories with the closed enum. Unknown
// references are silently dropped, never errored.

// ValidateClassification returns a copy of result whose affected ids and
// categories satisfy the subset invariant against the given active
// template set. Slices in the result are never nil.
func ValidateClassification(result models.ClassificationResult, templates []models.DocumentTemplate) models.ClassificationResult {
	active := make(map[string]bool, len(templates))
	for _, t := range templates {
		if t.Active {
			active[t.ID.String()] = true
		}
	}

	validIDs := make([]string, 0, len(result.AffectedTemplateIDs))
	seenID := make(map[string]bool)
	for _, id := range result.AffectedTemplateIDs {
		if active[id] && !seenID[id] {
			seenID[id] = true
			validIDs = append(validIDs, id)
		}
	}

	validCategories := make([]models.ComplianceCategory, 0, len(result.AffectedCategories))
	seenCategory := make(map[models.ComplianceCategory]bool)
	for _, c := range result.AffectedCategories {
		if c.Valid() && !seenCategory[c] {
			seenCategory[c] = true
			validCategories = append(validCategories, c)
		}
	}

	result.AffectedTemplateIDs = validIDs
	result.AffectedCategories = validCategories
	return result
}
