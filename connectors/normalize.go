package connectors

import (
	"time"

	"leasewise-backend/models"
)

// The normalizer is pure and total: every source field that can be
// absent has a defined fallback, so a canonical record is always fully
// populated.

// NormalizeFederalRegisterDocument converts a Federal Register document
// into the canonical record shape.
func NormalizeFederalRegisterDocument(doc FRDocument) models.LegalRecord {
	description := doc.Abstract
	if description == "" {
		description = doc.Title
	}

	statusLabel := frStatusLabel(doc.DocumentType)

	record := models.LegalRecord{
		ExternalID:   "fr_" + doc.DocumentNumber,
		StateID:      models.JurisdictionFederal,
		NativeNumber: doc.DocumentNumber,
		Title:        doc.Title,
		Description:  description,
		SourceKind:   models.SourceFederalRegister,
		StatusLabel:  statusLabel,
		SourceURL:    doc.HTMLURL,
	}

	if date, ok := parseSourceDate(doc.PublicationDate); ok {
		record.LastActionDate = &date
		actionText := "Published: " + statusLabel
		record.LastActionText = &actionText
	}

	return record
}

// NormalizeStateBill converts an OpenStates bill into the canonical
// record shape. The latest action is selected by the source's explicit
// order field, never by array position; on equal order the later array
// entry wins.
func NormalizeStateBill(state string, bill OSBill) models.LegalRecord {
	description := bill.Title
	for _, a := range bill.Abstracts {
		if a.Abstract != "" {
			description = a.Abstract
			break
		}
	}

	record := models.LegalRecord{
		ExternalID:   "os_" + bill.ID,
		StateID:      state,
		NativeNumber: bill.Identifier,
		Title:        bill.Title,
		Description:  description,
		SourceKind:   models.SourceStateBill,
		StatusLabel:  "Introduced",
		SourceURL:    bill.SourceURL,
	}

	if latest, ok := latestAction(bill.Actions); ok {
		record.StatusLabel = latest.Description
		actionText := latest.Description
		record.LastActionText = &actionText
		if date, parsed := parseSourceDate(latest.Date); parsed {
			record.LastActionDate = &date
		}
	}

	return record
}

// DedupeRecords drops records whose ExternalID has already been seen,
// keeping the first occurrence.
func DedupeRecords(records []models.LegalRecord) []models.LegalRecord {
	seen := make(map[string]bool, len(records))
	out := make([]models.LegalRecord, 0, len(records))
	for _, r := range records {
		if r.ExternalID == "" || seen[r.ExternalID] {
			continue
		}
		seen[r.ExternalID] = true
		out = append(out, r)
	}
	return out
}

func latestAction(actions []OSAction) (OSAction, bool) {
	if len(actions) == 0 {
		return OSAction{}, false
	}
	latest := actions[0]
	for _, a := range actions[1:] {
		if a.Order >= latest.Order {
			latest = a
		}
	}
	return latest, true
}

func frStatusLabel(documentType string) string {
	switch documentType {
	case "Rule":
		return "Final Rule"
	case "Proposed Rule":
		return "Proposed Rule"
	case "Notice":
		return "Notice"
	case "Presidential Document":
		return "Presidential Document"
	case "":
		return "Published"
	default:
		return documentType
	}
}

// parseSourceDate accepts the date formats the sources actually emit:
// plain "2006-01-02" and timestamp variants with a trailing time part.
func parseSourceDate(s string) (time.Time, bool) {
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
