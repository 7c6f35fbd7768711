package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SourceKind identifies which external data source produced a legal record.
// It is set once at normalization time and never mutated afterwards.
type SourceKind string

const (
	SourceFederalRegister SourceKind = "federal_register"
	SourceStateBill       SourceKind = "state_bill"
)

// RelevanceLevel is the classifier's relevance tier for a legal record.
// Dismissed records are retained for audit but excluded from listings.
type RelevanceLevel string

const (
	RelevanceHigh      RelevanceLevel = "high"
	RelevanceMedium    RelevanceLevel = "medium"
	RelevanceLow       RelevanceLevel = "low"
	RelevanceDismissed RelevanceLevel = "dismissed"
)

// Valid reports whether r is one of the four known tiers.
func (r RelevanceLevel) Valid() bool {
	switch r {
	case RelevanceHigh, RelevanceMedium, RelevanceLow, RelevanceDismissed:
		return true
	}
	return false
}

// JurisdictionFederal is the state_id marker for federal records.
const JurisdictionFederal = "US"

// StringList is a []string stored as JSONB
type StringList []string

// Value implements driver.Valuer for JSONB
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = make(StringList, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*l = make(StringList, 0)
		return nil
	}

	if len(bytes) == 0 {
		*l = make(StringList, 0)
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// CategoryList is a []ComplianceCategory stored as JSONB
type CategoryList []ComplianceCategory

// Value implements driver.Valuer for JSONB
func (l CategoryList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]ComplianceCategory{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB
func (l *CategoryList) Scan(value interface{}) error {
	if value == nil {
		*l = make(CategoryList, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*l = make(CategoryList, 0)
		return nil
	}

	if len(bytes) == 0 {
		*l = make(CategoryList, 0)
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// LegalRecord is the canonical, source-agnostic shape every connector
// normalizes into. ExternalID is source-qualified ("fr_<doc>", "os_<bill>")
// and globally unique by construction.
type LegalRecord struct {
	ID             uuid.UUID  `json:"id"`
	ExternalID     string     `json:"external_id"`
	StateID        string     `json:"state_id"` // two-letter state code or JurisdictionFederal
	NativeNumber   string     `json:"native_number"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	SourceKind     SourceKind `json:"source_kind"`
	StatusLabel    string     `json:"status_label"`
	LastActionDate *time.Time `json:"last_action_date,omitempty"`
	LastActionText *string    `json:"last_action_text,omitempty"`
	SourceURL      string     `json:"source_url"`

	// Classification outcome, refreshed on every ingestion run
	RelevanceLevel      RelevanceLevel `json:"relevance_level"`
	Rationale           string         `json:"rationale"`
	AffectedTemplateIDs StringList     `json:"affected_template_ids"`
	AffectedCategories  CategoryList   `json:"affected_categories"`
	RecommendedChanges  string         `json:"recommended_changes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClassificationResult is the classifier's verdict for one record, before
// and after impact-mapper validation.
type ClassificationResult struct {
	RelevanceLevel      RelevanceLevel       `json:"relevance_level"`
	Rationale           string               `json:"rationale"`
	AffectedTemplateIDs []string             `json:"affected_template_ids"`
	AffectedCategories  []ComplianceCategory `json:"affected_compliance_categories"`
	RecommendedChanges  string               `json:"recommended_changes"`
}
