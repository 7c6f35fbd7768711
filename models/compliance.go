package models

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceCategory is the closed list of compliance-guidance categories.
type ComplianceCategory string

const (
	CategoryDeposits      ComplianceCategory = "deposits"
	CategoryDisclosures   ComplianceCategory = "disclosures"
	CategoryEvictions     ComplianceCategory = "evictions"
	CategoryFairHousing   ComplianceCategory = "fair_housing"
	CategoryRentIncreases ComplianceCategory = "rent_increases"
	CategoryHabitability  ComplianceCategory = "habitability"
	CategoryScreening     ComplianceCategory = "screening"
	CategoryLeaseTerms    ComplianceCategory = "lease_terms"
)

// AllComplianceCategories is the closed enum in a stable order. The keyword
// fallback keeps its own, deliberately narrower table in the service layer.
var AllComplianceCategories = []ComplianceCategory{
	CategoryDeposits,
	CategoryDisclosures,
	CategoryEvictions,
	CategoryFairHousing,
	CategoryRentIncreases,
	CategoryHabitability,
	CategoryScreening,
	CategoryLeaseTerms,
}

// Valid reports whether c is a member of the closed category list.
func (c ComplianceCategory) Valid() bool {
	for _, known := range AllComplianceCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ContentStatus is the lifecycle of a seeded or generated content row.
type ContentStatus string

const (
	ContentStatusActive   ContentStatus = "active"
	ContentStatusDraft    ContentStatus = "draft"
	ContentStatusArchived ContentStatus = "archived"
)

// ComplianceCard is a state-scoped compliance-guidance entry, persisted
// idempotently by (state_id, key).
type ComplianceCard struct {
	ID        uuid.UUID          `json:"id"`
	StateID   string             `json:"state_id"`
	Key       string             `json:"key"`
	Category  ComplianceCategory `json:"category"`
	Title     string             `json:"title"`
	Summary   string             `json:"summary"`
	Body      string             `json:"body"`
	Status    ContentStatus      `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// CommunicationTemplate is a state-scoped tenant-communication template,
// persisted idempotently by (state_id, key).
type CommunicationTemplate struct {
	ID        uuid.UUID     `json:"id"`
	StateID   string        `json:"state_id"`
	Key       string        `json:"key"`
	Kind      string        `json:"kind"` // notice, letter, email
	Title     string        `json:"title"`
	Subject   string        `json:"subject"`
	Body      string        `json:"body"`
	Status    ContentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ComplianceRuleType classifies how a bill changes rental-application
// requirements.
type ComplianceRuleType string

const (
	RuleRequiredDisclosure    ComplianceRuleType = "required_disclosure"
	RuleRequiredAuthorization ComplianceRuleType = "required_authorization"
	RuleRequiredDocument      ComplianceRuleType = "required_document"
	RuleScreeningRestriction  ComplianceRuleType = "screening_restriction"
	RuleFeeLimit              ComplianceRuleType = "fee_limit"
)

// Valid reports whether t is a known rule type.
func (t ComplianceRuleType) Valid() bool {
	switch t {
	case RuleRequiredDisclosure, RuleRequiredAuthorization, RuleRequiredDocument,
		RuleScreeningRestriction, RuleFeeLimit:
		return true
	}
	return false
}

// ApplicationImpact is the narrower classifier output for the
// application-impact entry point: does a bill change rental-application
// requirements, and if so how.
type ApplicationImpact struct {
	ChangesApplication bool               `json:"changes_application"`
	RuleType           ComplianceRuleType `json:"rule_type,omitempty"`
	SuggestedRuleText  string             `json:"suggested_rule_text,omitempty"`
	Rationale          string             `json:"rationale"`
}
