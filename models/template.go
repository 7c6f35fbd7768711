package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentTemplate is an active lease/notice document template for one
// state. The pipeline treats template ids as opaque; it only enumerates
// the active set for a jurisdiction and validates classifier claims
// against it.
type DocumentTemplate struct {
	ID           uuid.UUID `json:"id"`
	StateID      string    `json:"state_id"`
	Key          string    `json:"key"`
	Title        string    `json:"title"`
	TemplateType string    `json:"template_type"` // lease, notice, addendum, application
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
