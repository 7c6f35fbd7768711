package repository

import (
	"context"

	"leasewise-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ContentRepository handles database operations for seeded content rows:
// compliance cards and communication templates. Both are keyed on
// (state_id, key) so seeding is idempotent and safe to re-run.
type ContentRepository struct {
	db *pgxpool.Pool
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: db}
}

// UpsertComplianceCard inserts or refreshes a compliance card, preserving
// the surrogate id and creation timestamp on conflict.
func (r *ContentRepository) UpsertComplianceCard(ctx context.Context, card *models.ComplianceCard) error {
	query := `
		INSERT INTO compliance_cards (state_id, key, category, title, summary, body, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (state_id, key) DO UPDATE SET
			category = EXCLUDED.category,
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			body = EXCLUDED.body,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		card.StateID,
		card.Key,
		card.Category,
		card.Title,
		card.Summary,
		card.Body,
		card.Status,
	).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)

	return err
}

// UpsertCommunicationTemplate inserts or refreshes a communication
// template keyed on (state_id, key).
func (r *ContentRepository) UpsertCommunicationTemplate(ctx context.Context, tmpl *models.CommunicationTemplate) error {
	query := `
		INSERT INTO communication_templates (state_id, key, kind, title, subject, body, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (state_id, key) DO UPDATE SET
			kind = EXCLUDED.kind,
			title = EXCLUDED.title,
			subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		tmpl.StateID,
		tmpl.Key,
		tmpl.Kind,
		tmpl.Title,
		tmpl.Subject,
		tmpl.Body,
		tmpl.Status,
	).Scan(&tmpl.ID, &tmpl.CreatedAt, &tmpl.UpdatedAt)

	return err
}

// ListComplianceCardsByState retrieves the active compliance cards for a
// state.
func (r *ContentRepository) ListComplianceCardsByState(ctx context.Context, stateID string) ([]models.ComplianceCard, error) {
	query := `
		SELECT id, state_id, key, category, title, summary, body, status, created_at, updated_at
		FROM compliance_cards
		WHERE state_id = $1 AND status = 'active'
		ORDER BY category, title`

	rows, err := r.db.Query(ctx, query, stateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []models.ComplianceCard
	for rows.Next() {
		var card models.ComplianceCard
		err := rows.Scan(
			&card.ID,
			&card.StateID,
			&card.Key,
			&card.Category,
			&card.Title,
			&card.Summary,
			&card.Body,
			&card.Status,
			&card.CreatedAt,
			&card.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	return cards, rows.Err()
}
