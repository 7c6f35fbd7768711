package repository

import (
	"context"

	"leasewise-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TemplateRepository handles database operations for document templates
type TemplateRepository struct {
	db *pgxpool.Pool
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// ListActiveByState retrieves the active template set for a state. This
// is the set the impact mapper validates classifier claims against.
func (r *TemplateRepository) ListActiveByState(ctx context.Context, stateID string) ([]models.DocumentTemplate, error) {
	query := `
		SELECT id, state_id, key, title, template_type, active, created_at, updated_at
		FROM document_templates
		WHERE state_id = $1 AND active = true
		ORDER BY title`

	rows, err := r.db.Query(ctx, query, stateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.DocumentTemplate
	for rows.Next() {
		var t models.DocumentTemplate
		err := rows.Scan(
			&t.ID,
			&t.StateID,
			&t.Key,
			&t.Title,
			&t.TemplateType,
			&t.Active,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

// UpsertByKey inserts or refreshes a template keyed on (state_id, key),
// preserving the surrogate id and creation timestamp on conflict.
func (r *TemplateRepository) UpsertByKey(ctx context.Context, template *models.DocumentTemplate) error {
	query := `
		INSERT INTO document_templates (state_id, key, title, template_type, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (state_id, key) DO UPDATE SET
			title = EXCLUDED.title,
			template_type = EXCLUDED.template_type,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		template.StateID,
		template.Key,
		template.Title,
		template.TemplateType,
		template.Active,
	).Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt)

	return err
}
