package repository

import (
	"context"
	"fmt"

	"leasewise-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LegalRecordRepository handles database operations for canonical legal
// records.
type LegalRecordRepository struct {
	db *pgxpool.Pool
}

// NewLegalRecordRepository creates a new legal record repository
func NewLegalRecordRepository(db *pgxpool.Pool) *LegalRecordRepository {
	return &LegalRecordRepository{db: db}
}

// Upsert inserts the record or, when a row with the same external_id
// already exists, overwrites its mutable fields. external_id, source_kind
// and created_at are never touched on conflict, so repeated full-batch
// ingestion is convergent. Upserts for different external ids are safe
// under concurrent writers.
func (r *LegalRecordRepository) Upsert(ctx context.Context, record *models.LegalRecord) error {
	query := `
		INSERT INTO legal_updates (
			external_id, state_id, native_number, title, description,
			source_kind, status_label, last_action_date, last_action_text,
			source_url, relevance_level, rationale, affected_template_ids,
			affected_categories, recommended_changes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		ON CONFLICT (external_id) DO UPDATE SET
			state_id = EXCLUDED.state_id,
			native_number = EXCLUDED.native_number,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status_label = EXCLUDED.status_label,
			last_action_date = EXCLUDED.last_action_date,
			last_action_text = EXCLUDED.last_action_text,
			source_url = EXCLUDED.source_url,
			relevance_level = EXCLUDED.relevance_level,
			rationale = EXCLUDED.rationale,
			affected_template_ids = EXCLUDED.affected_template_ids,
			affected_categories = EXCLUDED.affected_categories,
			recommended_changes = EXCLUDED.recommended_changes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		record.ExternalID,
		record.StateID,
		record.NativeNumber,
		record.Title,
		record.Description,
		record.SourceKind,
		record.StatusLabel,
		record.LastActionDate,
		record.LastActionText,
		record.SourceURL,
		record.RelevanceLevel,
		record.Rationale,
		record.AffectedTemplateIDs,
		record.AffectedCategories,
		record.RecommendedChanges,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)

	return err
}

// GetByID retrieves a legal record by ID
func (r *LegalRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LegalRecord, error) {
	record := &models.LegalRecord{}
	query := `
		SELECT id, external_id, state_id, native_number, title, description,
			source_kind, status_label, last_action_date, last_action_text,
			source_url, relevance_level, rationale, affected_template_ids,
			affected_categories, recommended_changes, created_at, updated_at
		FROM legal_updates
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.ExternalID,
		&record.StateID,
		&record.NativeNumber,
		&record.Title,
		&record.Description,
		&record.SourceKind,
		&record.StatusLabel,
		&record.LastActionDate,
		&record.LastActionText,
		&record.SourceURL,
		&record.RelevanceLevel,
		&record.Rationale,
		&record.AffectedTemplateIDs,
		&record.AffectedCategories,
		&record.RecommendedChanges,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return record, nil
}

// ListByState retrieves the displayable legal records for a state.
// Dismissed records are retained for audit but never listed.
func (r *LegalRecordRepository) ListByState(ctx context.Context, stateID string, limit, offset int) ([]*models.LegalRecord, error) {
	query := `
		SELECT id, external_id, state_id, native_number, title, description,
			source_kind, status_label, last_action_date, last_action_text,
			source_url, relevance_level, rationale, affected_template_ids,
			affected_categories, recommended_changes, created_at, updated_at
		FROM legal_updates
		WHERE state_id = $1 AND relevance_level <> 'dismissed'
		ORDER BY last_action_date DESC NULLS LAST, updated_at DESC`

	args := []interface{}{stateID}
	argIndex := 2

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.LegalRecord
	for rows.Next() {
		record := &models.LegalRecord{}
		err := rows.Scan(
			&record.ID,
			&record.ExternalID,
			&record.StateID,
			&record.NativeNumber,
			&record.Title,
			&record.Description,
			&record.SourceKind,
			&record.StatusLabel,
			&record.LastActionDate,
			&record.LastActionText,
			&record.SourceURL,
			&record.RelevanceLevel,
			&record.Rationale,
			&record.AffectedTemplateIDs,
			&record.AffectedCategories,
			&record.RecommendedChanges,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
