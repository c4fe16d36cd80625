package repository

import (
	"context"
	"errors"
	"fmt"

	"complaintdraft-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDraftNotFound is returned when no archived draft has the requested id
var ErrDraftNotFound = errors.New("draft not found")

// DraftRepository handles database operations for composed drafts
type DraftRepository struct {
	db *pgxpool.Pool
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db *pgxpool.Pool) *DraftRepository {
	return &DraftRepository{db: db}
}

// Create archives a draft
func (r *DraftRepository) Create(ctx context.Context, draft *models.Draft) error {
	query := `
		INSERT INTO drafts (
			id, session_id, offense, title, draft_text,
			evidence_notes, checksum, storage_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		draft.ID,
		draft.SessionID,
		draft.Offense,
		draft.Title,
		draft.DraftText,
		draft.EvidenceNotes,
		draft.Checksum,
		draft.StoragePath,
	).Scan(&draft.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert draft: %w", err)
	}

	return nil
}

// GetByID retrieves an archived draft by ID
func (r *DraftRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	query := `
		SELECT id, session_id, offense, title, draft_text,
			evidence_notes, checksum, storage_path, created_at
		FROM drafts
		WHERE id = $1`

	draft, err := scanDraft(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	return draft, nil
}

// ListBySession lists archived drafts of a session, newest first
func (r *DraftRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.Draft, error) {
	query := `
		SELECT id, session_id, offense, title, draft_text,
			evidence_notes, checksum, storage_path, created_at
		FROM drafts
		WHERE session_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := make([]*models.Draft, 0)
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}

	return drafts, rows.Err()
}

func scanDraft(row pgx.Row) (*models.Draft, error) {
	draft := &models.Draft{}
	err := row.Scan(
		&draft.ID,
		&draft.SessionID,
		&draft.Offense,
		&draft.Title,
		&draft.DraftText,
		&draft.EvidenceNotes,
		&draft.Checksum,
		&draft.StoragePath,
		&draft.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return draft, nil
}
