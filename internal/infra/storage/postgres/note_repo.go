package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"notesync/internal/core/domain"
)

// NoteRepo implements storage.NoteRepository using PostgreSQL.
type NoteRepo struct {
	db *DB
}

// NewNoteRepo creates a new PostgreSQL note repository.
func NewNoteRepo(db *DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// Upsert records a successful save, keyed by external id.
func (r *NoteRepo) Upsert(ctx context.Context, note *domain.SavedNote) error {
	query := `
		INSERT INTO saved_notes (external_id, remote_id, outcome, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE SET
			remote_id = EXCLUDED.remote_id,
			outcome = EXCLUDED.outcome,
			content = EXCLUDED.content,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		note.ExternalID,
		note.RemoteID,
		string(note.Outcome),
		note.Content,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert saved note: %w", err)
	}
	return nil
}

// GetByExternalID retrieves a mirrored note, nil when absent.
func (r *NoteRepo) GetByExternalID(
	ctx context.Context,
	externalID string,
) (*domain.SavedNote, error) {
	query := `
		SELECT external_id, remote_id, outcome, content, created_at, updated_at
		FROM saved_notes
		WHERE external_id = $1
	`

	var note domain.SavedNote
	err := r.db.GetContext(ctx, &note, query, externalID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saved note: %w", err)
	}
	return &note, nil
}

// GetRecent retrieves the most recently updated notes, newest first.
func (r *NoteRepo) GetRecent(
	ctx context.Context,
	limit int,
) ([]*domain.SavedNote, error) {
	query := `
		SELECT external_id, remote_id, outcome, content, created_at, updated_at
		FROM saved_notes
		ORDER BY updated_at DESC
		LIMIT $1
	`

	var notes []*domain.SavedNote
	if err := r.db.SelectContext(ctx, &notes, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent notes: %w", err)
	}
	return notes, nil
}

// Count returns the number of mirrored notes.
func (r *NoteRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM saved_notes`); err != nil {
		return 0, fmt.Errorf("failed to count saved notes: %w", err)
	}
	return count, nil
}
