package storage

import (
	"context"

	"notesync/internal/core/domain"
)

// NoteRepository handles the local saved-note mirror
type NoteRepository interface {
	// Upsert records a successful save, updating by external id
	Upsert(ctx context.Context, note *domain.SavedNote) error

	// GetByExternalID retrieves a mirrored note
	GetByExternalID(ctx context.Context, externalID string) (*domain.SavedNote, error)

	// GetRecent retrieves the most recently updated notes, newest first
	GetRecent(ctx context.Context, limit int) ([]*domain.SavedNote, error)

	// Count returns the number of mirrored notes
	Count(ctx context.Context) (int, error)
}
