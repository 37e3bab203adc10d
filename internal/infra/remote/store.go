package remote

import (
	"context"

	"notesync/internal/core/domain"
)

// Store is the contract for a remote note backend. Implementations
// must upsert by the record's external id: saving the same id twice
// yields an update, not a duplicate.
type Store interface {
	// SaveNote persists a record and reports created vs updated.
	SaveNote(ctx context.Context, rec domain.Record) (*domain.SaveResult, error)

	// FetchRecent returns up to limit entries, newest first. Also used
	// as the availability probe with limit=1.
	FetchRecent(ctx context.Context, limit int) ([]domain.RemoteEntry, error)
}
