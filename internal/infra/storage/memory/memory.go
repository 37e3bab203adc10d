package memory

import (
	"context"
	"sort"
	"sync"

	"notesync/internal/core/domain"
)

// MemoryStorage is the in-process fallback used when no database is
// configured.
type MemoryStorage struct {
	notes map[string]*domain.SavedNote
	mu    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notes: make(map[string]*domain.SavedNote),
	}
}

// NoteRepo implements storage.NoteRepository in memory.
type NoteRepo struct {
	store *MemoryStorage
}

func NewNoteRepo(store *MemoryStorage) *NoteRepo {
	return &NoteRepo{store: store}
}

func (r *NoteRepo) Upsert(ctx context.Context, note *domain.SavedNote) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *note
	r.store.notes[note.ExternalID] = &cp
	return nil
}

func (r *NoteRepo) GetByExternalID(
	ctx context.Context,
	externalID string,
) (*domain.SavedNote, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n, ok := r.store.notes[externalID]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *NoteRepo) GetRecent(
	ctx context.Context,
	limit int,
) ([]*domain.SavedNote, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*domain.SavedNote, 0, len(r.store.notes))
	for _, n := range r.store.notes {
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *NoteRepo) Count(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.notes), nil
}
