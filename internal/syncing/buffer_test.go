package syncing

import (
	"context"
	"errors"
	"testing"
	"time"

	"notesync/internal/core/domain"
)

func TestBuffer_EnqueueNoDedup(t *testing.T) {
	b := NewBuffer(nil)
	ctx := context.Background()

	b.Enqueue(ctx, domain.Record{ExternalID: "1_1", Content: "first"})
	b.Enqueue(ctx, domain.Record{ExternalID: "1_1", Content: "edited"})

	// Two edits queued before a drain produce two entries; the remote's
	// upsert collapses them on sync.
	if b.Len() != 2 {
		t.Errorf("expected 2 pending entries, got %d", b.Len())
	}
}

func TestBuffer_CombinedHistory(t *testing.T) {
	b := NewBuffer(nil)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	b.UpdateLastKnown([]domain.RemoteEntry{
		{RemoteID: "r1", Content: "remote old", Timestamp: base},
		{RemoteID: "r2", Content: "remote new", Timestamp: base.Add(2 * time.Hour)},
	})
	b.Enqueue(ctx, domain.Record{
		ExternalID: "1_9",
		Content:    "pending",
		UpdatedAt:  base.Add(time.Hour),
	})

	got := b.CombinedHistory(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].RemoteID != "r2" {
		t.Errorf("expected newest remote entry first, got %s", got[0].RemoteID)
	}
	if got[1].Content != "pending" || !got[1].Pending {
		t.Errorf("expected pending entry second with marker, got %+v", got[1])
	}
}

func TestBuffer_DrainRemovesOnlySuccesses(t *testing.T) {
	b := NewBuffer(nil)
	ctx := context.Background()

	b.Enqueue(ctx, domain.Record{ExternalID: "1_1"})
	b.Enqueue(ctx, domain.Record{ExternalID: "1_2"})
	b.Enqueue(ctx, domain.Record{ExternalID: "1_3"})

	synced, failed := b.Drain(ctx, func(ctx context.Context, rec domain.Record) error {
		if rec.ExternalID == "1_2" {
			return errors.New("still down")
		}
		return nil
	})

	if synced != 2 || failed != 1 {
		t.Errorf("expected synced=2 failed=1, got synced=%d failed=%d", synced, failed)
	}
	if b.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", b.Len())
	}
	if b.Pending()[0].Record.ExternalID != "1_2" {
		t.Errorf("expected failed entry to remain, got %s", b.Pending()[0].Record.ExternalID)
	}
}

func TestBuffer_DrainIsIdempotent(t *testing.T) {
	b := NewBuffer(nil)
	ctx := context.Background()

	b.Enqueue(ctx, domain.Record{ExternalID: "1_1"})
	b.Enqueue(ctx, domain.Record{ExternalID: "1_2"})

	persist := func(ctx context.Context, rec domain.Record) error { return nil }

	if synced, _ := b.Drain(ctx, persist); synced != 2 {
		t.Fatalf("expected first drain to sync 2, got %d", synced)
	}
	if synced, _ := b.Drain(ctx, persist); synced != 0 {
		t.Errorf("expected second drain to sync 0, got %d", synced)
	}
	if b.Len() != 0 {
		t.Errorf("expected empty buffer, got %d", b.Len())
	}
}

func TestBuffer_EnqueueDuringDrain(t *testing.T) {
	b := NewBuffer(nil)
	ctx := context.Background()

	b.Enqueue(ctx, domain.Record{ExternalID: "1_1"})

	// Enqueue racing the drain: the snapshot skips the new entry, a
	// later drain picks it up.
	synced, _ := b.Drain(ctx, func(ctx context.Context, rec domain.Record) error {
		b.Enqueue(ctx, domain.Record{ExternalID: "1_2"})
		return nil
	})
	if synced != 1 {
		t.Errorf("expected drain to sync only the snapshot, got %d", synced)
	}
	if b.Len() != 1 {
		t.Errorf("expected late enqueue to remain pending, got %d", b.Len())
	}

	synced, _ = b.Drain(ctx, func(ctx context.Context, rec domain.Record) error { return nil })
	if synced != 1 || b.Len() != 0 {
		t.Errorf("expected second drain to pick up the late entry, synced=%d len=%d", synced, b.Len())
	}
}

func TestBuffer_Flush(t *testing.T) {
	b := NewBuffer(nil)
	ctx := context.Background()

	b.Enqueue(ctx, domain.Record{ExternalID: "1_1"})
	b.Enqueue(ctx, domain.Record{ExternalID: "1_2"})

	if dropped := b.Flush(ctx); dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", dropped)
	}
	if b.Len() != 0 {
		t.Errorf("expected empty buffer after flush, got %d", b.Len())
	}
}

// fakePendingStore is an in-memory PendingStore for restore tests.
type fakePendingStore struct {
	notes map[string]*domain.PendingNote
}

func newFakePendingStore() *fakePendingStore {
	return &fakePendingStore{notes: make(map[string]*domain.PendingNote)}
}

func (f *fakePendingStore) Add(ctx context.Context, note *domain.PendingNote) error {
	f.notes[note.ID] = note
	return nil
}

func (f *fakePendingStore) Remove(ctx context.Context, id string) error {
	delete(f.notes, id)
	return nil
}

func (f *fakePendingStore) GetAll(ctx context.Context) ([]*domain.PendingNote, error) {
	out := make([]*domain.PendingNote, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, n)
	}
	return out, nil
}

func TestBuffer_DurableMirror(t *testing.T) {
	store := newFakePendingStore()
	ctx := context.Background()

	b := NewBuffer(store)
	b.Enqueue(ctx, domain.Record{ExternalID: "1_1"})
	b.Enqueue(ctx, domain.Record{ExternalID: "1_2"})
	if len(store.notes) != 2 {
		t.Fatalf("expected 2 mirrored notes, got %d", len(store.notes))
	}

	// A fresh buffer restores the mirrored entries, as after a restart.
	restored := NewBuffer(store)
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 restored entries, got %d", restored.Len())
	}

	restored.Drain(ctx, func(ctx context.Context, rec domain.Record) error { return nil })
	if len(store.notes) != 0 {
		t.Errorf("expected mirror cleared after drain, got %d", len(store.notes))
	}
}
