package syncing

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"notesync/internal/core/domain"
	"notesync/internal/syncing/metrics"
)

// PendingStore is an optional durable mirror of the offline buffer so
// pending notes survive restarts.
type PendingStore interface {
	Add(ctx context.Context, note *domain.PendingNote) error
	Remove(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]*domain.PendingNote, error)
}

// Buffer holds notes that could not reach the remote store, plus the
// last known remote snapshot for the combined history view.
type Buffer struct {
	mu        sync.Mutex
	pending   []domain.PendingNote
	lastKnown []domain.RemoteEntry
	durable   PendingStore
	log       *slog.Logger
}

// NewBuffer creates a new offline buffer. durable may be nil.
func NewBuffer(durable PendingStore) *Buffer {
	return &Buffer{
		durable: durable,
		log:     slog.Default().With("component", "buffer"),
	}
}

// Restore loads pending notes from the durable mirror. Called once at
// startup, before any enqueue or drain.
func (b *Buffer) Restore(ctx context.Context) error {
	if b.durable == nil {
		return nil
	}

	notes, err := b.durable.GetAll(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range notes {
		b.pending = append(b.pending, *n)
	}
	metrics.PendingDepth.Set(float64(len(b.pending)))
	if len(notes) > 0 {
		b.log.Info("restored pending notes from durable store", "count", len(notes))
	}
	return nil
}

// Enqueue appends a record to the pending queue. No deduplication by
// external id: a second edit queued before the first is drained yields
// two entries, and the remote's upsert collapses them on sync.
func (b *Buffer) Enqueue(ctx context.Context, rec domain.Record) domain.PendingNote {
	note := domain.PendingNote{
		ID:         uuid.NewString(),
		Record:     rec,
		EnqueuedAt: time.Now(),
	}

	b.mu.Lock()
	b.pending = append(b.pending, note)
	depth := len(b.pending)
	b.mu.Unlock()

	metrics.PendingDepth.Set(float64(depth))
	b.log.Debug("enqueued pending note", "external_id", rec.ExternalID, "depth", depth)

	if b.durable != nil {
		if err := b.durable.Add(ctx, &note); err != nil {
			b.log.Warn("failed to mirror pending note", "error", err)
		}
	}
	return note
}

// Len returns the number of pending notes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Pending returns a snapshot of the pending queue.
func (b *Buffer) Pending() []domain.PendingNote {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.PendingNote, len(b.pending))
	copy(out, b.pending)
	return out
}

// UpdateLastKnown replaces the cached remote snapshot.
func (b *Buffer) UpdateLastKnown(entries []domain.RemoteEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastKnown = entries
}

// CombinedHistory merges pending notes with the last remote snapshot,
// newest first, truncated to limit. Display only.
func (b *Buffer) CombinedHistory(limit int) []domain.RemoteEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := make([]domain.RemoteEntry, 0, len(b.pending)+len(b.lastKnown))
	for _, p := range b.pending {
		ts := p.Record.UpdatedAt
		if ts.IsZero() {
			ts = p.EnqueuedAt
		}
		all = append(all, domain.RemoteEntry{
			RemoteID:  p.ID,
			Content:   p.Record.Content,
			Timestamp: ts,
			Pending:   true,
		})
	}
	all = append(all, b.lastKnown...)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Flush discards all pending notes and returns how many were dropped.
func (b *Buffer) Flush(ctx context.Context) int {
	b.mu.Lock()
	dropped := b.pending
	b.pending = nil
	b.mu.Unlock()

	metrics.PendingDepth.Set(0)

	if b.durable != nil {
		for _, n := range dropped {
			if err := b.durable.Remove(ctx, n.ID); err != nil {
				b.log.Warn("failed to remove mirrored note", "id", n.ID, "error", err)
			}
		}
	}
	return len(dropped)
}

// Drain attempts to persist every pending note through persist. It
// iterates a snapshot, so enqueues racing the drain are picked up by a
// later one. Entries are removed only on persist success; removal
// re-checks membership, making overlapping drains idempotent.
func (b *Buffer) Drain(
	ctx context.Context,
	persist func(ctx context.Context, rec domain.Record) error,
) (synced, failed int) {
	snapshot := b.Pending()
	if len(snapshot) == 0 {
		return 0, 0
	}

	b.log.Info("draining pending notes", "count", len(snapshot))

	for _, note := range snapshot {
		if ctx.Err() != nil {
			break
		}

		if err := persist(ctx, note.Record); err != nil {
			failed++
			b.log.Warn("failed to sync pending note",
				"external_id", note.Record.ExternalID,
				"error", err,
			)
			continue
		}

		if b.remove(note.ID) {
			synced++
			metrics.DrainedTotal.Inc()
			if b.durable != nil {
				if err := b.durable.Remove(ctx, note.ID); err != nil {
					b.log.Warn("failed to remove mirrored note", "id", note.ID, "error", err)
				}
			}
		}
	}

	metrics.PendingDepth.Set(float64(b.Len()))
	return synced, failed
}

// remove deletes a pending note by id, reporting whether it was still
// present.
func (b *Buffer) remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, n := range b.pending {
		if n.ID == id {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return true
		}
	}
	return false
}
