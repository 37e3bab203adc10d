package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"notesync/internal/core/domain"
)

// Pending notes are kept for a week at most; anything older than that
// is stale enough to drop rather than replay.
const pendingTTL = 7 * 24 * time.Hour

// PendingNoteRepo mirrors the offline buffer in Redis so pending notes
// survive process restarts. Implements syncing.PendingStore.
type PendingNoteRepo struct {
	rdb       *redis.Client
	namespace string
}

// NewPendingNoteRepo creates a new Redis-backed pending note mirror.
func NewPendingNoteRepo(client *Client, namespace string) *PendingNoteRepo {
	return &PendingNoteRepo{
		rdb:       client.rdb,
		namespace: namespace,
	}
}

// Key helpers
func (r *PendingNoteRepo) queueKey() string {
	return fmt.Sprintf("pending_notes:%s", r.namespace)
}

func (r *PendingNoteRepo) noteKey(id string) string {
	return fmt.Sprintf("pending_note:%s:%s", r.namespace, id)
}

// Add stores a pending note, ordered by enqueue time so drains replay
// oldest first.
func (r *PendingNoteRepo) Add(ctx context.Context, note *domain.PendingNote) error {
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal pending note: %w", err)
	}

	if err := r.rdb.Set(ctx, r.noteKey(note.ID), data, pendingTTL).Err(); err != nil {
		return fmt.Errorf("failed to set pending note: %w", err)
	}

	if err := r.rdb.ZAdd(ctx, r.queueKey(), redis.Z{
		Score:  float64(note.EnqueuedAt.UnixNano()),
		Member: note.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	return nil
}

// Remove deletes a pending note after it was persisted or flushed.
func (r *PendingNoteRepo) Remove(ctx context.Context, id string) error {
	if err := r.rdb.ZRem(ctx, r.queueKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}

	if err := r.rdb.Del(ctx, r.noteKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete pending note: %w", err)
	}

	return nil
}

// GetAll retrieves all pending notes in enqueue order.
func (r *PendingNoteRepo) GetAll(ctx context.Context) ([]*domain.PendingNote, error) {
	ids, err := r.rdb.ZRange(ctx, r.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	notes := make([]*domain.PendingNote, 0, len(ids))
	for _, id := range ids {
		data, err := r.rdb.Get(ctx, r.noteKey(id)).Bytes()
		if err == redis.Nil {
			// Data expired but ID still in queue, remove it
			r.rdb.ZRem(ctx, r.queueKey(), id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get pending note: %w", err)
		}

		var note domain.PendingNote
		if err := json.Unmarshal(data, &note); err != nil {
			continue
		}
		notes = append(notes, &note)
	}

	return notes, nil
}

// Count returns the number of mirrored pending notes.
func (r *PendingNoteRepo) Count(ctx context.Context) (int, error) {
	count, err := r.rdb.ZCard(ctx, r.queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}
