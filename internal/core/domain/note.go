package domain

import (
	"fmt"
	"time"
)

// Record is a unit of user content to persist to the remote store.
type Record struct {
	ExternalID string    `json:"external_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WireID builds the composite identifier sent to the remote store.
// The remote upserts by this key, so it must be stable across edits
// of the same message.
func WireID(chatID int64, messageID string) string {
	if chatID != 0 {
		return fmt.Sprintf("%d_%s", chatID, messageID)
	}
	return messageID
}

// SaveOutcome reports whether the remote created or updated a note.
type SaveOutcome string

const (
	OutcomeCreated SaveOutcome = "created"
	OutcomeUpdated SaveOutcome = "updated"
)

// SaveResult is the outcome of one successful save.
type SaveResult struct {
	Outcome    SaveOutcome `json:"status"`
	RemoteID   string      `json:"note_id"`
	ExternalID string      `json:"external_id"`
}

// PendingNote is a Record waiting in the offline buffer. Entries are
// immutable once enqueued; they are only ever removed.
type PendingNote struct {
	ID         string    `json:"id"`
	Record     Record    `json:"record"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// SavedNote is the local mirror of a successfully persisted note,
// kept for audit and as a history fallback.
type SavedNote struct {
	ExternalID string      `json:"external_id" db:"external_id"`
	RemoteID   string      `json:"remote_id"   db:"remote_id"`
	Outcome    SaveOutcome `json:"outcome"     db:"outcome"`
	Content    string      `json:"content"     db:"content"`
	CreatedAt  time.Time   `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"  db:"updated_at"`
}

// RemoteEntry is one item of the remote history feed.
type RemoteEntry struct {
	RemoteID  string    `json:"id"`
	Content   string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	// Pending marks entries coming from the local buffer rather than
	// the remote snapshot. Display-only.
	Pending bool `json:"pending,omitempty"`
}

// AvailabilityState tracks remote liveness as seen by the monitor.
type AvailabilityState string

const (
	AvailabilityUnknown     AvailabilityState = "unknown"
	AvailabilityAvailable   AvailabilityState = "available"
	AvailabilityUnavailable AvailabilityState = "unavailable"
)
