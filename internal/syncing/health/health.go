// Package health provides health monitoring and status reporting for
// the sync service.
package health

import (
	"time"

	"notesync/internal/core/domain"
)

// SystemStatus represents the overall health state of the service.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full service health report.
type Report struct {
	Status       SystemStatus             `json:"status"`
	Availability domain.AvailabilityState `json:"availability"`
	LastProbe    time.Time                `json:"last_probe,omitempty"`
	PendingNotes int                      `json:"pending_notes"`
}

// Evaluate derives the overall status: an unreachable remote is
// degraded, an unreachable remote with a growing backlog is critical.
func Evaluate(state domain.AvailabilityState, pending int) SystemStatus {
	if state == domain.AvailabilityAvailable {
		return StatusHealthy
	}
	if pending > 50 {
		return StatusCritical
	}
	return StatusDegraded
}
