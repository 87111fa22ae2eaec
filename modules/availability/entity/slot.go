package entity

import (
	"smart-schedule/core/interval"

	"github.com/google/uuid"
)

// CandidateSlot is one bookable window produced for a single request.
type CandidateSlot struct {
	interval.Interval
	// RemainingSeats is nil unless the event type is seated.
	RemainingSeats *int
	QualifiedHosts []uuid.UUID
	// Free holds every host with no conflict over the slot.
	Free map[uuid.UUID]bool
}
