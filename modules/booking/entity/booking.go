package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusRejected  BookingStatus = "rejected"
)

// ActiveStatuses are the statuses that occupy a host's time and count
// against booking limits.
var ActiveStatuses = []string{string(BookingStatusAccepted), string(BookingStatusPending)}

// Booking is the read model of an existing booking.
type Booking struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	EventTypeID uuid.UUID     `db:"event_type_id" json:"event_type_id"`
	HostID      uuid.UUID     `db:"host_id" json:"host_id"`
	StartTime   time.Time     `db:"start_time" json:"start_time"`
	EndTime     time.Time     `db:"end_time" json:"end_time"`
	Status      BookingStatus `db:"status" json:"status"`
}

func (Booking) TableName() string {
	return "bookings"
}

// SeatCounts maps a slot start (unix seconds) to the number of seats taken.
type SeatCounts map[int64]int

func (s SeatCounts) At(start time.Time) int {
	return s[start.Unix()]
}

func (s SeatCounts) Add(start time.Time, n int) {
	s[start.Unix()] += n
}
