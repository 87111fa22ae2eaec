package repository

import (
	"context"
	"fmt"

	"smart-schedule/core/database"
	"smart-schedule/core/interval"
	"smart-schedule/modules/booking/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type BookingRepository interface {
	// ListBusy returns accepted and pending bookings of a host overlapping rng.
	ListBusy(ctx context.Context, hostID uuid.UUID, rng interval.Interval) ([]entity.Booking, error)
	// SeatCounts returns the seats taken per slot start of an event type inside rng.
	SeatCounts(ctx context.Context, eventTypeID uuid.UUID, rng interval.Interval) (entity.SeatCounts, error)
}

type BookingCountRepository interface {
	// CountInBucket counts active bookings of the event type starting inside the bucket.
	CountInBucket(ctx context.Context, eventTypeID uuid.UUID, bucket entity.Bucket) (int, error)
}

type bookingRepository struct {
	db database.Database
}

func NewBookingRepository(db database.Database) BookingRepository {
	return &bookingRepository{db: db}
}

func NewBookingCountRepository(db database.Database) BookingCountRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) ListBusy(ctx context.Context, hostID uuid.UUID, rng interval.Interval) ([]entity.Booking, error) {
	query := `
		SELECT id, event_type_id, host_id, start_time, end_time, status
		FROM bookings
		WHERE host_id = $1
			AND status = ANY($2)
			AND start_time < $4
			AND end_time > $3
		ORDER BY start_time, id
	`
	var bookings []entity.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, hostID, pq.Array(entity.ActiveStatuses), rng.Start, rng.End); err != nil {
		return nil, fmt.Errorf("list busy bookings for host %s: %w", hostID, err)
	}
	return bookings, nil
}

type seatRow struct {
	StartTime pq.NullTime `db:"start_time"`
	Seats     int         `db:"seats"`
}

func (r *bookingRepository) SeatCounts(ctx context.Context, eventTypeID uuid.UUID, rng interval.Interval) (entity.SeatCounts, error) {
	query := `
		SELECT b.start_time, COUNT(a.id) AS seats
		FROM bookings b
		JOIN booking_attendees a ON a.booking_id = b.id
		WHERE b.event_type_id = $1
			AND b.status = ANY($2)
			AND b.start_time >= $3
			AND b.start_time < $4
		GROUP BY b.start_time
	`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, eventTypeID, pq.Array(entity.ActiveStatuses), rng.Start, rng.End); err != nil {
		return nil, fmt.Errorf("count seats for event type %s: %w", eventTypeID, err)
	}

	counts := make(entity.SeatCounts, len(rows))
	for _, row := range rows {
		if row.StartTime.Valid {
			counts.Add(row.StartTime.Time, row.Seats)
		}
	}
	return counts, nil
}

func (r *bookingRepository) CountInBucket(ctx context.Context, eventTypeID uuid.UUID, bucket entity.Bucket) (int, error) {
	from, to, err := bucket.Range()
	if err != nil {
		return 0, err
	}

	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE event_type_id = $1
			AND status = ANY($2)
			AND start_time >= $3
			AND start_time < $4
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, eventTypeID, pq.Array(entity.ActiveStatuses), from, to); err != nil {
		return 0, fmt.Errorf("count bookings of event type %s in %s %s: %w", eventTypeID, bucket.Granularity, bucket.Key, err)
	}
	return count, nil
}
