package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smart-schedule/core/database"
	"smart-schedule/modules/availability/entity"

	"github.com/google/uuid"
)

type EventTypeRepository interface {
	// GetByID returns nil when the event type does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.EventType, error)
}

type eventTypeRepository struct {
	db database.Database
}

func NewEventTypeRepository(db database.Database) EventTypeRepository {
	return &eventTypeRepository{db: db}
}

func (r *eventTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.EventType, error) {
	query := `
		SELECT id, owner_id, title, slug, scheduling_type, length,
			before_event_buffer, after_event_buffer, minimum_booking_notice, slot_interval,
			period_type, period_days, period_start_date, period_end_date,
			booking_limits, seats_per_time_slot, timezone, created_at, updated_at
		FROM event_types
		WHERE id = $1
	`
	var eventType entity.EventType
	if err := r.db.GetContext(ctx, &eventType, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event type %s: %w", id, err)
	}
	return &eventType, nil
}
