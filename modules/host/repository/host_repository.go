package repository

import (
	"context"
	"fmt"

	"smart-schedule/core/database"
	"smart-schedule/modules/host/entity"

	"github.com/google/uuid"
)

type HostRepository interface {
	// ListByEventType returns the team of an event type ordered by host id.
	ListByEventType(ctx context.Context, eventTypeID uuid.UUID) ([]entity.Host, error)
}

type hostRepository struct {
	db database.Database
}

func NewHostRepository(db database.Database) HostRepository {
	return &hostRepository{db: db}
}

func (r *hostRepository) ListByEventType(ctx context.Context, eventTypeID uuid.UUID) ([]entity.Host, error) {
	query := `
		SELECT h.user_id, h.is_fixed, h.priority, h.weight, COALESCE(u.timezone, 'UTC') AS timezone
		FROM event_type_hosts h
		JOIN users u ON u.id = h.user_id
		WHERE h.event_type_id = $1
		ORDER BY h.user_id
	`
	var hosts []entity.Host
	if err := r.db.SelectContext(ctx, &hosts, query, eventTypeID); err != nil {
		return nil, fmt.Errorf("list hosts of event type %s: %w", eventTypeID, err)
	}
	return hosts, nil
}
