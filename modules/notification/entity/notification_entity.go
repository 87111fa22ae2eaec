package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"smart-schedule/core/entity"

	"github.com/google/uuid"
)

const TypeNoSlots = "availability_no_slots"

// Notification is an in-app notification row.
type Notification struct {
	UserID  uuid.UUID `db:"user_id" json:"user_id"`
	Title   string    `db:"title" json:"title"`
	Message string    `db:"message" json:"message"`
	Type    string    `db:"type" json:"type"`
	Data    JSONB     `db:"data" json:"data"`
	IsRead  bool      `db:"is_read" json:"is_read"`
	entity.BaseEntity
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *JSONB) Scan(value any) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &a)
}

// NoSlotsEvent is emitted when an availability request yields no slot.
type NoSlotsEvent struct {
	ComputationID  string      `json:"computation_id"`
	EventTypeID    uuid.UUID   `json:"event_type_id"`
	EventTypeTitle string      `json:"event_type_title"`
	EventTypeSlug  string      `json:"event_type_slug"`
	HostIDs        []uuid.UUID `json:"host_ids"`
	From           time.Time   `json:"from"`
	To             time.Time   `json:"to"`
	Timezone       string      `json:"timezone"`
	OccurredAt     time.Time   `json:"occurred_at"`
}
