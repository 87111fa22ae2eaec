package entity

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smart-schedule/core/constants"
	"smart-schedule/core/entity"
	bookingEntity "smart-schedule/modules/booking/entity"

	"github.com/google/uuid"
)

// LimitsJSON is the stored form of booking limits, e.g. {"day": 2, "week": 5}.
type LimitsJSON map[string]int

func (l LimitsJSON) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *LimitsJSON) Scan(value any) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, l)
}

// EventType is the stored definition of a bookable event.
type EventType struct {
	entity.BaseEntity
	OwnerID          uuid.NullUUID  `db:"owner_id" json:"owner_id"`
	Title            string         `db:"title" json:"title"`
	Slug             string         `db:"slug" json:"slug"`
	SchedulingType   string         `db:"scheduling_type" json:"scheduling_type"`
	LengthMinutes    int            `db:"length" json:"length"`
	BeforeBuffer     int            `db:"before_event_buffer" json:"before_event_buffer"`
	AfterBuffer      int            `db:"after_event_buffer" json:"after_event_buffer"`
	MinimumNotice    int            `db:"minimum_booking_notice" json:"minimum_booking_notice"`
	SlotInterval     sql.NullInt32  `db:"slot_interval" json:"slot_interval"`
	PeriodType       string         `db:"period_type" json:"period_type"`
	PeriodDays       sql.NullInt32  `db:"period_days" json:"period_days"`
	PeriodStartDate  sql.NullTime   `db:"period_start_date" json:"period_start_date"`
	PeriodEndDate    sql.NullTime   `db:"period_end_date" json:"period_end_date"`
	BookingLimits    LimitsJSON     `db:"booking_limits" json:"booking_limits"`
	SeatsPerTimeSlot sql.NullInt32  `db:"seats_per_time_slot" json:"seats_per_time_slot"`
	Timezone         sql.NullString `db:"timezone" json:"timezone"`
}

func (EventType) TableName() string {
	return "event_types"
}

// Constraints converts the stored columns into typed constraints.
func (e *EventType) Constraints() (EventTypeConstraints, error) {
	c := EventTypeConstraints{
		Duration:      time.Duration(e.LengthMinutes) * time.Minute,
		BufferBefore:  time.Duration(e.BeforeBuffer) * time.Minute,
		BufferAfter:   time.Duration(e.AfterBuffer) * time.Minute,
		MinimumNotice: time.Duration(e.MinimumNotice) * time.Minute,
		Period:        Period{Type: PeriodType(e.PeriodType)},
		Location:      time.UTC,
	}
	if c.Period.Type == "" {
		c.Period.Type = PeriodUnlimited
	}
	if e.SlotInterval.Valid {
		c.SlotInterval = time.Duration(e.SlotInterval.Int32) * time.Minute
	}
	if e.PeriodDays.Valid {
		c.Period.Days = int(e.PeriodDays.Int32)
	}
	if e.PeriodStartDate.Valid {
		c.Period.StartDate = e.PeriodStartDate.Time.Format(constants.DateLayout)
	}
	if e.PeriodEndDate.Valid {
		c.Period.EndDate = e.PeriodEndDate.Time.Format(constants.DateLayout)
	}
	if len(e.BookingLimits) > 0 {
		c.BookingLimits = make(Limits, len(e.BookingLimits))
		for k, v := range e.BookingLimits {
			c.BookingLimits[bookingEntity.Granularity(k)] = v
		}
	}
	if e.SeatsPerTimeSlot.Valid {
		seats := int(e.SeatsPerTimeSlot.Int32)
		c.SeatsPerSlot = &seats
	}
	if e.Timezone.Valid && e.Timezone.String != "" {
		loc, err := time.LoadLocation(e.Timezone.String)
		if err != nil {
			return c, fmt.Errorf("event type %s has invalid timezone %q: %w", e.ID, e.Timezone.String, err)
		}
		c.Location = loc
	}
	return c, nil
}
