package dto

import (
	"time"

	"smart-schedule/modules/availability/entity"
)

// ===================== Request DTOs =====================

// AvailabilityRequest asks for the bookable slots of an event type
type AvailabilityRequest struct {
	EventTypeID     string         `json:"event_type_id"`
	HostIDs         []string       `json:"host_ids"`
	DateFrom        string         `json:"date_from"` // YYYY-MM-DD or RFC3339
	DateTo          string         `json:"date_to"`   // YYYY-MM-DD (inclusive) or RFC3339
	BookerTimezone  string         `json:"booker_timezone"`
	DurationMinutes int            `json:"duration_minutes"`
	SeatsPerSlot    *int           `json:"seats_per_slot"`
	BookingLimits   map[string]int `json:"booking_limits"`
	PeriodType      string         `json:"period_type"`
	PeriodBound     *PeriodBound   `json:"period_bound"`
	PreviousHostID  string         `json:"previous_host_id"`
}

// PeriodBound carries the rolling day count or the fixed date range
type PeriodBound struct {
	Days      int    `json:"days"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ===================== Response DTOs =====================

// SlotDTO is one bookable slot in the booker timezone
type SlotDTO struct {
	Start            string   `json:"start"`
	End              string   `json:"end"`
	RemainingSeats   *int     `json:"remaining_seats,omitempty"`
	QualifiedHostIDs []string `json:"qualified_host_ids"`
}

// AvailabilityResponse groups slots by booker-local date
type AvailabilityResponse struct {
	SlotsByDate map[string][]SlotDTO `json:"slots_by_date"`
}

// ToSlotDTO renders a slot in loc
func ToSlotDTO(slot *entity.CandidateSlot, loc *time.Location) *SlotDTO {
	ids := make([]string, 0, len(slot.QualifiedHosts))
	for _, id := range slot.QualifiedHosts {
		ids = append(ids, id.String())
	}
	return &SlotDTO{
		Start:            slot.Start.In(loc).Format(time.RFC3339),
		End:              slot.End.In(loc).Format(time.RFC3339),
		RemainingSeats:   slot.RemainingSeats,
		QualifiedHostIDs: ids,
	}
}

// ToAvailabilityResponse groups ordered slots by the booker-local date they start on
func ToAvailabilityResponse(slots []entity.CandidateSlot, loc *time.Location) *AvailabilityResponse {
	response := &AvailabilityResponse{SlotsByDate: make(map[string][]SlotDTO)}
	for k := range slots {
		date := slots[k].Start.In(loc).Format(time.DateOnly)
		response.SlotsByDate[date] = append(response.SlotsByDate[date], *ToSlotDTO(&slots[k], loc))
	}
	return response
}

// Count returns the number of slots across all dates
func (r *AvailabilityResponse) Count() int {
	n := 0
	for _, slots := range r.SlotsByDate {
		n += len(slots)
	}
	return n
}
