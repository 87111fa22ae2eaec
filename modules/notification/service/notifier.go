package service

import (
	"context"
	"fmt"
	"strings"

	"smart-schedule/core/constants"
	"smart-schedule/modules/notification/entity"

	"github.com/gosimple/slug"
)

// NoSlotsNotifier receives the event fired when a request yields no slots.
// Delivery is best effort; callers log errors and carry on.
type NoSlotsNotifier interface {
	NotifyNoSlots(ctx context.Context, event entity.NoSlotsEvent) error
	Close() error
}

// DedupeKey identifies repeated notifications for the same event type, range
// and timezone.
func DedupeKey(event entity.NoSlotsEvent) string {
	name := event.EventTypeSlug
	if name == "" {
		name = slug.Make(event.EventTypeTitle)
	}
	if name == "" {
		name = event.EventTypeID.String()
	}
	return strings.Join([]string{
		"no-slots",
		name,
		event.From.UTC().Format(constants.DateLayout),
		event.To.UTC().Format(constants.DateLayout),
		slug.Make(event.Timezone),
	}, ":")
}

func describe(event entity.NoSlotsEvent) string {
	title := event.EventTypeTitle
	if title == "" {
		title = event.EventTypeID.String()
	}
	return fmt.Sprintf("No available slots for %q between %s and %s (%s)",
		title,
		event.From.Format(constants.DateLayout),
		event.To.Format(constants.DateLayout),
		event.Timezone,
	)
}
