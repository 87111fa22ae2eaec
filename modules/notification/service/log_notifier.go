package service

import (
	"context"

	"smart-schedule/core/logger"
	"smart-schedule/modules/notification/entity"
)

type logNotifier struct{}

func NewLogNotifier() NoSlotsNotifier {
	return logNotifier{}
}

func (logNotifier) NotifyNoSlots(_ context.Context, event entity.NoSlotsEvent) error {
	logger.Info("NoSlotsNotifier:Log",
		"computation_id", event.ComputationID,
		"event_type_id", event.EventTypeID,
		"hosts", len(event.HostIDs),
		"from", event.From,
		"to", event.To,
		"timezone", event.Timezone,
	)
	return nil
}

func (logNotifier) Close() error { return nil }
