package service

import (
	"context"
	"errors"
	"time"

	coreEntity "smart-schedule/core/entity"
	"smart-schedule/modules/notification/entity"
	"smart-schedule/modules/notification/repository"
)

type inAppNotifier struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

// NewInAppNotifier stores one notification per host of the event type.
func NewInAppNotifier(repo repository.NotificationRepository) NoSlotsNotifier {
	return &inAppNotifier{repo: repo, now: time.Now}
}

func (n *inAppNotifier) NotifyNoSlots(ctx context.Context, event entity.NoSlotsEvent) error {
	var errs []error
	for _, hostID := range event.HostIDs {
		now := n.now()
		notif := &entity.Notification{
			UserID:  hostID,
			Title:   "No available slots",
			Message: describe(event),
			Type:    entity.TypeNoSlots,
			Data: entity.JSONB{
				"computation_id": event.ComputationID,
				"event_type_id":  event.EventTypeID.String(),
				"from":           event.From.Format(time.RFC3339),
				"to":             event.To.Format(time.RFC3339),
				"timezone":       event.Timezone,
			},
			BaseEntity: coreEntity.BaseEntity{
				CreatedAt: now,
				UpdatedAt: now,
			},
		}
		if err := n.repo.Create(ctx, notif); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *inAppNotifier) Close() error { return nil }
