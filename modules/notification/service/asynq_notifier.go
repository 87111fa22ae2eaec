package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smart-schedule/core/constants"
	"smart-schedule/core/logger"
	"smart-schedule/modules/notification/entity"

	"github.com/hibiken/asynq"
)

// taskEnqueuer is the part of *asynq.Client the notifier uses.
type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type asynqNotifier struct {
	client taskEnqueuer
}

func NewAsynqNotifier(opt asynq.RedisClientOpt) NoSlotsNotifier {
	return &asynqNotifier{client: asynq.NewClient(opt)}
}

// NotifyNoSlots enqueues one task per dedupe key; a duplicate is not an error.
func (n *asynqNotifier) NotifyNoSlots(ctx context.Context, event entity.NoSlotsEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal no-slots event: %w", err)
	}

	task := asynq.NewTask(constants.TaskTypeNoSlots, payload)
	info, err := n.client.EnqueueContext(ctx, task,
		asynq.Queue(constants.QueueNotification),
		asynq.TaskID(DedupeKey(event)),
		asynq.MaxRetry(3),
		asynq.Retention(time.Hour),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			logger.Debug("NoSlotsNotifier:Asynq:Duplicate", "key", DedupeKey(event))
			return nil
		}
		return fmt.Errorf("enqueue no-slots task: %w", err)
	}

	logger.Info("NoSlotsNotifier:Asynq:Enqueued", "task_id", info.ID, "queue", info.Queue)
	return nil
}

func (n *asynqNotifier) Close() error {
	return n.client.Close()
}
