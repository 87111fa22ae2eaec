package notification

import (
	"fmt"

	"smart-schedule/core/config"
	"smart-schedule/core/database"
	"smart-schedule/core/logger"
	"smart-schedule/modules/notification/repository"
	"smart-schedule/modules/notification/service"

	"github.com/hibiken/asynq"
)

// Init builds the no-slots notifier selected by cfg.Notifier.Driver.
func Init(cfg *config.Config, db database.Database) (service.NoSlotsNotifier, error) {
	switch cfg.Notifier.Driver {
	case "asynq":
		logger.Info("Notification:Init", "driver", "asynq", "redis", cfg.Redis.Addr)
		return service.NewAsynqNotifier(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), nil
	case "amqp":
		logger.Info("Notification:Init", "driver", "amqp", "queue", cfg.Notifier.Queue)
		return service.NewAMQPNotifier(cfg.Notifier.AMQPURL, cfg.Notifier.Queue)
	case "inapp":
		if db == nil {
			return nil, fmt.Errorf("inapp notifier requires a database")
		}
		logger.Info("Notification:Init", "driver", "inapp")
		return service.NewInAppNotifier(repository.NewNotificationRepository(db)), nil
	case "", "log":
		return service.NewLogNotifier(), nil
	}
	return nil, fmt.Errorf("unknown notifier driver %q", cfg.Notifier.Driver)
}
