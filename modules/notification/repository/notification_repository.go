package repository

import (
	"context"

	"smart-schedule/core/database"
	"smart-schedule/core/logger"
	"smart-schedule/modules/notification/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
}

type notificationRepository struct {
	db database.Database
}

func NewNotificationRepository(db database.Database) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	query := `
		INSERT INTO notifications (title, message, type, data, user_id, is_read, created_at, updated_at)
		VALUES (:title, :message, :type, :data, :user_id, :is_read, :created_at, :updated_at)
		RETURNING id
	`
	rows, err := r.db.NamedQueryContext(ctx, query, notification)
	if err != nil {
		logger.Error("NotificationRepository:Create:Error", "user_id", notification.UserID, "error", err)
		return err
	}
	defer rows.Close()

	if rows.Next() {
		return rows.Scan(&notification.ID)
	}
	return rows.Err()
}
