package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/creators-jp/portal-server/internal/database"
	"github.com/creators-jp/portal-server/internal/model"
)

type NotificationLogRepository interface {
	// Append records one notification attempt. The log is audit-only.
	Append(ctx context.Context, site model.Site, typ model.NotificationType, status model.NotificationStatus, message *string) error
	ListBySite(ctx context.Context, site model.Site, limit int) ([]model.NotificationLog, error)
}

type notificationLogRepo struct {
	db database.DBTX
}

func NewNotificationLogRepository(db *sqlx.DB) NotificationLogRepository {
	return &notificationLogRepo{db: db}
}

func (r *notificationLogRepo) Append(ctx context.Context, site model.Site, typ model.NotificationType, status model.NotificationStatus, message *string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_logs (site, type, status, message)
		VALUES ($1, $2, $3, $4)
	`, site, typ, status, message)
	return err
}

func (r *notificationLogRepo) ListBySite(ctx context.Context, site model.Site, limit int) ([]model.NotificationLog, error) {
	logs := []model.NotificationLog{}
	err := r.db.SelectContext(ctx, &logs, `
		SELECT * FROM notification_logs
		WHERE site = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, site, limit)
	return logs, err
}
