package model

import "time"

type NotificationType string

const (
	NotificationMonthly NotificationType = "monthly"
	NotificationArticle NotificationType = "article"
)

type NotificationStatus string

const (
	NotificationSuccess NotificationStatus = "success"
	NotificationError   NotificationStatus = "error"
)

// NotificationLog is an append-only audit row; it is never read back
// for logic decisions.
type NotificationLog struct {
	ID        int64              `db:"id" json:"id"`
	Site      Site               `db:"site" json:"site"`
	Type      NotificationType   `db:"type" json:"type"`
	Status    NotificationStatus `db:"status" json:"status"`
	Message   *string            `db:"message" json:"message"`
	CreatedAt time.Time          `db:"created_at" json:"createdAt"`
}
