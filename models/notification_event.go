package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationEvent is the durable hand-off row for the external delivery
// pipeline. The graph write never depends on it.
type NotificationEvent struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	Topic     string    `gorm:"not null;index" json:"topic"`
	Payload   string    `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

func (NotificationEvent) TableName() string {
	return "notification_events"
}

func (e *NotificationEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
