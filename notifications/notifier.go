package notifications

import (
	"context"
	"encoding/json"

	"github.com/worklink/api-go/models"
	"gorm.io/gorm"
)

// TopicConnections carries every connection-graph event.
const TopicConnections = "connections"

// Event types and payload keys. Only positive outcomes are ever notified.
const (
	TypeNewConnectionRequest = "new_connection_request"
	TypeConnectionAccepted   = "connection_accepted"

	KeyType         = "Type"
	KeyUserID       = "UserId"
	KeyRequesterID  = "RequesterId"
	KeyAccepterID   = "AccepterId"
	KeyConnectionID = "ConnectionId"
)

// Notifier is the fire-and-forget event sink. Callers never await delivery
// and must not fail their own operation when Enqueue errors.
type Notifier interface {
	Enqueue(ctx context.Context, topic string, payload map[string]string) error
}

type dbNotifier struct {
	db *gorm.DB
}

// NewDBNotifier writes events as notification_events rows, the durable
// hand-off point for the external delivery pipeline.
func NewDBNotifier(db *gorm.DB) Notifier {
	return &dbNotifier{db: db}
}

func (n *dbNotifier) Enqueue(ctx context.Context, topic string, payload map[string]string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := models.NotificationEvent{
		Topic:   topic,
		Payload: string(raw),
	}
	return n.db.WithContext(ctx).Create(&event).Error
}
