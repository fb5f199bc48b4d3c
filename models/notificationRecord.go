package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/sav_backend/config"
	"bitbucket.org/mmdatafocus/sav_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRecord implements the transactional outbox for workflow events:
// the row is written inside the caller's DB transaction, and publishing to
// Pub/Sub happens asynchronously after commit via the dispatcher. Notification
// delivery therefore never blocks or fails a workflow call.
type NotificationRecord struct {
	ID         int       `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	EventType  EventType `gorm:"size:40;not null;index" json:"event_type"`
	TicketId   int       `gorm:"index" json:"ticket_id"`
	PartId     int       `gorm:"index" json:"part_id"`
	OccurredAt time.Time `gorm:"index;not null" json:"occurred_at"`
	Payload    []byte    `gorm:"type:blob" json:"payload"`
	// Outbox metadata (publish happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToNotificationMessage(record NotificationRecord) config.NotificationMessage {
	return config.NotificationMessage{
		ID:            record.ID,
		EventType:     string(record.EventType),
		TicketId:      record.TicketId,
		PartId:        record.PartId,
		OccurredAt:    record.OccurredAt,
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

// QueueNotification writes the event record inside the caller's DB transaction
// but does NOT publish to Pub/Sub; the outbox dispatcher does that after
// commit. Fire-and-forget from the workflow's point of view.
func QueueNotification(ctx context.Context, tx *gorm.DB, eventType EventType, ticketId int, partId int, payload interface{}) error {

	var payloadInByte []byte
	var err error
	if payload != nil {
		payloadInByte, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	record := NotificationRecord{
		EventType:     eventType,
		TicketId:      ticketId,
		PartId:        partId,
		OccurredAt:    time.Now().UTC(),
		Payload:       payloadInByte,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
