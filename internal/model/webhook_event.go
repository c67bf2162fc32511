package model

import (
	"time"
)

// WebhookEvent logs every verified processor event with dedup metadata so
// redelivered events can be recognized and replays stay idempotent.
type WebhookEvent struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	StripeEventID   string     `gorm:"size:100;uniqueIndex;not null" json:"stripe_event_id"`
	EventType       string     `gorm:"size:100;not null;index" json:"event_type"`
	EventCreatedAt  time.Time  `json:"event_created_at"`
	Payload         string     `gorm:"type:text" json:"-"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
