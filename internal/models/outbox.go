package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TopicOrderEvents   = "order_events"
	TopicNotifications = "customer_notifications"
)

// OutboxEvent is written in the same transaction as the state change it describes.
type OutboxEvent struct {
	ID            uuid.UUID  `gorm:"primaryKey"                   json:"id"`
	Topic         string     `gorm:"size:64;not null;index"       json:"topic"`
	Key           string     `gorm:"size:128"                     json:"key"`
	Type          string     `gorm:"size:64;not null"             json:"type"`
	Payload       string     `gorm:"type:text;not null"           json:"payload"`
	Attempts      int        `gorm:"not null"                     json:"attempts"`
	LastError     string     `gorm:"type:text"                    json:"last_error,omitempty"`
	NextAttemptAt time.Time  `gorm:"index:idx_outbox_due;not null" json:"next_attempt_at"`
	PublishedAt   *time.Time `gorm:"index:idx_outbox_due"         json:"published_at,omitempty"`
	CreatedAt     time.Time  `                                    json:"created_at"`
}

func (e *OutboxEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.NextAttemptAt.IsZero() {
		e.NextAttemptAt = tx.NowFunc()
	}
	return nil
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Store{}, &Product{},
		&Order{}, &OrderItem{},
		&Promotion{}, &PromotionRedemption{},
		&Payment{}, &OutboxEvent{},
	}
}
