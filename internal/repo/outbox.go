package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tesotunes/storefront/internal/models"
)

const OutboxChannel = "store_outbox"

// AddOutbox stores events in the caller's transaction. On Postgres it also
// queues a NOTIFY, which the server delivers only on commit.
func (r *GormRepo) AddOutbox(ctx context.Context, events ...*models.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	db := r.DB.WithContext(ctx)
	if err := db.Create(events).Error; err != nil {
		return err
	}
	if r.Dialect() == "postgres" {
		return db.Exec("SELECT pg_notify(?, '')", OutboxChannel).Error
	}
	return nil
}

func (r *GormRepo) DueOutbox(ctx context.Context, now time.Time, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.DB.WithContext(ctx).
		Where("published_at IS NULL AND next_attempt_at <= ?", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *GormRepo) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND published_at IS NULL", id).
		Updates(map[string]any{"published_at": at, "last_error": ""}).Error
}

func (r *GormRepo) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string, next time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"attempts": attempts, "last_error": lastErr, "next_attempt_at": next}).Error
}

func (r *GormRepo) ListOutbox(ctx context.Context, topic string) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	q := r.DB.WithContext(ctx).Order("created_at ASC")
	if topic != "" {
		q = q.Where("topic = ?", topic)
	}
	err := q.Find(&events).Error
	return events, err
}
