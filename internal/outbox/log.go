package outbox

import (
	"context"

	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/pkg/logging"
)

// LogSink stands in for a broker that is not configured.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, e models.OutboxEvent) error {
	logging.FromContext(ctx).Info("outbox_event",
		"event_id", e.ID,
		"topic", e.Topic,
		"type", e.Type,
		"key", e.Key,
		"payload", e.Payload,
	)
	return nil
}
