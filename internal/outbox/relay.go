// Package outbox delivers rows of the transactional outbox to brokers after
// the business transaction has committed. Delivery is at-least-once.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tesotunes/storefront/internal/metrics"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/repo"
	"github.com/tesotunes/storefront/pkg/logging"
)

const maxBackoff = 5 * time.Minute

// Sink hands one event to a broker.
type Sink interface {
	Publish(ctx context.Context, e models.OutboxEvent) error
}

var ErrNoSink = errors.New("outbox: no sink for topic")

type Relay struct {
	Repo     *repo.GormRepo
	Sinks    map[string]Sink
	Fallback Sink
	Interval time.Duration
	Batch    int
	// Wake triggers an immediate drain, e.g. from a LISTEN/NOTIFY listener.
	Wake <-chan struct{}
	Now  func() time.Time
}

func (r *Relay) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func (r *Relay) sink(topic string) (Sink, error) {
	if s, ok := r.Sinks[topic]; ok && s != nil {
		return s, nil
	}
	if r.Fallback != nil {
		return r.Fallback, nil
	}
	return nil, fmt.Errorf("%w %q", ErrNoSink, topic)
}

// Backoff doubles the base interval per failed attempt, capped at five minutes.
func Backoff(base time.Duration, attempts int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// Run drains the outbox until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	l := logging.FromContext(ctx).With("component", "outbox.relay")
	l.Info("outbox_relay_started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for {
			n, err := r.Drain(ctx)
			if err != nil && ctx.Err() == nil {
				l.Error("outbox_drain_error", "error", err)
			}
			if err != nil || n < r.batch() {
				break
			}
		}

		select {
		case <-ctx.Done():
			l.Info("outbox_relay_stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-r.Wake:
		}
	}
}

func (r *Relay) batch() int {
	if r.Batch <= 0 {
		return 100
	}
	return r.Batch
}

// Drain publishes one batch of due events and returns how many it looked at.
// A failed event is rescheduled; it never blocks the rest of the batch.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	events, err := r.Repo.DueOutbox(ctx, r.now(), r.batch())
	if err != nil {
		return 0, err
	}
	l := logging.FromContext(ctx)

	for _, e := range events {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		err := r.deliver(ctx, e)
		metrics.RecordOutboxDelivery(e.Topic, err == nil)
		if err == nil {
			if err := r.Repo.MarkPublished(ctx, e.ID, r.now()); err != nil {
				return 0, err
			}
			continue
		}

		attempts := e.Attempts + 1
		next := r.now().Add(Backoff(r.Interval, attempts))
		l.Warn("outbox_publish_error",
			"event_id", e.ID,
			"topic", e.Topic,
			"type", e.Type,
			"attempts", attempts,
			"error", err,
		)
		if err := r.Repo.MarkFailed(ctx, e.ID, attempts, err.Error(), next); err != nil {
			return 0, err
		}
	}
	return len(events), nil
}

func (r *Relay) deliver(ctx context.Context, e models.OutboxEvent) error {
	s, err := r.sink(e.Topic)
	if err != nil {
		return err
	}
	return s.Publish(ctx, e)
}
