package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/tesotunes/storefront/pkg/logging"
)

// ListenPQ subscribes to a Postgres NOTIFY channel and signals the returned
// channel whenever a transaction that wrote outbox rows commits. Signals are
// coalesced; the relay drains everything due on each wake-up.
func ListenPQ(ctx context.Context, dsn, channel string) (<-chan struct{}, error) {
	l := logging.FromContext(ctx).With("component", "outbox.listener")

	listener := pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.Warn("outbox_listener_event", "event", int(ev), "error", err)
		}
	})
	if err := listener.Listen(channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}

	wake := make(chan struct{}, 1)
	go func() {
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Notify:
				// nil notifications arrive after a reconnect; wake anyway.
				signal(wake)
			case <-time.After(90 * time.Second):
				go func() { _ = listener.Ping() }()
			}
		}
	}()
	return wake, nil
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
