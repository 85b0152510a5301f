package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"conferencecompanion/internal/domain"
)

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPing         = 90 * time.Second
)

// FeedListener delivers feed changes published by the feed repository using
// Postgres LISTEN/NOTIFY. Each Listen call owns one connection.
type FeedListener struct {
	connStr string
	logger  *slog.Logger
}

func NewFeedListener(connStr string, logger *slog.Logger) *FeedListener {
	return &FeedListener{connStr: connStr, logger: logger}
}

// Listen implements domain.FeedChangeSource.
func (l *FeedListener) Listen(ctx context.Context, eventID string) (<-chan domain.FeedChange, error) {
	channel := ChannelName(eventID)
	listener := pq.NewListener(l.connStr, listenerMinReconnect, listenerMaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.logger.Warn("feed listener", "channel", channel, "event", ev, "err", err)
		}
	})
	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	l.logger.Info("feed subscribed", "channel", channel)

	out := make(chan domain.FeedChange)
	go func() {
		defer close(out)
		defer listener.Close()
		ticker := time.NewTicker(listenerPing)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				l.logger.Info("feed unsubscribed", "channel", channel)
				return
			case n := <-listener.Notify:
				// nil after a reconnect; notifications sent meanwhile are lost.
				if n == nil {
					continue
				}
				change, err := decodeChange(n.Extra)
				if err != nil {
					l.logger.Warn("drop feed notification", "channel", channel, "err", err)
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			case <-ticker.C:
				go listener.Ping()
			}
		}
	}()
	return out, nil
}

func decodeChange(payload string) (domain.FeedChange, error) {
	var c domain.FeedChange
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return c, err
	}
	switch c.EventType {
	case domain.FeedChangeInsert, domain.FeedChangeUpdate, domain.FeedChangeDelete:
		return c, nil
	default:
		return c, fmt.Errorf("unknown change type %q", c.EventType)
	}
}
