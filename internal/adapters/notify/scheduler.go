package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"conferencecompanion/internal/domain"
)

const deliverTimeout = 30 * time.Second

// oneShot is a cron.Schedule that activates once at a fixed instant.
type oneShot struct {
	at time.Time
}

// Next returns the activation time while it is still ahead of t and the zero
// time afterwards, which cron treats as "never again".
func (o oneShot) Next(t time.Time) time.Time {
	if t.Before(o.at) {
		return o.at
	}
	return time.Time{}
}

// Pending is a scheduled notification that has not fired yet.
type Pending struct {
	ID           string              `json:"id"`
	Notification domain.Notification `json:"notification"`
}

type pendingEntry struct {
	entryID      cron.EntryID
	notification domain.Notification
}

// CronScheduler schedules local notifications as one-shot cron entries and
// hands them to a deliverer when they fire.
type CronScheduler struct {
	cron      *cron.Cron
	deliverer domain.NotificationDeliverer
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[string]pendingEntry
}

// NewCronScheduler returns a scheduler; call Start to begin firing.
func NewCronScheduler(deliverer domain.NotificationDeliverer, logger *slog.Logger) *CronScheduler {
	return &CronScheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		deliverer: deliverer,
		logger:    logger,
		entries:   make(map[string]pendingEntry),
	}
}

// Start runs the scheduler in its own goroutine.
func (s *CronScheduler) Start() { s.cron.Start() }

// Stop stops the scheduler; the returned context is done once running deliveries finish.
func (s *CronScheduler) Stop() context.Context { return s.cron.Stop() }

// Schedule implements domain.NotificationScheduler.
func (s *CronScheduler) Schedule(ctx context.Context, n domain.Notification) (string, error) {
	if n.FireAt.IsZero() {
		return "", errors.New("notification has no fire time")
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	entryID := s.cron.Schedule(oneShot{at: n.FireAt}, cron.FuncJob(func() { s.fire(id) }))
	s.entries[id] = pendingEntry{entryID: entryID, notification: n}
	s.logger.DebugContext(ctx, "notification scheduled", "id", id, "fire_at", n.FireAt, "url", n.Data.URL)
	return id, nil
}

// Cancel implements domain.NotificationScheduler.
func (s *CronScheduler) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	delete(s.entries, id)
	s.cron.Remove(e.entryID)
	s.logger.DebugContext(ctx, "notification cancelled", "id", id)
	return nil
}

// Pending lists notifications that have not fired, soonest first.
func (s *CronScheduler) Pending() []Pending {
	s.mu.Lock()
	out := make([]Pending, 0, len(s.entries))
	for id, e := range s.entries {
		out = append(out, Pending{ID: id, Notification: e.notification})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Notification.FireAt.Before(out[j].Notification.FireAt)
	})
	return out
}

func (s *CronScheduler) fire(id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
		s.cron.Remove(e.entryID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	if err := s.deliverer.Deliver(ctx, e.notification); err != nil {
		s.logger.Error("deliver notification", "id", id, "title", e.notification.Title, "err", err)
		return
	}
	s.logger.Info("notification delivered", "id", id, "url", e.notification.Data.URL)
}
