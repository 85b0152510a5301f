package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"conferencecompanion/internal/domain"
)

// DefaultStaleTime is how long a fetched catalog is served before refetching.
const DefaultStaleTime = 5 * time.Minute

type cachedEvent struct {
	event     *domain.ConferenceEvent
	fetchedAt time.Time
}

// CachedSource serves a catalog from memory until it is older than the stale
// time. When a refetch fails and a stale copy exists, the stale copy is
// returned together with the error. Concurrent refetches of the same entry
// share one upstream call, and the lock is never held across it.
type CachedSource struct {
	next      domain.EventSource
	staleTime time.Duration
	now       func() time.Time
	group     singleflight.Group

	mu        sync.Mutex
	gen       uint64
	events    []domain.ConferenceEvent
	fetchedAt time.Time
	byID      map[string]cachedEvent
}

// NewCachedSource wraps next. staleTime <= 0 means DefaultStaleTime.
func NewCachedSource(next domain.EventSource, staleTime time.Duration) *CachedSource {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	return &CachedSource{
		next:      next,
		staleTime: staleTime,
		now:       time.Now,
		byID:      make(map[string]cachedEvent),
	}
}

func (c *CachedSource) fresh(at time.Time) bool {
	return !at.IsZero() && c.now().Sub(at) < c.staleTime
}

// ListEvents implements domain.EventSource.
func (c *CachedSource) ListEvents(ctx context.Context) ([]domain.ConferenceEvent, error) {
	c.mu.Lock()
	if c.events != nil && c.fresh(c.fetchedAt) {
		events := c.events
		c.mu.Unlock()
		return events, nil
	}
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.group.Do(fmt.Sprintf("list/%d", gen), func() (any, error) {
		events, err := c.next.ListEvents(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.events = events
			c.fetchedAt = c.now()
		}
		c.mu.Unlock()
		return events, nil
	})
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.events, err
	}
	return v.([]domain.ConferenceEvent), nil
}

// GetEvent implements domain.EventSource.
func (c *CachedSource) GetEvent(ctx context.Context, eventID string) (*domain.ConferenceEvent, error) {
	c.mu.Lock()
	if e, ok := c.byID[eventID]; ok && c.fresh(e.fetchedAt) {
		c.mu.Unlock()
		return e.event, nil
	}
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.group.Do(fmt.Sprintf("event/%d/%s", gen, eventID), func() (any, error) {
		ev, err := c.next.GetEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.byID[eventID] = cachedEvent{event: ev, fetchedAt: c.now()}
		}
		c.mu.Unlock()
		return ev, nil
	})
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if e, ok := c.byID[eventID]; ok {
			return e.event, err
		}
		return nil, err
	}
	return v.(*domain.ConferenceEvent), nil
}

// Invalidate forces the next call to refetch. Fetches already in flight do
// not repopulate the cache.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.events = nil
	c.fetchedAt = time.Time{}
	c.byID = make(map[string]cachedEvent)
}

// FetchedAt returns when the catalog list was last fetched.
func (c *CachedSource) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchedAt
}
