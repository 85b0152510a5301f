package domain

import (
	"context"
	"time"
)

// Bookmark is a user's saved-session marker, optionally paired with a scheduled reminder.
// Bookmarks are never mutated: toggling off and on again replaces the record.
// swagger:model Bookmark
type Bookmark struct {
	SessionID      string    `json:"sessionId"`
	NotificationID string    `json:"notificationId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// EventState is the persisted shape of the event/session store.
// ActiveEventID is empty when no event is selected.
type EventState struct {
	ActiveEventID string            `json:"activeEventId"`
	ActiveDayID   map[string]string `json:"activeDayId"`
	Bookmarks     []Bookmark        `json:"bookmarks"`
	IsInitialized bool              `json:"isInitialized"`
}

// Clone returns a deep copy so callers can't alias store internals.
func (s EventState) Clone() EventState {
	out := EventState{
		ActiveEventID: s.ActiveEventID,
		ActiveDayID:   make(map[string]string, len(s.ActiveDayID)),
		Bookmarks:     make([]Bookmark, len(s.Bookmarks)),
		IsInitialized: s.IsInitialized,
	}
	for k, v := range s.ActiveDayID {
		out.ActiveDayID[k] = v
	}
	copy(out.Bookmarks, s.Bookmarks)
	return out
}

// KeyValueStore is durable on-device storage shared by all persisted stores under distinct keys.
type KeyValueStore interface {
	// Get returns ok=false when the key has never been written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}
