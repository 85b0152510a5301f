package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"conferencecompanion/internal/domain"
)

// EventStore holds the active event, the per-event day cursor and the
// bookmarks. The event catalog is never stored here; callers pass the
// freshly fetched catalog to every selector and action that needs it.
//
// Each mutation updates memory synchronously and then queues a snapshot for
// the KeyValueStore without waiting for it.
type EventStore struct {
	mu    sync.RWMutex
	state domain.EventState

	kv          domain.KeyValueStore
	writer      *snapshotWriter
	coordinator *BookmarkCoordinator
	inflight    singleflight.Group
	logger      *slog.Logger
	now         func() time.Time
}

// NewEventStore returns an empty store persisting to kv. Call Load before use
// to rehydrate the previous session.
func NewEventStore(kv domain.KeyValueStore, coordinator *BookmarkCoordinator, logger *slog.Logger, opts ...Option) *EventStore {
	o := buildOptions(opts)
	return &EventStore{
		state:       domain.EventState{ActiveDayID: map[string]string{}, Bookmarks: []domain.Bookmark{}},
		kv:          kv,
		writer:      newSnapshotWriter(kv, EventStoreKey, logger),
		coordinator: coordinator,
		logger:      logger,
		now:         o.now,
	}
}

// Load rehydrates the persisted snapshot. A missing snapshot leaves the fresh
// state in place; an unreadable one is logged and ignored.
func (s *EventStore) Load(ctx context.Context) error {
	var snap domain.EventState
	found, err := loadSnapshot(ctx, s.kv, EventStoreKey, &snap)
	if err != nil {
		s.logger.WarnContext(ctx, "event store snapshot ignored", "err", err)
		return nil
	}
	if !found {
		return nil
	}
	if snap.ActiveDayID == nil {
		snap.ActiveDayID = map[string]string{}
	}
	if snap.Bookmarks == nil {
		snap.Bookmarks = []domain.Bookmark{}
	}
	s.mu.Lock()
	s.state = snap
	s.mu.Unlock()
	return nil
}

// Flush waits until the latest snapshot has been handed to the KeyValueStore.
func (s *EventStore) Flush() { s.writer.Flush() }

// Close flushes pending writes and stops the background writer.
func (s *EventStore) Close() { s.writer.Close() }

// Snapshot returns a copy of the current state.
func (s *EventStore) Snapshot() domain.EventState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// commit must be called with s.mu held for writing.
func (s *EventStore) commit() {
	s.writer.Save(s.state.Clone())
}

// seedDay sets the cursor of event to its first day (array order) when no
// cursor exists yet. Caller holds s.mu.
func (s *EventStore) seedDay(event *domain.ConferenceEvent) {
	if event == nil || len(event.Days) == 0 {
		return
	}
	if _, ok := s.state.ActiveDayID[event.ID]; ok {
		return
	}
	s.state.ActiveDayID[event.ID] = event.Days[0].ID
}

// SetActiveEvent makes eventID active. If the event is in the catalog, has
// days and no cursor yet, its first day becomes the cursor. An id missing from
// the catalog is still set, without a cursor.
func (s *EventStore) SetActiveEvent(eventID string, events []domain.ConferenceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ActiveEventID = eventID
	s.seedDay(domain.FindEvent(events, eventID))
	s.commit()
}

// InitializeActiveEvent picks the active event once the persisted state has
// been loaded and the catalog fetched. Calling it again with the same catalog
// changes nothing.
func (s *EventStore) InitializeActiveEvent(events []domain.ConferenceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsInitialized && s.state.ActiveEventID != "" {
		if ev := domain.FindEvent(events, s.state.ActiveEventID); ev != nil {
			if _, ok := s.state.ActiveDayID[ev.ID]; !ok && len(ev.Days) > 0 {
				s.seedDay(ev)
				s.commit()
			}
		}
		return
	}

	if s.state.ActiveEventID != "" && !s.state.IsInitialized {
		if ev := domain.FindEvent(events, s.state.ActiveEventID); ev != nil {
			s.seedDay(ev)
			s.state.IsInitialized = true
			s.commit()
			return
		}
	}

	selected := s.currentOrUpcoming(events)
	if selected == nil && len(events) > 0 {
		selected = &events[0]
	}
	if selected == nil {
		s.state.IsInitialized = true
		s.commit()
		return
	}
	s.seedDay(selected)
	s.state.ActiveEventID = selected.ID
	s.state.IsInitialized = true
	s.commit()
}

// currentOrUpcoming returns the first event in catalog order whose end date
// is not before now.
func (s *EventStore) currentOrUpcoming(events []domain.ConferenceEvent) *domain.ConferenceEvent {
	now := s.now()
	for i := range events {
		end, ok := events[i].EndsAt()
		if ok && !end.Before(now) {
			return &events[i]
		}
	}
	return nil
}

// SetActiveDay overwrites the day cursor of eventID without validation.
func (s *EventStore) SetActiveDay(eventID, dayID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ActiveDayID[eventID] = dayID
	s.commit()
}

// SelectDay is SetActiveDay after checking that dayID belongs to eventID in
// the catalog. Mismatched ids are rejected and leave the cursor untouched.
func (s *EventStore) SelectDay(eventID, dayID string, events []domain.ConferenceEvent) error {
	ev := domain.FindEvent(events, eventID)
	if ev == nil {
		return domain.ErrEventNotFound
	}
	if ev.DayByID(dayID) == nil {
		return domain.ErrDayNotFound
	}
	s.SetActiveDay(eventID, dayID)
	return nil
}

// IsBookmarked reports whether sessionID is bookmarked.
func (s *EventStore) IsBookmarked(sessionID string) bool {
	_, ok := s.Bookmark(sessionID)
	return ok
}

// Bookmark returns the bookmark for sessionID.
func (s *EventStore) Bookmark(sessionID string) (domain.Bookmark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.state.Bookmarks {
		if b.SessionID == sessionID {
			return b, true
		}
	}
	return domain.Bookmark{}, false
}

// Bookmarks returns a copy of all bookmarks in insertion order.
func (s *EventStore) Bookmarks() []domain.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Bookmark, len(s.state.Bookmarks))
	copy(out, s.state.Bookmarks)
	return out
}

func (s *EventStore) addBookmark(b domain.Bookmark) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Bookmarks = append(s.state.Bookmarks, b)
	s.commit()
}

func (s *EventStore) removeBookmark(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.state.Bookmarks[:0:0]
	for _, b := range s.state.Bookmarks {
		if b.SessionID != sessionID {
			kept = append(kept, b)
		}
	}
	s.state.Bookmarks = kept
	s.commit()
}

func (s *EventStore) setNotificationID(sessionID, notificationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Bookmarks {
		if s.state.Bookmarks[i].SessionID == sessionID {
			s.state.Bookmarks[i].NotificationID = notificationID
			s.commit()
			return
		}
	}
}

func (s *EventStore) cursor() (eventID, dayID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eventID = s.state.ActiveEventID
	return eventID, s.state.ActiveDayID[eventID]
}

// ActiveEvent returns the active event from the catalog, or nil.
func (s *EventStore) ActiveEvent(events []domain.ConferenceEvent) *domain.ConferenceEvent {
	eventID, _ := s.cursor()
	if eventID == "" {
		return nil
	}
	return domain.FindEvent(events, eventID)
}

// ActiveDay returns the day the active event's cursor points at, or nil.
func (s *EventStore) ActiveDay(events []domain.ConferenceEvent) *domain.EventDay {
	eventID, dayID := s.cursor()
	if eventID == "" {
		return nil
	}
	ev := domain.FindEvent(events, eventID)
	if ev == nil {
		return nil
	}
	return ev.DayByID(dayID)
}

// SessionsForActiveDay returns the active day's sessions, or an empty slice.
func (s *EventStore) SessionsForActiveDay(events []domain.ConferenceEvent) []domain.Session {
	day := s.ActiveDay(events)
	if day == nil || day.Sessions == nil {
		return []domain.Session{}
	}
	return day.Sessions
}

// BookmarkedSessions returns the active event's bookmarked sessions ordered by start time.
func (s *EventStore) BookmarkedSessions(events []domain.ConferenceEvent) []domain.Session {
	ev := s.ActiveEvent(events)
	if ev == nil {
		return []domain.Session{}
	}
	s.mu.RLock()
	ids := make(map[string]struct{}, len(s.state.Bookmarks))
	for _, b := range s.state.Bookmarks {
		ids[b.SessionID] = struct{}{}
	}
	s.mu.RUnlock()

	return collectSessions(ev, func(sess domain.Session) bool {
		_, ok := ids[sess.ID]
		return ok
	})
}

// SessionsBySpeakerID returns the active event's sessions listing speakerID, ordered by start time.
func (s *EventStore) SessionsBySpeakerID(events []domain.ConferenceEvent, speakerID string) []domain.Session {
	ev := s.ActiveEvent(events)
	if ev == nil {
		return []domain.Session{}
	}
	return collectSessions(ev, func(sess domain.Session) bool {
		return sess.HasSpeaker(speakerID)
	})
}

// SpeakerByID looks speakerID up in the active event only.
func (s *EventStore) SpeakerByID(events []domain.ConferenceEvent, speakerID string) *domain.Speaker {
	ev := s.ActiveEvent(events)
	if ev == nil {
		return nil
	}
	for i := range ev.Speakers {
		if ev.Speakers[i].ID == speakerID {
			return &ev.Speakers[i]
		}
	}
	return nil
}

// SessionByID looks sessionID up in the active event only.
func (s *EventStore) SessionByID(events []domain.ConferenceEvent, sessionID string) *domain.Session {
	ev := s.ActiveEvent(events)
	if ev == nil {
		return nil
	}
	for d := range ev.Days {
		for i := range ev.Days[d].Sessions {
			if ev.Days[d].Sessions[i].ID == sessionID {
				return &ev.Days[d].Sessions[i]
			}
		}
	}
	return nil
}

// AllSpeakers returns the active event's speaker list.
func (s *EventStore) AllSpeakers(events []domain.ConferenceEvent) []domain.Speaker {
	ev := s.ActiveEvent(events)
	if ev == nil || ev.Speakers == nil {
		return []domain.Speaker{}
	}
	return ev.Speakers
}

// collectSessions copies the matching sessions of every day and sorts them by start time.
func collectSessions(ev *domain.ConferenceEvent, match func(domain.Session) bool) []domain.Session {
	out := []domain.Session{}
	for _, day := range ev.Days {
		for _, sess := range day.Sessions {
			if match(sess) {
				out = append(out, sess)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
