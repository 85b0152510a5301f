package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"conferencecompanion/internal/domain"
)

// ReminderLeadTime is how long before a session starts its reminder fires.
const ReminderLeadTime = 5 * time.Minute

// PlatformWeb has no haptic engine; the selection cue is skipped there.
const PlatformWeb = "web"

// ReminderStatus is the outcome of the notification side of a bookmark.
type ReminderStatus string

const (
	ReminderScheduled        ReminderStatus = "scheduled"
	ReminderSkippedPast      ReminderStatus = "skipped_past"
	ReminderPermissionDenied ReminderStatus = "permission_denied"
	ReminderScheduleFailed   ReminderStatus = "schedule_failed"
	ReminderCancelled        ReminderStatus = "cancelled"
	ReminderNone             ReminderStatus = "none"
)

// ToggleAction says what ToggleBookmark did.
type ToggleAction string

const (
	ToggleAdded   ToggleAction = "added"
	ToggleRemoved ToggleAction = "removed"
	ToggleNoop    ToggleAction = "noop"
)

// ToggleResult describes a completed bookmark toggle.
type ToggleResult struct {
	Action   ToggleAction     `json:"action"`
	Bookmark *domain.Bookmark `json:"bookmark,omitempty"`
	Reminder ReminderStatus   `json:"reminder"`
}

// BookmarkCoordinator is the only component that talks to the notification
// subsystem. It keeps at most one scheduled reminder per live bookmark.
type BookmarkCoordinator struct {
	scheduler      domain.NotificationScheduler
	permission     domain.PermissionRequester
	haptics        domain.HapticFeedback
	platform       string
	hapticsEnabled func() bool
	logger         *slog.Logger
	now            func() time.Time
}

// NewBookmarkCoordinator wires the notification ports. haptics and
// hapticsEnabled may be nil.
func NewBookmarkCoordinator(
	scheduler domain.NotificationScheduler,
	permission domain.PermissionRequester,
	haptics domain.HapticFeedback,
	platform string,
	hapticsEnabled func() bool,
	logger *slog.Logger,
	opts ...Option,
) *BookmarkCoordinator {
	o := buildOptions(opts)
	return &BookmarkCoordinator{
		scheduler:      scheduler,
		permission:     permission,
		haptics:        haptics,
		platform:       platform,
		hapticsEnabled: hapticsEnabled,
		logger:         logger,
		now:            o.now,
	}
}

// SessionDeepLink is the route the navigation layer opens when a reminder is tapped.
func SessionDeepLink(sessionID string) string {
	return "/session/" + sessionID
}

// ReminderFor builds the reminder notification of a session.
func ReminderFor(session domain.Session) domain.Notification {
	return domain.Notification{
		Title:  fmt.Sprintf("\"%s\" starts in 5 minutes", session.Title),
		Data:   domain.NotificationData{URL: SessionDeepLink(session.ID)},
		FireAt: session.StartTime.Add(-ReminderLeadTime),
	}
}

func (c *BookmarkCoordinator) selectionCue() {
	if c.haptics == nil || c.platform == PlatformWeb {
		return
	}
	if c.hapticsEnabled != nil && !c.hapticsEnabled() {
		return
	}
	c.haptics.Selection()
}

// schedule attempts the reminder for a new bookmark. Failures degrade to a
// bookmark without a reminder; the status records why.
func (c *BookmarkCoordinator) schedule(ctx context.Context, session domain.Session) (string, ReminderStatus) {
	n := ReminderFor(session)
	if n.FireAt.Before(c.now()) {
		return "", ReminderSkippedPast
	}
	if c.scheduler == nil || c.permission == nil {
		return "", ReminderPermissionDenied
	}
	status, err := c.permission.RequestPermission(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "notification permission request failed", "session_id", session.ID, "err", err)
		return "", ReminderPermissionDenied
	}
	if status != domain.PermissionGranted {
		return "", ReminderPermissionDenied
	}
	id, err := c.scheduler.Schedule(ctx, n)
	if err != nil {
		c.logger.ErrorContext(ctx, "schedule reminder", "session_id", session.ID, "err", err)
		return "", ReminderScheduleFailed
	}
	return id, ReminderScheduled
}

// cancel is best effort: the bookmark is removed whatever happens here.
func (c *BookmarkCoordinator) cancel(ctx context.Context, b domain.Bookmark) ReminderStatus {
	if b.NotificationID == "" || c.scheduler == nil {
		return ReminderNone
	}
	if err := c.scheduler.Cancel(ctx, b.NotificationID); errors.Is(err, domain.ErrNotFound) {
		c.logger.DebugContext(ctx, "reminder already gone", "session_id", b.SessionID, "notification_id", b.NotificationID)
	} else if err != nil {
		c.logger.WarnContext(ctx, "cancel reminder", "session_id", b.SessionID, "notification_id", b.NotificationID, "err", err)
	}
	return ReminderCancelled
}

// ToggleBookmark bookmarks or un-bookmarks a session of the active event.
//
// Adding runs in two phases: the reminder is attempted first, then the
// bookmark is committed carrying whatever handle that produced. Removing
// cancels the reminder first and always removes the bookmark.
//
// Calls for the same session that overlap are collapsed into one toggle; the
// later callers receive the first call's result.
func (s *EventStore) ToggleBookmark(ctx context.Context, sessionID string, events []domain.ConferenceEvent) (ToggleResult, error) {
	v, err, _ := s.inflight.Do(sessionID, func() (any, error) {
		return s.toggleBookmark(ctx, sessionID, events), nil
	})
	if err != nil {
		return ToggleResult{}, err
	}
	return v.(ToggleResult), nil
}

func (s *EventStore) toggleBookmark(ctx context.Context, sessionID string, events []domain.ConferenceEvent) ToggleResult {
	session := s.SessionByID(events, sessionID)
	if session == nil {
		return ToggleResult{Action: ToggleNoop, Reminder: ReminderNone}
	}
	c := s.coordinator
	if c == nil {
		c = &BookmarkCoordinator{logger: s.logger, now: s.now}
	}
	c.selectionCue()

	if existing, ok := s.Bookmark(sessionID); ok {
		status := c.cancel(ctx, existing)
		s.removeBookmark(sessionID)
		s.logger.DebugContext(ctx, "bookmark removed", "session_id", sessionID)
		return ToggleResult{Action: ToggleRemoved, Bookmark: &existing, Reminder: status}
	}

	notificationID, status := c.schedule(ctx, *session)
	b := domain.Bookmark{
		SessionID:      sessionID,
		NotificationID: notificationID,
		CreatedAt:      s.now().UTC(),
	}
	s.addBookmark(b)
	s.logger.DebugContext(ctx, "bookmark added", "session_id", sessionID, "reminder", status)
	return ToggleResult{Action: ToggleAdded, Bookmark: &b, Reminder: status}
}

// RearmReminders schedules the reminders of persisted bookmarks again. The
// scheduler keeps reminders in memory, so they are lost when the process
// restarts. A handle the bookmark still carries is cancelled first, so calling
// it again does not duplicate reminders. Bookmarks whose reminder can no
// longer be scheduled keep no handle. It returns the number of reminders
// scheduled.
func (s *EventStore) RearmReminders(ctx context.Context, events []domain.ConferenceEvent) int {
	if s.coordinator == nil {
		return 0
	}
	armed := 0
	for _, b := range s.Bookmarks() {
		session := findSession(events, b.SessionID)
		if session == nil {
			continue
		}
		v, _, _ := s.inflight.Do(b.SessionID, func() (any, error) {
			return s.rearm(ctx, *session), nil
		})
		if v.(ReminderStatus) == ReminderScheduled {
			armed++
		}
	}
	if armed > 0 {
		s.logger.InfoContext(ctx, "reminders rearmed", "count", armed)
	}
	return armed
}

// rearm replaces the reminder of one bookmark. It runs under the same
// per-session guard as ToggleBookmark.
func (s *EventStore) rearm(ctx context.Context, session domain.Session) ReminderStatus {
	current, ok := s.Bookmark(session.ID)
	if !ok {
		return ReminderNone
	}
	s.coordinator.cancel(ctx, current)
	id, status := s.coordinator.schedule(ctx, session)
	s.setNotificationID(session.ID, id)
	return status
}

// findSession looks sessionID up in every event of the catalog.
func findSession(events []domain.ConferenceEvent, sessionID string) *domain.Session {
	for i := range events {
		for j := range events[i].Days {
			for k := range events[i].Days[j].Sessions {
				if events[i].Days[j].Sessions[k].ID == sessionID {
					return &events[i].Days[j].Sessions[k]
				}
			}
		}
	}
	return nil
}
