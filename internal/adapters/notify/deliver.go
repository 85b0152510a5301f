package notify

import (
	"context"
	"log/slog"

	"conferencecompanion/internal/domain"
)

// LogDeliverer writes fired notifications to the log. Used when no mailer is configured.
type LogDeliverer struct {
	Logger *slog.Logger
}

// Deliver implements domain.NotificationDeliverer.
func (d LogDeliverer) Deliver(ctx context.Context, n domain.Notification) error {
	d.Logger.InfoContext(ctx, "reminder", "title", n.Title, "url", n.Data.URL)
	return nil
}

type reminderSender interface {
	SendSessionReminder(ctx context.Context, data *domain.SessionReminderEmailData) error
}

// MailDeliverer emails fired reminders to the device owner's profile address.
// Without a profile email it falls back to Fallback.
type MailDeliverer struct {
	sender   reminderSender
	profile  func() *domain.UserProfile
	fallback domain.NotificationDeliverer
	baseURL  string
}

// NewMailDeliverer returns a MailDeliverer. baseURL is prefixed to deep links
// so they are clickable from a mail client.
func NewMailDeliverer(sender reminderSender, profile func() *domain.UserProfile, fallback domain.NotificationDeliverer, baseURL string) *MailDeliverer {
	return &MailDeliverer{sender: sender, profile: profile, fallback: fallback, baseURL: baseURL}
}

// Deliver implements domain.NotificationDeliverer.
func (d *MailDeliverer) Deliver(ctx context.Context, n domain.Notification) error {
	p := d.profile()
	if p == nil || p.Email == "" {
		return d.fallback.Deliver(ctx, n)
	}
	return d.sender.SendSessionReminder(ctx, &domain.SessionReminderEmailData{
		Email: p.Email,
		Name:  p.Name,
		Title: n.Title,
		URL:   d.baseURL + n.Data.URL,
	})
}

// SettingsPermission grants notification permission iff the user enabled
// notifications in the app settings.
type SettingsPermission struct {
	Enabled func() bool
}

// RequestPermission implements domain.PermissionRequester.
func (p SettingsPermission) RequestPermission(ctx context.Context) (domain.PermissionStatus, error) {
	if p.Enabled != nil && p.Enabled() {
		return domain.PermissionGranted, nil
	}
	return domain.PermissionDenied, nil
}

// LogHaptics records selection cues; the companion service has no haptic engine.
type LogHaptics struct {
	Logger *slog.Logger
}

// Selection implements domain.HapticFeedback.
func (h LogHaptics) Selection() {
	h.Logger.Debug("haptic selection")
}
