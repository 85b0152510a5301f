package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"conferencecompanion/internal/domain"
)

// SettingsStore holds the app settings and persists them on every change.
type SettingsStore struct {
	mu       sync.RWMutex
	settings domain.AppSettings
	kv       domain.KeyValueStore
	writer   *snapshotWriter
	logger   *slog.Logger
}

// NewSettingsStore returns a store with default settings.
func NewSettingsStore(kv domain.KeyValueStore, logger *slog.Logger) *SettingsStore {
	return &SettingsStore{
		settings: domain.DefaultAppSettings(),
		kv:       kv,
		writer:   newSnapshotWriter(kv, SettingsStoreKey, logger),
		logger:   logger,
	}
}

// Load rehydrates persisted settings over the defaults.
func (s *SettingsStore) Load(ctx context.Context) error {
	snap := domain.DefaultAppSettings()
	found, err := loadSnapshot(ctx, s.kv, SettingsStoreKey, &snap)
	if err != nil {
		s.logger.WarnContext(ctx, "settings snapshot ignored", "err", err)
		return nil
	}
	if !found {
		return nil
	}
	if !snap.ThemeMode.Valid() {
		snap.ThemeMode = domain.ThemeSystem
	}
	s.mu.Lock()
	s.settings = snap
	s.mu.Unlock()
	return nil
}

// Flush waits for pending writes.
func (s *SettingsStore) Flush() { s.writer.Flush() }

// Close flushes and stops the writer.
func (s *SettingsStore) Close() { s.writer.Close() }

// Settings returns a copy of the current settings.
func (s *SettingsStore) Settings() domain.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.settings
	if s.settings.UserProfile != nil {
		p := *s.settings.UserProfile
		out.UserProfile = &p
	}
	return out
}

// HapticEnabled reports the haptics preference.
func (s *SettingsStore) HapticEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.HapticEnabled
}

// NotificationsEnabled reports whether the user allowed reminders.
func (s *SettingsStore) NotificationsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.NotificationsEnabled
}

func (s *SettingsStore) update(fn func(*domain.AppSettings)) domain.AppSettings {
	s.mu.Lock()
	fn(&s.settings)
	snap := s.settings
	s.writer.Save(snap)
	s.mu.Unlock()
	return s.Settings()
}

// SetThemeMode sets the theme; unknown modes are rejected.
func (s *SettingsStore) SetThemeMode(mode domain.ThemeMode) (domain.AppSettings, error) {
	if !mode.Valid() {
		return s.Settings(), fmt.Errorf("%w: theme mode %q", domain.ErrInvalidInput, mode)
	}
	return s.update(func(a *domain.AppSettings) { a.ThemeMode = mode }), nil
}

// ToggleHaptic flips the haptics preference.
func (s *SettingsStore) ToggleHaptic() domain.AppSettings {
	return s.update(func(a *domain.AppSettings) { a.HapticEnabled = !a.HapticEnabled })
}

// ToggleLocalTimezone flips between event-local and device-local times.
func (s *SettingsStore) ToggleLocalTimezone() domain.AppSettings {
	return s.update(func(a *domain.AppSettings) { a.UseLocalTimezone = !a.UseLocalTimezone })
}

// SetNotificationsEnabled records whether reminders may be delivered.
func (s *SettingsStore) SetNotificationsEnabled(enabled bool) domain.AppSettings {
	return s.update(func(a *domain.AppSettings) { a.NotificationsEnabled = enabled })
}

// SetUserProfile replaces the local profile; nil clears it.
func (s *SettingsStore) SetUserProfile(profile *domain.UserProfile) domain.AppSettings {
	return s.update(func(a *domain.AppSettings) {
		if profile == nil {
			a.UserProfile = nil
			return
		}
		p := *profile
		a.UserProfile = &p
	})
}

// SetLastRefreshed records when the catalog was last refreshed.
func (s *SettingsStore) SetLastRefreshed(at time.Time) domain.AppSettings {
	at = at.UTC()
	return s.update(func(a *domain.AppSettings) { a.LastRefreshed = &at })
}
