package domain

import "time"

// ThemeMode selects the app color scheme.
type ThemeMode string

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"
)

// Valid reports whether m is a known theme mode.
func (m ThemeMode) Valid() bool {
	return m == ThemeLight || m == ThemeDark || m == ThemeSystem
}

// UserProfile is the locally stored profile of the device owner.
type UserProfile struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	PushToken string `json:"pushToken,omitempty"`
}

// AppSettings is the persisted shape of the app settings store.
// swagger:model AppSettings
type AppSettings struct {
	ThemeMode            ThemeMode    `json:"themeMode"`
	HapticEnabled        bool         `json:"hapticEnabled"`
	UseLocalTimezone     bool         `json:"useLocalTimezone"`
	NotificationsEnabled bool         `json:"notificationsEnabled"`
	UserProfile          *UserProfile `json:"userProfile"`
	LastRefreshed        *time.Time   `json:"lastRefreshed"`
}

// DefaultAppSettings returns the settings of a fresh install.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		ThemeMode:     ThemeSystem,
		HapticEnabled: true,
	}
}
