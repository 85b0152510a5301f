package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "conferencecompanion/internal/delivery/http/helpers"
	"conferencecompanion/internal/domain"
	"conferencecompanion/internal/services"
)

// UpdateSettingsRequest is the request body for PATCH /settings. Omitted fields are unchanged.
type UpdateSettingsRequest struct {
	ThemeMode            *domain.ThemeMode   `json:"theme_mode"`
	HapticEnabled        *bool               `json:"haptic_enabled"`
	UseLocalTimezone     *bool               `json:"use_local_timezone"`
	NotificationsEnabled *bool               `json:"notifications_enabled"`
	UserProfile          *domain.UserProfile `json:"user_profile"`
}

// Validate implements Validator.
func (req UpdateSettingsRequest) Validate() []string {
	if req.ThemeMode != nil && !req.ThemeMode.Valid() {
		return []string{`theme_mode must be "light", "dark" or "system"`}
	}
	return nil
}

type SettingsController struct {
	Logger   *slog.Logger
	Settings *services.SettingsStore
}

func NewSettingsController(logger *slog.Logger, settings *services.SettingsStore) *SettingsController {
	return &SettingsController{
		Logger:   logger,
		Settings: settings,
	}
}

// GetSettings godoc
// @Summary Get app settings
// @Tags settings
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the settings"
// @Router /settings [get]
func (c *SettingsController) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONSuccess(w, http.StatusOK, c.Settings.Settings())
}

// UpdateSettings godoc
// @Summary Update app settings
// @Tags settings
// @Accept json
// @Produce json
// @Param body body UpdateSettingsRequest true "Fields to change"
// @Success 200 {object} helpers.APIResponse "data contains the settings"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /settings [patch]
func (c *SettingsController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	current := c.Settings.Settings()
	if req.ThemeMode != nil {
		if _, err := c.Settings.SetThemeMode(*req.ThemeMode); err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
				return
			}
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
			return
		}
	}
	if req.HapticEnabled != nil && *req.HapticEnabled != current.HapticEnabled {
		c.Settings.ToggleHaptic()
	}
	if req.UseLocalTimezone != nil && *req.UseLocalTimezone != current.UseLocalTimezone {
		c.Settings.ToggleLocalTimezone()
	}
	if req.NotificationsEnabled != nil {
		c.Settings.SetNotificationsEnabled(*req.NotificationsEnabled)
	}
	if req.UserProfile != nil {
		c.Settings.SetUserProfile(req.UserProfile)
	}
	h.WriteJSONSuccess(w, http.StatusOK, c.Settings.Settings())
}
