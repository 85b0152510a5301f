package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "conferencecompanion/internal/delivery/http/helpers"
	"conferencecompanion/internal/domain"
	"conferencecompanion/internal/services"
)

// SignInRequest is the request body for POST /auth/session.
type SignInRequest struct {
	Token string `json:"token"`
}

// Validate implements Validator.
func (s SignInRequest) Validate() []string {
	if strings.TrimSpace(s.Token) == "" {
		return []string{"token is required"}
	}
	return nil
}

type AuthController struct {
	Logger   *slog.Logger
	Auth     *services.AuthStore
	Settings *services.SettingsStore
}

func NewAuthController(logger *slog.Logger, auth *services.AuthStore, settings *services.SettingsStore) *AuthController {
	return &AuthController{
		Logger:   logger,
		Auth:     auth,
		Settings: settings,
	}
}

// SignIn godoc
// @Summary Sign in to the feed
// @Description Exchanges an identity token for a feed session. The user becomes the local profile when none is set.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignInRequest true "Identity token"
// @Success 200 {object} helpers.APIResponse "data contains the auth state"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /auth/session [post]
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Auth.SignIn(r.Context(), strings.TrimSpace(req.Token))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProviderNotConfigured):
			h.WriteJSONError(w, http.StatusServiceUnavailable, h.ErrCodeUnavailable, domain.ErrProviderNotConfigured.Error())
		case errors.Is(err, domain.ErrUnauthorized):
			h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		}
		return
	}
	if c.Settings != nil && c.Settings.Settings().UserProfile == nil {
		c.Settings.SetUserProfile(&domain.UserProfile{
			ID:        user.ID,
			Name:      user.DisplayName(),
			Email:     user.Email,
			AvatarURL: user.AvatarURL,
		})
	}
	h.WriteJSONSuccess(w, http.StatusOK, c.Auth.State())
}

// SignOut godoc
// @Summary Sign out of the feed
// @Tags auth
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the auth state"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/session [delete]
func (c *AuthController) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := c.Auth.SignOut(r.Context()); err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, c.Auth.State())
}

// GetSession godoc
// @Summary Current feed session
// @Tags auth
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the auth state"
// @Router /auth/session [get]
func (c *AuthController) GetSession(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONSuccess(w, http.StatusOK, c.Auth.State())
}
