package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecompanion/internal/domain"
	"conferencecompanion/internal/repository/memory"
	"conferencecompanion/internal/services"
)

func newSettingsStore(t *testing.T) *services.SettingsStore {
	t.Helper()
	s := services.NewSettingsStore(memory.NewStore(), testLogger)
	require.NoError(t, s.Load(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func TestAuthController_SignIn(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		provider       *fakeProvider
		wantStatus     int
		wantCode       string
		wantBodySubstr string
	}{
		{
			name:       "success",
			body:       `{"token":"abc"}`,
			provider:   &fakeProvider{user: &domain.User{ID: "u1", Email: "ana@example.com"}},
			wantStatus: http.StatusOK,
		},
		{
			name:           "provider not enabled",
			body:           `{"token":"abc"}`,
			provider:       &fakeProvider{err: errors.New("Provider jwt is not enabled")},
			wantStatus:     http.StatusServiceUnavailable,
			wantCode:       "unavailable",
			wantBodySubstr: "not configured",
		},
		{
			name:           "invalid token",
			body:           `{"token":"abc"}`,
			provider:       &fakeProvider{err: fmt.Errorf("%w: token expired", domain.ErrUnauthorized)},
			wantStatus:     http.StatusUnauthorized,
			wantCode:       "unauthorized",
			wantBodySubstr: "invalid or expired token",
		},
		{
			name:           "missing token",
			body:           `{"token":"  "}`,
			provider:       &fakeProvider{},
			wantStatus:     http.StatusBadRequest,
			wantCode:       "bad_request",
			wantBodySubstr: "token is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := services.NewAuthStore(tt.provider, memory.NewStore(), testLogger)
			t.Cleanup(auth.Close)
			settings := newSettingsStore(t)
			ctrl := NewAuthController(testLogger, auth, settings)
			req := httptest.NewRequest(http.MethodPost, "/auth/session", bytes.NewBufferString(tt.body))

			rr, envelope := serve(t, ctrl.SignIn, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantStatus == http.StatusOK {
				var state domain.AuthState
				decodeData(t, envelope, &state)
				assert.True(t, state.IsAuthenticated)
				assert.Equal(t, "u1", state.User.ID)
				profile := settings.Settings().UserProfile
				require.NotNil(t, profile, "profile seeded from the signed-in user")
				assert.Equal(t, "ana", profile.Name)
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
			assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			assert.False(t, auth.State().IsAuthenticated)
		})
	}
}

func TestAuthController_SignOut(t *testing.T) {
	auth := services.NewAuthStore(&fakeProvider{user: &domain.User{ID: "u1"}}, memory.NewStore(), testLogger)
	t.Cleanup(auth.Close)
	_, err := auth.SignIn(context.Background(), "abc")
	require.NoError(t, err)
	ctrl := NewAuthController(testLogger, auth, nil)

	rr, envelope := serve(t, ctrl.GetSession, httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var state domain.AuthState
	decodeData(t, envelope, &state)
	assert.True(t, state.IsAuthenticated)

	rr, envelope = serve(t, ctrl.SignOut, httptest.NewRequest(http.MethodDelete, "/auth/session", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	state = domain.AuthState{}
	decodeData(t, envelope, &state)
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
}

func TestSettingsController_UpdateSettings(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantStatus     int
		wantBodySubstr string
		check          func(t *testing.T, s domain.AppSettings)
	}{
		{
			name:       "theme and toggles",
			body:       `{"theme_mode":"dark","haptic_enabled":false,"use_local_timezone":true,"notifications_enabled":true}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, s domain.AppSettings) {
				assert.Equal(t, domain.ThemeMode("dark"), s.ThemeMode)
				assert.False(t, s.HapticEnabled)
				assert.True(t, s.UseLocalTimezone)
				assert.True(t, s.NotificationsEnabled)
			},
		},
		{
			name:       "unchanged toggle stays",
			body:       `{"haptic_enabled":true}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, s domain.AppSettings) {
				assert.True(t, s.HapticEnabled)
			},
		},
		{
			name:       "profile",
			body:       `{"user_profile":{"name":"Ana","email":"ana@example.com"}}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, s domain.AppSettings) {
				require.NotNil(t, s.UserProfile)
				assert.Equal(t, "Ana", s.UserProfile.Name)
			},
		},
		{
			name:           "invalid theme",
			body:           `{"theme_mode":"neon"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "theme_mode must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := newSettingsStore(t)
			ctrl := NewSettingsController(testLogger, settings)
			req := httptest.NewRequest(http.MethodPatch, "/settings", bytes.NewBufferString(tt.body))

			rr, envelope := serve(t, ctrl.UpdateSettings, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantStatus != http.StatusOK {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
				assert.Equal(t, domain.ThemeMode("system"), settings.Settings().ThemeMode)
				return
			}
			var got domain.AppSettings
			decodeData(t, envelope, &got)
			tt.check(t, got)
			assert.Equal(t, got, settings.Settings())
		})
	}
}
