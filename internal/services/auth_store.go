package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"conferencecompanion/internal/domain"
)

// AuthStore tracks the signed-in feed user and persists it between runs.
type AuthStore struct {
	mu       sync.RWMutex
	state    domain.AuthState
	provider domain.IdentityProvider
	kv       domain.KeyValueStore
	writer   *snapshotWriter
	logger   *slog.Logger
}

// NewAuthStore returns a signed-out store.
func NewAuthStore(provider domain.IdentityProvider, kv domain.KeyValueStore, logger *slog.Logger) *AuthStore {
	return &AuthStore{
		provider: provider,
		kv:       kv,
		writer:   newSnapshotWriter(kv, AuthStoreKey, logger),
		logger:   logger,
	}
}

// Initialize restores the persisted session. Failures leave the store signed out.
func (s *AuthStore) Initialize(ctx context.Context) error {
	var snap domain.AuthState
	found, err := loadSnapshot(ctx, s.kv, AuthStoreKey, &snap)
	if err != nil {
		s.logger.WarnContext(ctx, "auth snapshot ignored", "err", err)
		return nil
	}
	if !found {
		return nil
	}
	snap.IsAuthenticated = snap.User != nil
	s.mu.Lock()
	s.state = snap
	s.mu.Unlock()
	return nil
}

// Flush waits for pending writes.
func (s *AuthStore) Flush() { s.writer.Flush() }

// Close flushes and stops the writer.
func (s *AuthStore) Close() { s.writer.Close() }

// State returns the current auth state.
func (s *AuthStore) State() domain.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if s.state.User != nil {
		u := *s.state.User
		st.User = &u
	}
	return st
}

// CurrentUser returns the signed-in user, or nil.
func (s *AuthStore) CurrentUser() *domain.User {
	return s.State().User
}

func (s *AuthStore) setUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.AuthState{User: u, IsAuthenticated: u != nil}
	s.writer.Save(s.state)
}

// SignIn exchanges credential for a user through the identity provider.
// A provider that is not enabled on the backend yields ErrProviderNotConfigured;
// any other error is returned unchanged.
func (s *AuthStore) SignIn(ctx context.Context, credential string) (*domain.User, error) {
	user, err := s.provider.SignIn(ctx, credential)
	if err != nil {
		s.logger.ErrorContext(ctx, "sign in", "err", err)
		if isProviderNotEnabled(err) {
			return nil, fmt.Errorf("%w (%v)", domain.ErrProviderNotConfigured, err)
		}
		return nil, err
	}
	s.setUser(user)
	s.logger.InfoContext(ctx, "user signed in", "user_id", user.ID)
	return user, nil
}

// SignOut ends the session at the provider, then clears local state.
func (s *AuthStore) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.ErrorContext(ctx, "sign out", "err", err)
		return err
	}
	s.setUser(nil)
	return nil
}

func isProviderNotEnabled(err error) bool {
	if errors.Is(err, domain.ErrProviderNotConfigured) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Provider") && strings.Contains(msg, "not enabled")
}
