package domain

import (
	"context"
	"errors"
	"time"
)

// ErrProviderNotConfigured is returned when the identity provider rejects sign-in because it is not enabled.
var ErrProviderNotConfigured = errors.New("sign-in provider is not configured yet; enable it in the auth backend first")

// User is an authenticated feed user.
// swagger:model User
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// DisplayName returns Name, or the local part of Email, or "User".
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			if i > 0 {
				return u.Email[:i]
			}
			break
		}
	}
	return "User"
}

// AuthState is the persisted shape of the auth store.
type AuthState struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(user *User, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user.
type TokenVerifier interface {
	Verify(token string) (*User, error)
}

// IdentityProvider signs users in against the auth backend.
type IdentityProvider interface {
	SignIn(ctx context.Context, credential string) (*User, error)
	SignOut(ctx context.Context) error
}
