package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"conferencecompanion/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type jwtIssuer struct {
	secret []byte
}

// NewJWTIssuer returns a TokenIssuer that signs JWTs with HS256 using the given secret.
func NewJWTIssuer(secret string) domain.TokenIssuer {
	return &jwtIssuer{secret: []byte(secret)}
}

func (i *jwtIssuer) Issue(user *domain.User, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier returns a TokenVerifier accepting HS256 tokens signed with secret.
func NewJWTVerifier(secret string) domain.TokenVerifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(token string) (*domain.User, error) {
	var claims jwtClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return &domain.User{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		AvatarURL: claims.AvatarURL,
	}, nil
}

// JWTProvider is an IdentityProvider for backends that hand the client a
// signed access token after their own OAuth flow. SignIn verifies the token.
type JWTProvider struct {
	verifier domain.TokenVerifier
	enabled  bool
}

// NewJWTProvider returns a provider; a disabled provider rejects every sign-in
// the way a backend with the provider switched off does.
func NewJWTProvider(verifier domain.TokenVerifier, enabled bool) *JWTProvider {
	return &JWTProvider{verifier: verifier, enabled: enabled}
}

// ErrProviderDisabled mirrors the backend's message for a switched-off provider.
var ErrProviderDisabled = errors.New("Provider jwt is not enabled")

func (p *JWTProvider) SignIn(ctx context.Context, credential string) (*domain.User, error) {
	if !p.enabled {
		return nil, ErrProviderDisabled
	}
	if credential == "" {
		return nil, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}
	return p.verifier.Verify(credential)
}

// SignOut has nothing to revoke for stateless tokens.
func (p *JWTProvider) SignOut(ctx context.Context) error {
	return nil
}
