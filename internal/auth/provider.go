package auth

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/restaurant-console/internal/domain"
)

var (
	// ErrInvalidToken is returned for tokens or cookies that fail verification.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrRevoked is returned for session cookies whose sessions were revoked.
	ErrRevoked = errors.New("auth: session revoked")
	// ErrInvalidCredentials is returned when a password sign-in fails.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// Provider is the authentication provider boundary. It verifies credentials
// and exchanges them for long-lived session cookies.
type Provider interface {
	VerifyIDToken(ctx context.Context, idToken string) (*domain.Principal, error)
	CreateSessionCookie(ctx context.Context, idToken string, ttl time.Duration) (string, error)
	VerifySessionCookie(ctx context.Context, cookie string) (*domain.Principal, error)
	RevokeSessions(ctx context.Context, uid string) error
}
