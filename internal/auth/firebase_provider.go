package auth

import (
	"context"
	"fmt"
	"time"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/spec-kit/restaurant-console/internal/domain"
)

// firebaseClient is the subset of *fbauth.Client the provider calls.
type firebaseClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookieAndCheckRevoked(ctx context.Context, sessionCookie string) (*fbauth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseProvider backs sessions with Firebase Authentication.
type FirebaseProvider struct {
	client firebaseClient
}

// NewFirebaseProvider wraps an initialised Firebase auth client.
func NewFirebaseProvider(client *fbauth.Client) *FirebaseProvider {
	return &FirebaseProvider{client: client}
}

// VerifyIDToken checks a client-side ID token.
func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*domain.Principal, error) {
	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return principalFromToken(token), nil
}

// CreateSessionCookie exchanges an ID token for a session cookie.
func (p *FirebaseProvider) CreateSessionCookie(ctx context.Context, idToken string, ttl time.Duration) (string, error) {
	cookie, err := p.client.SessionCookie(ctx, idToken, ttl)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return cookie, nil
}

// VerifySessionCookie checks a session cookie, including revocation.
func (p *FirebaseProvider) VerifySessionCookie(ctx context.Context, cookie string) (*domain.Principal, error) {
	token, err := p.client.VerifySessionCookieAndCheckRevoked(ctx, cookie)
	if err != nil {
		if fbauth.IsSessionCookieRevoked(err) {
			return nil, ErrRevoked
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return principalFromToken(token), nil
}

// RevokeSessions invalidates every session cookie of uid.
func (p *FirebaseProvider) RevokeSessions(ctx context.Context, uid string) error {
	return p.client.RevokeRefreshTokens(ctx, uid)
}

func principalFromToken(token *fbauth.Token) *domain.Principal {
	p := &domain.Principal{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		p.Email = email
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok {
		p.EmailVerified = verified
	}
	return p
}
