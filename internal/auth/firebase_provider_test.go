package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFirebaseClient struct {
	token      *fbauth.Token
	err        error
	revokedUID string
	cookieTTL  time.Duration
}

func (f *fakeFirebaseClient) VerifyIDToken(context.Context, string) (*fbauth.Token, error) {
	return f.token, f.err
}

func (f *fakeFirebaseClient) SessionCookie(_ context.Context, idToken string, expiresIn time.Duration) (string, error) {
	f.cookieTTL = expiresIn
	if f.err != nil {
		return "", f.err
	}
	return "session-for-" + idToken, nil
}

func (f *fakeFirebaseClient) VerifySessionCookieAndCheckRevoked(context.Context, string) (*fbauth.Token, error) {
	return f.token, f.err
}

func (f *fakeFirebaseClient) RevokeRefreshTokens(_ context.Context, uid string) error {
	f.revokedUID = uid
	return nil
}

func TestFirebaseProviderMapsClaims(t *testing.T) {
	client := &fakeFirebaseClient{token: &fbauth.Token{
		UID:    "staff-1",
		Claims: map[string]interface{}{"email": "ada@console.test", "email_verified": true},
	}}
	p := &FirebaseProvider{client: client}
	ctx := context.Background()

	principal, err := p.VerifyIDToken(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, "staff-1", principal.UID)
	assert.Equal(t, "ada@console.test", principal.Email)
	assert.True(t, principal.EmailVerified)

	cookie, err := p.CreateSessionCookie(ctx, "id", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "session-for-id", cookie)
	assert.Equal(t, 24*time.Hour, client.cookieTTL)

	principal, err = p.VerifySessionCookie(ctx, cookie)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", principal.UID)

	require.NoError(t, p.RevokeSessions(ctx, "staff-1"))
	assert.Equal(t, "staff-1", client.revokedUID)
}

func TestFirebaseProviderMissingClaims(t *testing.T) {
	p := &FirebaseProvider{client: &fakeFirebaseClient{token: &fbauth.Token{UID: "anon"}}}

	principal, err := p.VerifyIDToken(context.Background(), "id")
	require.NoError(t, err)
	assert.Empty(t, principal.Email)
	assert.False(t, principal.EmailVerified)
}

func TestFirebaseProviderWrapsFailures(t *testing.T) {
	p := &FirebaseProvider{client: &fakeFirebaseClient{err: errors.New("expired")}}
	ctx := context.Background()

	_, err := p.VerifyIDToken(ctx, "id")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = p.CreateSessionCookie(ctx, "id", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = p.VerifySessionCookie(ctx, "cookie")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
