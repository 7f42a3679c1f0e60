package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/restaurant-console/internal/domain"
)

const (
	tokenTypeID      = "id"
	tokenTypeSession = "session"
)

// Claims describes the local provider's JWT payload.
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Type          string `json:"typ"`
	Version       int    `json:"ver,omitempty"`
	jwt.RegisteredClaims
}

// LocalProvider issues HS256 tokens for configured accounts. Revocation
// bumps a per-UID version that session tokens must match, so it only holds
// within one process.
type LocalProvider struct {
	secret   []byte
	idTTL    time.Duration
	accounts map[string]LocalAccount

	mu       sync.Mutex
	versions map[string]int
}

// NewLocalProvider builds a provider. idTTLMinutes bounds ID token lifetime.
func NewLocalProvider(secret string, idTTLMinutes int, accounts []LocalAccount) *LocalProvider {
	if idTTLMinutes <= 0 {
		idTTLMinutes = 60
	}
	byEmail := make(map[string]LocalAccount, len(accounts))
	for _, acc := range accounts {
		byEmail[strings.ToLower(acc.Email)] = acc
	}
	return &LocalProvider{
		secret:   []byte(secret),
		idTTL:    time.Duration(idTTLMinutes) * time.Minute,
		accounts: byEmail,
		versions: make(map[string]int),
	}
}

// SignInWithPassword checks credentials and returns a fresh ID token.
func (p *LocalProvider) SignInWithPassword(_ context.Context, email, password string) (string, error) {
	acc, ok := p.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := ComparePassword(acc.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	token, _, err := p.IssueIDToken(domain.Principal{UID: acc.UID, Email: acc.Email, EmailVerified: true})
	return token, err
}

// IssueIDToken signs an ID token for principal.
func (p *LocalProvider) IssueIDToken(principal domain.Principal) (string, time.Time, error) {
	return p.sign(principal, tokenTypeID, 0, p.idTTL)
}

// VerifyIDToken validates an ID token minted by this provider.
func (p *LocalProvider) VerifyIDToken(_ context.Context, idToken string) (*domain.Principal, error) {
	claims, err := p.parse(idToken, tokenTypeID)
	if err != nil {
		return nil, err
	}
	return claims.principal(), nil
}

// CreateSessionCookie exchanges a valid ID token for a session token.
func (p *LocalProvider) CreateSessionCookie(ctx context.Context, idToken string, ttl time.Duration) (string, error) {
	principal, err := p.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}
	token, _, err := p.sign(*principal, tokenTypeSession, p.version(principal.UID), ttl)
	return token, err
}

// VerifySessionCookie validates a session token and rejects revoked ones.
func (p *LocalProvider) VerifySessionCookie(_ context.Context, cookie string) (*domain.Principal, error) {
	claims, err := p.parse(cookie, tokenTypeSession)
	if err != nil {
		return nil, err
	}
	if claims.Version != p.version(claims.Subject) {
		return nil, ErrRevoked
	}
	return claims.principal(), nil
}

// RevokeSessions invalidates every session token issued so far for uid.
func (p *LocalProvider) RevokeSessions(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.versions[uid]++
	return nil
}

func (p *LocalProvider) version(uid string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.versions[uid]
}

func (p *LocalProvider) sign(principal domain.Principal, typ string, version int, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Email:         principal.Email,
		EmailVerified: principal.EmailVerified,
		Type:          typ,
		Version:       version,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principal.UID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func (p *LocalProvider) parse(tokenStr, typ string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, typ)
	}
	return claims, nil
}

func (c *Claims) principal() *domain.Principal {
	return &domain.Principal{UID: c.Subject, Email: c.Email, EmailVerified: c.EmailVerified}
}
