package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-console/internal/auth"
	"github.com/spec-kit/restaurant-console/internal/domain"
	"github.com/spec-kit/restaurant-console/internal/identity"
	apperrors "github.com/spec-kit/restaurant-console/pkg/util/errorutil"
)

// ErrLocalSignInDisabled is returned by SignInLocal when the local provider is not configured.
var ErrLocalSignInDisabled = errors.New("local sign-in disabled")

// Invalidator drops cached resolutions for a principal.
type Invalidator interface {
	Invalidate(ctx context.Context, uid string) error
}

// SignInResult is what a successful sign-in hands back to the transport.
type SignInResult struct {
	SessionCookie string
	Principal     *domain.Principal
	State         identity.State
}

// AuthService coordinates sign-in and sign-out against the provider and the
// session registry.
type AuthService struct {
	provider   auth.Provider
	local      *auth.LocalProvider
	registry   *identity.Registry
	cache      Invalidator
	sessionTTL time.Duration
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	Provider auth.Provider
	// Local enables SignInLocal. Nil when the Firebase provider is in use.
	Local      *auth.LocalProvider
	Registry   *identity.Registry
	Cache      Invalidator
	SessionTTL time.Duration
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		provider:   deps.Provider,
		local:      deps.Local,
		registry:   deps.Registry,
		cache:      deps.Cache,
		sessionTTL: ttl,
		logger:     logger,
	}
}

// SessionTTL is the lifetime of issued session cookies.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// SignIn exchanges a provider ID token for a session cookie and resolves the
// principal's role. Any cached resolution is dropped first so a sign-in
// always reflects the directory as it is now.
func (s *AuthService) SignIn(ctx context.Context, idToken string) (*SignInResult, error) {
	principal, err := s.provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid id token")
	}

	cookie, err := s.provider.CreateSessionCookie(ctx, idToken, s.sessionTTL)
	if err != nil {
		return nil, apperrors.NewUnauthorized("could not create session")
	}

	s.invalidate(ctx, principal.UID)
	st := s.registry.Session(principal.UID).OnAuthChange(ctx, principal)

	s.logger.Info("signed in",
		zap.String("uid", principal.UID),
		zap.String("role", st.Role().String()),
		zap.Bool("lookup_failed", st.Err != nil))
	return &SignInResult{SessionCookie: cookie, Principal: principal, State: st}, nil
}

// SignInLocal verifies a local account's password and signs it in.
func (s *AuthService) SignInLocal(ctx context.Context, email, password string) (*SignInResult, error) {
	if s.local == nil {
		return nil, ErrLocalSignInDisabled
	}
	idToken, err := s.local.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return s.SignIn(ctx, idToken)
}

// SignOut revokes the principal's provider sessions and publishes the
// signed-out state. A failed revocation is logged; the local sign-out
// still happens.
func (s *AuthService) SignOut(ctx context.Context, principal *domain.Principal) identity.State {
	if principal == nil {
		return identity.State{}
	}
	if err := s.provider.RevokeSessions(ctx, principal.UID); err != nil {
		s.logger.Warn("revoking provider sessions failed", zap.String("uid", principal.UID), zap.Error(err))
	}
	s.invalidate(ctx, principal.UID)

	st := s.registry.Session(principal.UID).OnAuthChange(ctx, nil)
	s.logger.Info("signed out", zap.String("uid", principal.UID))
	return st
}

func (s *AuthService) invalidate(ctx context.Context, uid string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, uid); err != nil {
		s.logger.Warn("identity cache invalidation failed", zap.String("uid", uid), zap.Error(err))
	}
}
