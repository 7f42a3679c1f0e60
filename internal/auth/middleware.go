package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-console/internal/domain"
	"github.com/spec-kit/restaurant-console/internal/identity"
)

const (
	principalKey = "auth_principal"
	stateKey     = "auth_state"
	sessionKey   = "auth_session"
)

// SessionMiddleware turns the session cookie into a published session state.
// It never rejects a request: a missing or invalid cookie simply yields the
// signed-out state and route guards decide what to do with it.
type SessionMiddleware struct {
	provider Provider
	registry *identity.Registry
	cookies  CookieConfig
	logger   *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(provider Provider, registry *identity.Registry, cookies CookieConfig, logger *zap.Logger) *SessionMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionMiddleware{provider: provider, registry: registry, cookies: cookies, logger: logger}
}

// Handle verifies the cookie and ensures the principal's session is resolved.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	raw := c.Cookies(m.cookies.Name)
	if raw == "" {
		c.Locals(stateKey, identity.State{})
		return c.Next()
	}

	principal, err := m.provider.VerifySessionCookie(c.UserContext(), raw)
	if err != nil {
		m.logger.Debug("rejecting session cookie", zap.Error(err))
		m.cookies.Clear(c)
		c.Locals(stateKey, identity.State{})
		return c.Next()
	}

	sess := m.registry.Session(principal.UID)
	st := sess.Ensure(c.UserContext(), principal)

	c.Locals(principalKey, principal)
	c.Locals(sessionKey, sess)
	c.Locals(stateKey, st)
	return c.Next()
}

// PrincipalFromContext retrieves the verified principal, if any.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	principal, ok := c.Locals(principalKey).(*domain.Principal)
	return principal, ok && principal != nil
}

// StateFromContext returns the session state published for this request.
// Requests that never passed the middleware are treated as signed out.
func StateFromContext(c *fiber.Ctx) identity.State {
	st, _ := c.Locals(stateKey).(identity.State)
	return st
}

// SessionFromContext returns the principal's session, if signed in.
func SessionFromContext(c *fiber.Ctx) (*identity.Session, bool) {
	sess, ok := c.Locals(sessionKey).(*identity.Session)
	return sess, ok && sess != nil
}
