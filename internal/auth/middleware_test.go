package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/restaurant-console/internal/domain"
	"github.com/spec-kit/restaurant-console/internal/identity"
	"github.com/spec-kit/restaurant-console/internal/repository"
)

func newMiddlewareApp(t *testing.T) (*fiber.App, *LocalProvider) {
	t.Helper()
	dir := repository.NewMemoryDirectory(
		[]domain.StaffRecord{{ID: "staff-1", Name: "Ada", Email: "ada@console.test"}},
		nil,
	)
	resolver := identity.NewResolver(identity.ResolverDependencies{StaffRepo: dir.Staff(), OwnerRepo: dir.Owners()})
	registry := identity.NewRegistry(resolver, nil, nil)
	provider := NewLocalProvider("mw-secret", 5, nil)
	cookies := CookieConfig{Name: "__session", TTL: time.Hour, Secure: true}

	app := fiber.New()
	app.Use(NewSessionMiddleware(provider, registry, cookies, nil).Handle)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		st := StateFromContext(c)
		_, hasPrincipal := PrincipalFromContext(c)
		_, hasSession := SessionFromContext(c)
		return c.JSON(fiber.Map{
			"role":      st.Role().String(),
			"loading":   st.Loading,
			"principal": hasPrincipal,
			"session":   hasSession,
		})
	})
	return app, provider
}

func TestSessionMiddlewareWithoutCookie(t *testing.T) {
	app, _ := newMiddlewareApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Set-Cookie"))
	assert.JSONEq(t, `{"role":"unprovisioned","loading":false,"principal":false,"session":false}`, readBody(t, resp))
}

func TestSessionMiddlewareResolvesCookie(t *testing.T) {
	app, provider := newMiddlewareApp(t)
	idToken, _, err := provider.IssueIDToken(domain.Principal{UID: "staff-1"})
	require.NoError(t, err)
	cookie, err := provider.CreateSessionCookie(context.Background(), idToken, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "__session", Value: cookie})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"admin","loading":false,"principal":true,"session":true}`, readBody(t, resp))
}

func TestSessionMiddlewareClearsInvalidCookie(t *testing.T) {
	app, _ := newMiddlewareApp(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "__session", Value: "tampered"})
	resp, err := app.Test(req)
	require.NoError(t, err)

	setCookie := resp.Header.Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(setCookie, "__session=;"), setCookie)
	assert.Contains(t, strings.ToLower(setCookie), "httponly")
	assert.JSONEq(t, `{"role":"unprovisioned","loading":false,"principal":false,"session":false}`, readBody(t, resp))
}

func TestCookieConfigSet(t *testing.T) {
	app := fiber.New()
	cc := CookieConfig{Name: "__session", TTL: 24 * time.Hour, Secure: true}
	app.Get("/", func(c *fiber.Ctx) error {
		cc.Set(c, "value")
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	setCookie := strings.ToLower(resp.Header.Get("Set-Cookie"))
	assert.Contains(t, setCookie, "__session=value")
	assert.Contains(t, setCookie, "path=/")
	assert.Contains(t, setCookie, "secure")
	assert.Contains(t, setCookie, "httponly")
	assert.Contains(t, setCookie, "samesite=strict")
	assert.Contains(t, setCookie, "expires=")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	buf := new(strings.Builder)
	_, err := io.Copy(buf, resp.Body)
	require.NoError(t, err)
	return buf.String()
}
