package http

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/restaurant-console/internal/api/http/handlers"
	"github.com/spec-kit/restaurant-console/internal/auth"
	"github.com/spec-kit/restaurant-console/internal/domain"
	"github.com/spec-kit/restaurant-console/internal/identity"
	"github.com/spec-kit/restaurant-console/internal/observability"
	"github.com/spec-kit/restaurant-console/internal/repository"
	"github.com/spec-kit/restaurant-console/internal/service"
)

const testPassword = "pa55word"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	local := auth.NewLocalProvider("router-secret", 5, []auth.LocalAccount{
		{UID: "staff-1", Email: "ada@console.test", PasswordHash: string(hash)},
		{UID: "owner-1", Email: "owner@trattoria.test", PasswordHash: string(hash)},
		{UID: "nobody-1", Email: "nobody@console.test", PasswordHash: string(hash)},
	})
	dir := repository.NewMemoryDirectory(
		[]domain.StaffRecord{{ID: "staff-1", Name: "Ada", Email: "ada@console.test"}},
		[]domain.OwnerRecord{
			{ID: "rest-1", AdminID: "owner-1", Name: "Trattoria", Email: "owner@trattoria.test", Role: domain.RoleRestaurantAdmin, Status: domain.RestaurantStatusActive},
			{ID: "rest-2", AdminID: "owner-2", Name: "Noodle Bar"},
		},
	)

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)
	logger := zap.NewNop()

	registry := identity.NewRegistry(
		identity.NewResolver(identity.ResolverDependencies{StaffRepo: dir.Staff(), OwnerRepo: dir.Owners(), Metrics: metrics}),
		nil, logger, identity.WithMaxAge(0),
	)
	cookies := auth.CookieConfig{Name: "__session", TTL: 24 * time.Hour, Secure: true}
	authService := service.NewAuthService(service.AuthDependencies{
		Provider:   local,
		Local:      local,
		Registry:   registry,
		SessionTTL: cookies.TTL,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:            handlers.NewHealthHandler("restaurant-console", "test", nil),
		Session:           handlers.NewSessionHandler(authService, cookies),
		Pages:             handlers.NewPagesHandler(dir.Owners()),
		GuardEvents:       handlers.NewGuardEventsHandler(context.Background(), time.Minute, logger),
		SessionMiddleware: auth.NewSessionMiddleware(local, registry, cookies, logger),
		Metrics:           metrics,
		Gatherer:          promRegistry,
		LocalSignIn:       true,
	})
	return app
}

type client struct {
	t      *testing.T
	app    *fiber.App
	cookie string
}

func (c *client) do(method, path, body string) *nethttp.Response {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != "" {
		req.AddCookie(&nethttp.Cookie{Name: "__session", Value: c.cookie})
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	return resp
}

func (c *client) signIn(email string) {
	c.t.Helper()
	resp := c.do(nethttp.MethodPost, "/auth/local/sign-in", `{"email":"`+email+`","password":"`+testPassword+`"}`)
	require.Equal(c.t, nethttp.StatusOK, resp.StatusCode)
	for _, ck := range resp.Cookies() {
		if ck.Name == "__session" {
			c.cookie = ck.Value
		}
	}
	require.NotEmpty(c.t, c.cookie)
}

func body(t *testing.T, resp *nethttp.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func decode(t *testing.T, resp *nethttp.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body(t, resp)), &out))
	return out
}

func TestOwnerJourney(t *testing.T) {
	c := &client{t: t, app: newTestApp(t)}
	c.signIn("owner@trattoria.test")

	resp := c.do(nethttp.MethodGet, "/res-admin", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	data := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, "rest-1", data["restaurant"].(map[string]any)["id"])

	resp = c.do(nethttp.MethodGet, "/res-admin/profile", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	profile := decode(t, resp)["data"].(map[string]any)["restaurant"].(map[string]any)
	assert.Equal(t, "restaurantAdmin", profile["role"])
	assert.Equal(t, "Active", profile["status"])

	resp = c.do(nethttp.MethodGet, "/res-admin/menu", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "menu", decode(t, resp)["data"].(map[string]any)["page"])

	resp = c.do(nethttp.MethodGet, "/admin", "")
	assert.Equal(t, nethttp.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/unauthorized", resp.Header.Get("Location"))

	resp = c.do(nethttp.MethodGet, "/auth/identity", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	ident := decode(t, resp)["data"].(map[string]any)["identity"].(map[string]any)
	assert.Equal(t, "restaurantAdmin", ident["role"])

	resp = c.do(nethttp.MethodDelete, "/auth/session", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Nil(t, decode(t, resp)["data"].(map[string]any)["identity"])

	// The old cookie was revoked by sign-out.
	resp = c.do(nethttp.MethodGet, "/res-admin", "")
	assert.Equal(t, nethttp.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestAdminJourney(t *testing.T) {
	c := &client{t: t, app: newTestApp(t)}
	c.signIn("ada@console.test")

	resp := c.do(nethttp.MethodGet, "/admin", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	data := decode(t, resp)["data"].(map[string]any)
	assert.Len(t, data["restaurants"], 2)

	resp = c.do(nethttp.MethodGet, "/admin?limit=1", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode(t, resp)["data"].(map[string]any)["count"])

	for _, path := range []string{"/admin/analysis", "/admin/order-management", "/admin/user-management", "/admin/setting"} {
		resp = c.do(nethttp.MethodGet, path, "")
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode, path)
	}

	resp = c.do(nethttp.MethodGet, "/res-admin", "")
	assert.Equal(t, nethttp.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/unauthorized", resp.Header.Get("Location"))
}

func TestUnprovisionedPrincipal(t *testing.T) {
	c := &client{t: t, app: newTestApp(t)}
	c.signIn("nobody@console.test")

	resp := c.do(nethttp.MethodGet, "/auth/identity", "")
	ident := decode(t, resp)["data"].(map[string]any)["identity"].(map[string]any)
	assert.Nil(t, ident["role"])
	assert.Equal(t, "nobody-1", ident["uid"])

	for path := range handlers.GuardedPages {
		resp := c.do(nethttp.MethodGet, path, "")
		assert.Equal(t, nethttp.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/unauthorized", resp.Header.Get("Location"), path)
	}
}

func TestPublicPages(t *testing.T) {
	c := &client{t: t, app: newTestApp(t)}

	resp := c.do(nethttp.MethodGet, "/", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	session := decode(t, resp)["data"].(map[string]any)["session"].(map[string]any)
	assert.Nil(t, session["identity"])
	assert.Equal(t, false, session["loading"])

	resp = c.do(nethttp.MethodGet, "/admin-login", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "/admin", decode(t, resp)["data"].(map[string]any)["landing"])

	resp = c.do(nethttp.MethodGet, "/unauthorized", "")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp = c.do(nethttp.MethodGet, "/admin", "")
	assert.Equal(t, nethttp.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func landingPaths(t *testing.T, resp *nethttp.Response) []string {
	t.Helper()
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	landing := decode(t, resp)["data"].(map[string]any)["landing"].(map[string]any)
	var paths []string
	for _, link := range landing["links"].([]any) {
		paths = append(paths, link.(map[string]any)["path"].(string))
	}
	return paths
}

func TestHomeLandingByRole(t *testing.T) {
	tests := []struct {
		name  string
		email string
		paths []string
	}{
		{"anonymous", "", []string{"/admin-login", "/res-admin-login"}},
		{"admin", "ada@console.test", []string{"/admin", "/admin/analysis"}},
		{"restaurant admin", "owner@trattoria.test", []string{"/res-admin", "/res-admin/menu"}},
		{"unprovisioned", "nobody@console.test", []string{"/admin-login", "/res-admin-login"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &client{t: t, app: newTestApp(t)}
			if tt.email != "" {
				c.signIn(tt.email)
			}
			assert.Equal(t, tt.paths, landingPaths(t, c.do(nethttp.MethodGet, "/", "")))
		})
	}
}

func TestSignInValidation(t *testing.T) {
	c := &client{t: t, app: newTestApp(t)}

	resp := c.do(nethttp.MethodPost, "/auth/session", `{}`)
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	errBody := decode(t, resp)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	assert.Equal(t, "is required", errBody["details"].(map[string]any)["id_token"])

	resp = c.do(nethttp.MethodPost, "/auth/session", `{"id_token":"forged"}`)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	resp = c.do(nethttp.MethodPost, "/auth/local/sign-in", `{"email":"ada@console.test","password":"wrong-password"}`)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Cookies())
}

func TestGuardEventStream(t *testing.T) {
	t.Run("signed out", func(t *testing.T) {
		c := &client{t: t, app: newTestApp(t)}
		resp := c.do(nethttp.MethodGet, "/events/guard?page=/admin", "")
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
		assert.Contains(t, body(t, resp), `"decision":"redirect_home","location":"/"`)
	})

	t.Run("wrong role", func(t *testing.T) {
		c := &client{t: t, app: newTestApp(t)}
		c.signIn("owner@trattoria.test")
		resp := c.do(nethttp.MethodGet, "/events/guard?page=/admin", "")
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		out := body(t, resp)
		assert.Contains(t, out, "event: decision")
		assert.Contains(t, out, `"decision":"redirect_forbidden","location":"/unauthorized"`)
	})

	t.Run("unknown page", func(t *testing.T) {
		c := &client{t: t, app: newTestApp(t)}
		resp := c.do(nethttp.MethodGet, "/events/guard?page=/billing", "")
		assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	})
}

func TestOperationalRoutes(t *testing.T) {
	c := &client{t: t, app: newTestApp(t)}

	resp := c.do(nethttp.MethodGet, "/health/live", "")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(observability.RequestIDHeader))

	resp = c.do(nethttp.MethodGet, "/health/ready", "")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	c.do(nethttp.MethodGet, "/admin", "")
	resp = c.do(nethttp.MethodGet, "/metrics", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	out := body(t, resp)
	assert.Contains(t, out, `route_guard_decisions_total{decision="redirect_home"}`)
	assert.Contains(t, out, "http_requests_total")

	resp = c.do(nethttp.MethodGet, "/nowhere", "")
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode(t, resp)["error"].(map[string]any)["code"])
}
