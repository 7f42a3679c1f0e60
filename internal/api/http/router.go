package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/restaurant-console/internal/api/http/handlers"
	"github.com/spec-kit/restaurant-console/internal/auth"
	"github.com/spec-kit/restaurant-console/internal/guard"
	"github.com/spec-kit/restaurant-console/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Session           *handlers.SessionHandler
	Pages             *handlers.PagesHandler
	GuardEvents       *handlers.GuardEventsHandler
	SessionMiddleware *auth.SessionMiddleware
	Metrics           *observability.Metrics
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	// LocalSignIn exposes the password sign-in of the local provider.
	LocalSignIn bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	web := app.Group("", cfg.SessionMiddleware.Handle)

	authGroup := web.Group("/auth")
	authGroup.Post("/session", cfg.Session.Create)
	authGroup.Delete("/session", cfg.Session.Delete)
	authGroup.Get("/identity", cfg.Session.Identity)
	if cfg.LocalSignIn {
		authGroup.Post("/local/sign-in", cfg.Session.LocalSignIn)
	}

	web.Get("/events/guard", cfg.GuardEvents.Stream)

	web.Get("/", cfg.Pages.Home)
	web.Get("/unauthorized", cfg.Pages.Unauthorized)
	web.Get(handlers.AdminLoginPath, cfg.Pages.Login("admin-login", handlers.AdminPath))
	web.Get(handlers.ResAdminLoginPath, cfg.Pages.Login("res-admin-login", handlers.ResAdminPath))

	for path, roles := range handlers.GuardedPages {
		web.Get(path, guard.Require(cfg.Metrics, roles...), cfg.Pages.Page(path))
	}
}
