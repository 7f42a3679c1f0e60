package guard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-console/internal/auth"
	"github.com/spec-kit/restaurant-console/internal/domain"
	"github.com/spec-kit/restaurant-console/internal/observability"
	apperrors "github.com/spec-kit/restaurant-console/pkg/util/errorutil"
)

// Require guards a route with a literal allow-list of roles. It must run
// after auth.SessionMiddleware.
func Require(metrics *observability.Metrics, roles ...domain.Role) fiber.Handler {
	allowed := NewRoleSet(roles...)

	return func(c *fiber.Ctx) error {
		d := Decide(auth.StateFromContext(c), allowed)
		metrics.RecordDecision(d.String())

		switch d {
		case Loading:
			c.Set("Refresh", "1")
			c.Set(fiber.HeaderCacheControl, "no-store")
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"data": fiber.Map{"status": d.String()},
			})
		case RedirectHome, RedirectForbidden:
			return c.Redirect(d.Location(), fiber.StatusSeeOther)
		case Unavailable:
			return apperrors.NewServiceUnavailable("role lookup failed, reload to retry", auth.StateFromContext(c).Err)
		default:
			return c.Next()
		}
	}
}
