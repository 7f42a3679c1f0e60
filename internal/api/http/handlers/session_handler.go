package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-console/internal/api/dto"
	"github.com/spec-kit/restaurant-console/internal/auth"
	"github.com/spec-kit/restaurant-console/internal/service"
	apperrors "github.com/spec-kit/restaurant-console/pkg/util/errorutil"
)

// SessionHandler exposes sign-in, sign-out and the current identity.
type SessionHandler struct {
	auth    *service.AuthService
	cookies auth.CookieConfig
}

// NewSessionHandler constructs handler.
func NewSessionHandler(authService *service.AuthService, cookies auth.CookieConfig) *SessionHandler {
	return &SessionHandler{auth: authService, cookies: cookies}
}

// Create handles POST /auth/session.
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req dto.SessionRequest
	if err := dto.ParseBody(c, &req); err != nil {
		return err
	}

	res, err := h.auth.SignIn(c.UserContext(), req.IDToken)
	if err != nil {
		return err
	}
	return h.respondSignedIn(c, res)
}

// LocalSignIn handles POST /auth/local/sign-in.
func (h *SessionHandler) LocalSignIn(c *fiber.Ctx) error {
	var req dto.LocalSignInRequest
	if err := dto.ParseBody(c, &req); err != nil {
		return err
	}

	res, err := h.auth.SignInLocal(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrLocalSignInDisabled) {
			return apperrors.NewNotFound("route", nil)
		}
		return err
	}
	return h.respondSignedIn(c, res)
}

// Delete handles DELETE /auth/session.
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	st := h.auth.SignOut(c.UserContext(), principal)
	h.cookies.Clear(c)
	return c.JSON(fiber.Map{"data": dto.NewIdentityResponse(st)})
}

// Identity handles GET /auth/identity.
func (h *SessionHandler) Identity(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(fiber.Map{"data": dto.NewIdentityResponse(auth.StateFromContext(c))})
}

func (h *SessionHandler) respondSignedIn(c *fiber.Ctx, res *service.SignInResult) error {
	expires := h.cookies.Set(c, res.SessionCookie)
	return c.JSON(fiber.Map{
		"data": dto.SessionResponse{
			IdentityResponse: dto.NewIdentityResponse(res.State),
			ExpiresAt:        expires,
		},
	})
}
