package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Set writes the session cookie with value.
func (cc CookieConfig) Set(c *fiber.Ctx, value string) time.Time {
	expires := time.Now().Add(cc.TTL)
	c.Cookie(&fiber.Cookie{
		Name:     cc.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return expires
}

// Clear expires the session cookie.
func (cc CookieConfig) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     cc.Name,
		Value:    "",
		Path:     "/",
		Expires:  fasthttp.CookieExpireDelete,
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
