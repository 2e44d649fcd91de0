package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// HasTokenHeader is set on requests that passed the edge presence check.
const HasTokenHeader = "X-Has-Token"

// EdgeConfig configures the presence-only admin page guard.
type EdgeConfig struct {
	CookieName string
	LoginPath  string
}

// EdgeGate only checks that an admin cookie is present. Requests without one are
// redirected to the login page; the rest continue with HasTokenHeader set and are
// still verified downstream.
func EdgeGate(cfg EdgeConfig) fiber.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/admin/login"
	}
	loginPath := strings.TrimRight(cfg.LoginPath, "/")

	return func(c *fiber.Ctx) error {
		path := strings.TrimRight(c.Path(), "/")
		if path == loginPath {
			return c.Next()
		}
		if c.Cookies(cfg.CookieName) == "" {
			return c.Redirect(cfg.LoginPath, fiber.StatusTemporaryRedirect)
		}
		c.Request().Header.Set(HasTokenHeader, "true")
		return c.Next()
	}
}
