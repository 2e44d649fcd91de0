package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/docs-hub/internal/auth"
)

// AdminPagesHandler serves the admin page shells behind the edge gate.
type AdminPagesHandler struct {
	gate      *auth.Gate
	cookie    CookieSettings
	loginPath string
}

// NewAdminPagesHandler constructs handler.
func NewAdminPagesHandler(gate *auth.Gate, cookie CookieSettings, loginPath string) *AdminPagesHandler {
	if loginPath == "" {
		loginPath = "/admin/login"
	}
	return &AdminPagesHandler{gate: gate, cookie: cookie, loginPath: loginPath}
}

// Login GET /admin/login.
func (h *AdminPagesHandler) Login(c *fiber.Ctx) error {
	verdict := h.gate.Authenticate(c)
	return c.JSON(fiber.Map{"data": fiber.Map{
		"page":          "login",
		"authenticated": verdict.Authenticated,
	}})
}

// Shell GET /admin and /admin/*. The edge gate only saw a cookie; the token is
// verified here and an invalid one is cleared before redirecting to login.
func (h *AdminPagesHandler) Shell(c *fiber.Ctx) error {
	verdict := h.gate.Authenticate(c)
	if !verdict.Authenticated {
		clearTokenCookie(c, h.cookie)
		return c.Redirect(h.loginPath, fiber.StatusTemporaryRedirect)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"page":  c.Path(),
		"admin": verdict.Email,
	}})
}
