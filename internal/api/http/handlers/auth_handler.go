package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/docs-hub/internal/api/dto"
	"github.com/spec-kit/docs-hub/internal/auth"
	"github.com/spec-kit/docs-hub/internal/service"
	apperrors "github.com/spec-kit/docs-hub/pkg/util"
)

// CookieSettings describes the admin token cookie.
type CookieSettings struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// AuthHandler manages admin session endpoints.
type AuthHandler struct {
	service *service.AuthService
	gate    *auth.Gate
	cookie  CookieSettings
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, gate *auth.Gate, cookie CookieSettings) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = auth.DefaultCookieName
	}
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = auth.DefaultTokenTTL
	}
	return &AuthHandler{service: authService, gate: gate, cookie: cookie}
}

// Login POST /api/admin/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Email and password are required", nil)
	}
	if err := dto.Validate(req, dto.LoginMessages); err != nil {
		return err
	}

	result, err := h.service.Login(c.UserContext(), req.Email, req.Password, c.IP())
	if err != nil {
		return err
	}

	setTokenCookie(c, h.cookie, result.Token)
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Message:   "Login successful",
		User:      dto.AdminUser{Email: result.Email, Role: result.Role},
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}})
}

// Logout POST /api/admin/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	verdict := h.gate.Authenticate(c)
	clearTokenCookie(c, h.cookie)
	h.service.Logout(c.UserContext(), verdict.Email, c.IP())
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "Logout successful"}})
}

// Verify GET /api/admin/verify. Tokens close to expiry are reissued.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	payload, ok := auth.AdminFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}

	refreshed, err := h.service.Refresh(payload)
	if err != nil {
		return err
	}
	if refreshed != nil {
		setTokenCookie(c, h.cookie, refreshed.Token)
		if next := h.gate.Tokens().Verify(refreshed.Token); next != nil {
			payload = next
		}
	}
	return c.JSON(fiber.Map{"data": dto.NewVerifyResponse(payload, refreshed != nil)})
}

func setTokenCookie(c *fiber.Ctx, settings CookieSettings, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     settings.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(settings.MaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   settings.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func clearTokenCookie(c *fiber.Ctx, settings CookieSettings) {
	c.Cookie(&fiber.Cookie{
		Name:     settings.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   settings.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
