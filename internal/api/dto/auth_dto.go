package dto

import (
	"time"

	"github.com/spec-kit/docs-hub/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminUser describes the authenticated operator.
type AdminUser struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Message   string    `json:"message"`
	User      AdminUser `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VerifyResponse reports the verified token.
type VerifyResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          AdminUser `json:"user"`
	IssuedAt      time.Time `json:"issuedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Refreshed     bool      `json:"refreshed"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewVerifyResponse maps a verified payload.
func NewVerifyResponse(payload *domain.AdminPayload, refreshed bool) VerifyResponse {
	return VerifyResponse{
		Authenticated: true,
		User:          AdminUser{Email: payload.Email, Role: payload.Role},
		IssuedAt:      payload.IssuedAt,
		ExpiresAt:     payload.ExpiresAt,
		Refreshed:     refreshed,
	}
}
