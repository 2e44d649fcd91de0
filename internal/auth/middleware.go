package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/docs-hub/internal/domain"
	apperrors "github.com/spec-kit/docs-hub/pkg/util"
)

const adminKey = "auth_admin"

// Verdict is the outcome of authenticating a request.
type Verdict struct {
	Authenticated bool
	Email         string
	Payload       *domain.AdminPayload
}

// Gate performs full token verification for admin routes.
type Gate struct {
	tokens *TokenService
	logger *zap.Logger
}

// NewGate constructs the gate.
func NewGate(tokens *TokenService, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{tokens: tokens, logger: logger}
}

// Authenticate extracts and verifies the request token. It never fails; a missing or
// invalid token yields an unauthenticated verdict.
func (g *Gate) Authenticate(h RequestHeaders) Verdict {
	token := g.tokens.ExtractToken(h)
	if token == "" {
		return Verdict{}
	}
	payload := g.tokens.Verify(token)
	if payload == nil {
		g.logger.Debug("admin token rejected")
		return Verdict{}
	}
	return Verdict{Authenticated: true, Email: payload.Email, Payload: payload}
}

// RequireAdmin rejects unauthenticated requests before the handler runs.
func (g *Gate) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		verdict := g.Authenticate(c)
		if !verdict.Authenticated {
			return apperrors.NewUnauthorized("Unauthorized")
		}
		c.Locals(adminKey, verdict.Payload)
		return c.Next()
	}
}

// OptionalAdmin records the admin payload when present without rejecting anonymous callers.
func (g *Gate) OptionalAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if verdict := g.Authenticate(c); verdict.Authenticated {
			c.Locals(adminKey, verdict.Payload)
		}
		return c.Next()
	}
}

// Tokens exposes the underlying token service.
func (g *Gate) Tokens() *TokenService {
	return g.tokens
}

// AdminFromContext retrieves the verified admin payload.
func AdminFromContext(c *fiber.Ctx) (*domain.AdminPayload, bool) {
	val := c.Locals(adminKey)
	if val == nil {
		return nil, false
	}
	payload, ok := val.(*domain.AdminPayload)
	return payload, ok && payload != nil
}
