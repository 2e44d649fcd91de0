package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/docs-hub/internal/auth"
	"github.com/spec-kit/docs-hub/internal/domain"
	"github.com/spec-kit/docs-hub/internal/events"
	apperrors "github.com/spec-kit/docs-hub/pkg/util"
)

// LoginResult is returned on a successful admin login.
type LoginResult struct {
	Email     string
	Role      string
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates admin login and token refresh.
type AuthService struct {
	credentials  *auth.CredentialValidator
	tokens       *auth.TokenService
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	failureDelay time.Duration
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Credentials  *auth.CredentialValidator
	Tokens       *auth.TokenService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	FailureDelay time.Duration
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		credentials:  deps.Credentials,
		tokens:       deps.Tokens,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		failureDelay: deps.FailureDelay,
	}
}

// Login validates the admin credentials and issues a token. Rejected attempts are held
// back by the failure delay before returning; successful ones never are.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string) (*LoginResult, error) {
	email = auth.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Email and password are required", nil)
	}

	s.logger.Info("admin login attempt", zap.String("ip", clientIP))

	if !s.credentials.Validate(email, password) {
		s.publish(ctx, events.Event{
			Type:    events.EventAdminLoginFailed,
			Actor:   events.Actor{Email: email, IP: clientIP},
			Payload: events.LoginPayload{Reason: "invalid credentials"},
		})
		if err := s.delay(ctx); err != nil {
			return nil, err
		}
		return nil, apperrors.NewUnauthorized("Invalid credentials")
	}

	result, err := s.issue(email)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:  events.EventAdminLoggedIn,
		Actor: events.Actor{Email: email, IP: clientIP},
	})
	return result, nil
}

// Refresh reissues a token for payload when it is close to expiry. It returns nil when
// the current token is still fresh.
func (s *AuthService) Refresh(payload *domain.AdminPayload) (*LoginResult, error) {
	if !s.tokens.NeedsRefresh(payload) {
		return nil, nil
	}
	s.logger.Info("refreshing admin token", zap.String("email", payload.Email))
	return s.issue(payload.Email)
}

// Logout records the logout for auditing.
func (s *AuthService) Logout(ctx context.Context, email, clientIP string) {
	s.publish(ctx, events.Event{
		Type:  events.EventAdminLoggedOut,
		Actor: events.Actor{Email: strings.TrimSpace(email), IP: clientIP},
	})
}

func (s *AuthService) issue(email string) (*LoginResult, error) {
	token, expiresAt, err := s.tokens.Issue(email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{
		Email:     email,
		Role:      domain.AdminRole,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) delay(ctx context.Context) error {
	if s.failureDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.failureDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
