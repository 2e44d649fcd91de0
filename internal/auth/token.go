package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/docs-hub/internal/domain"
)

const (
	// TokenIssuer and TokenAudience bind admin tokens to this service.
	TokenIssuer   = "docs-hub"
	TokenAudience = "admin"
	// DefaultCookieName is the cookie carrying the admin token.
	DefaultCookieName = "admin-token"
	// DefaultTokenTTL is the admin token lifetime.
	DefaultTokenTTL = 7 * 24 * time.Hour
	// RefreshWindow is the remaining lifetime under which a token is reissued.
	RefreshWindow = 24 * time.Hour
)

// RequestHeaders exposes the request accessors token extraction needs.
// *fiber.Ctx satisfies it.
type RequestHeaders interface {
	Get(key string, defaultValue ...string) string
	Cookies(key string, defaultValue ...string) string
}

// TokenService issues and verifies signed admin tokens.
type TokenService struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	now        func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithCookieName overrides the cookie consulted by ExtractToken.
func WithCookieName(name string) TokenOption {
	return func(ts *TokenService) {
		if name != "" {
			ts.cookieName = name
		}
	}
}

// NewTokenService builds a new service.
func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	ts := &TokenService{
		secret:     []byte(secret),
		ttl:        ttl,
		cookieName: DefaultCookieName,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// Claims describes the JWT payload.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token asserting admin role for email.
func (ts *TokenService) Issue(email string) (string, time.Time, error) {
	if len(ts.secret) == 0 {
		return "", time.Time{}, errors.New("token secret not configured")
	}
	now := ts.now()
	claims := &Claims{
		Email: email,
		Role:  domain.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify validates signature, issuer, audience and expiry. Every failure yields nil.
func (ts *TokenService) Verify(tokenStr string) *domain.AdminPayload {
	if tokenStr == "" || len(ts.secret) == 0 {
		return nil
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return ts.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil || !parsed.Valid {
		return nil
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Role != domain.AdminRole || claims.Email == "" {
		return nil
	}

	payload := &domain.AdminPayload{
		TokenID:   claims.ID,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	return payload
}

// ExtractToken returns the bearer token from the Authorization header, falling back to
// the admin cookie. It returns "" when neither carries a token.
func (ts *TokenService) ExtractToken(h RequestHeaders) string {
	if h == nil {
		return ""
	}
	if authHeader := strings.TrimSpace(h.Get("Authorization")); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	return strings.TrimSpace(h.Cookies(ts.cookieName))
}

// NeedsRefresh reports whether payload is close enough to expiry to be reissued.
func (ts *TokenService) NeedsRefresh(payload *domain.AdminPayload) bool {
	return payload != nil && payload.Remaining(ts.now()) < RefreshWindow
}

// CookieName returns the cookie carrying admin tokens.
func (ts *TokenService) CookieName() string {
	return ts.cookieName
}

// TTL returns the configured token lifetime.
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}
