package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/docs-hub/internal/api/http/handlers"
	"github.com/spec-kit/docs-hub/internal/auth"
	"github.com/spec-kit/docs-hub/internal/events"
	"github.com/spec-kit/docs-hub/internal/observability"
	"github.com/spec-kit/docs-hub/internal/repository"
	"github.com/spec-kit/docs-hub/internal/service"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "s3cret-pass"
	tokenSecret   = "router-test-secret"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenService
}

func newTestServer(t *testing.T, loginLimit int) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	tokens := auth.NewTokenService(tokenSecret, auth.DefaultTokenTTL)
	gate := auth.NewGate(tokens, logger)
	cookie := handlers.CookieSettings{Name: auth.DefaultCookieName, MaxAge: auth.DefaultTokenTTL}

	postService := service.NewPostService(service.PostDependencies{
		PostRepo:   repository.NewMemoryPostRepository(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		Credentials: auth.NewCredentialValidator(adminEmail, adminPassword, ""),
		Tokens:      tokens,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(app, logger, metrics, MiddlewareConfig{Timeout: 5 * time.Second, CORSOrigins: "*"})
	RegisterRoutes(app, RouteConfig{
		Health:          handlers.NewHealthHandler("docs-hub", "test", metrics, nil),
		Auth:            handlers.NewAuthHandler(authService, gate, cookie),
		Posts:           handlers.NewPostsHandler(postService),
		AdminPages:      handlers.NewAdminPagesHandler(gate, cookie, LoginPath),
		Gate:            gate,
		CookieName:      auth.DefaultCookieName,
		LoginRateLimit:  loginLimit,
		LoginRateWindow: time.Minute,
	})
	return &testServer{app: app, tokens: tokens}
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := s.tokens.Issue(adminEmail)
	require.NoError(t, err)
	return token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type postBody struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Content   string `json:"content"`
	Excerpt   string `json:"excerpt"`
	Published bool   `json:"published"`
}

func (s *testServer) do(t *testing.T, method, target, body, token string) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func decodePost(t *testing.T, env envelope) postBody {
	t.Helper()
	var post postBody
	require.NoError(t, json.Unmarshal(env.Data, &post))
	return post
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t, 0)

	resp, env := s.do(t, http.MethodPost, "/api/admin/login", `{"email":"admin@example.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Email and password are required", env.Error.Message)

	resp, env = s.do(t, http.MethodPost, "/api/admin/login", `{"email":"admin@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", env.Error.Message)

	resp, env = s.do(t, http.MethodPost, "/api/admin/login", `{"email":" Admin@Example.com ","password":"s3cret-pass"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := findCookie(resp, auth.DefaultCookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 7*24*60*60, cookie.MaxAge)

	var login struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.Equal(t, cookie.Value, login.Token)
	assert.Equal(t, adminEmail, login.User.Email)
	assert.Equal(t, "admin", login.User.Role)

	resp, _ = s.do(t, http.MethodGet, "/api/admin/verify", "", login.Token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginIsRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	body := `{"email":"admin@example.com","password":"wrong"}`

	for i := 0; i < 2; i++ {
		resp, _ := s.do(t, http.MethodPost, "/api/admin/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, env := s.do(t, http.MethodPost, "/api/admin/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Error.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t, 0)

	resp, _ := s.do(t, http.MethodPost, "/api/admin/logout", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := findCookie(resp, auth.DefaultCookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()))
}

func TestVerifyRefreshesTokensNearExpiry(t *testing.T) {
	s := newTestServer(t, 0)

	old := auth.NewTokenService(tokenSecret, auth.DefaultTokenTTL, auth.WithClock(func() time.Time {
		return time.Now().Add(-auth.DefaultTokenTTL + 2*time.Hour)
	}))
	token, _, err := old.Issue(adminEmail)
	require.NoError(t, err)

	resp, env := s.do(t, http.MethodGet, "/api/admin/verify", "", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, findCookie(resp, auth.DefaultCookieName))

	var verify struct {
		Refreshed bool `json:"refreshed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &verify))
	assert.True(t, verify.Refreshed)

	resp, _ = s.do(t, http.MethodGet, "/api/admin/verify", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, 0)

	cases := []struct {
		method, target, body string
	}{
		{http.MethodGet, "/api/posts", ""},
		{http.MethodPost, "/api/posts", `{"title":"T","content":"C"}`},
		{http.MethodPut, "/api/posts/anything", `{"title":"T","content":"C"}`},
		{http.MethodDelete, "/api/posts/anything", ""},
	}
	for _, tc := range cases {
		resp, env := s.do(t, tc.method, tc.target, tc.body, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.target)
		require.NotNil(t, env.Error)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

		resp, _ = s.do(t, tc.method, tc.target, tc.body, "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.adminToken(t)

	content := "<p>" + strings.Repeat("a", 200) + "</p>"
	resp, env := s.do(t, http.MethodPost, "/api/posts", `{"title":"Hello, World! 2024","content":"`+content+`"}`, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodePost(t, env)
	assert.Equal(t, "hello-world-2024", created.Slug)
	assert.Len(t, created.Excerpt, 153)
	assert.True(t, strings.HasSuffix(created.Excerpt, "..."))
	assert.True(t, created.Published)

	resp, env = s.do(t, http.MethodPost, "/api/posts", `{"title":"Hello World 2024","content":"again"}`, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "SLUG_CONFLICT", env.Error.Code)
	assert.Equal(t, "A post with this slug already exists", env.Error.Message)

	resp, env = s.do(t, http.MethodPost, "/api/posts", `{"title":"","content":"x"}`, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Title and content are required", env.Error.Message)

	resp, env = s.do(t, http.MethodGet, "/api/posts/hello-world-2024", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decodePost(t, env).ID)

	resp, env = s.do(t, http.MethodPut, "/api/posts/"+created.ID, `{"title":"Renamed","content":"<em>fresh</em>"}`, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodePost(t, env)
	assert.Equal(t, "renamed", updated.Slug)
	assert.Equal(t, "fresh", updated.Excerpt)

	resp, _ = s.do(t, http.MethodDelete, "/api/posts/"+created.ID, "", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = s.do(t, http.MethodDelete, "/api/posts/"+created.ID, "", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestUpdateSlugConflictKeepsOriginal(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.adminToken(t)

	_, env := s.do(t, http.MethodPost, "/api/posts", `{"title":"First","content":"one"}`, token)
	first := decodePost(t, env)
	_, env = s.do(t, http.MethodPost, "/api/posts", `{"title":"Second","content":"two"}`, token)
	second := decodePost(t, env)

	resp, env := s.do(t, http.MethodPut, "/api/posts/"+second.ID, `{"title":"Second","content":"changed","slug":"`+first.Slug+`"}`, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "SLUG_CONFLICT", env.Error.Code)

	_, env = s.do(t, http.MethodGet, "/api/posts/"+second.ID, "", token)
	stored := decodePost(t, env)
	assert.Equal(t, "second", stored.Slug)
	assert.Equal(t, "two", stored.Content)

	resp, _ = s.do(t, http.MethodPut, "/api/posts/unknown-post", `{"title":"X","content":"Y"}`, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnpublishedPostIsHiddenFromAnonymousCallers(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.adminToken(t)

	_, env := s.do(t, http.MethodPost, "/api/posts", `{"title":"Draft","content":"hidden"}`, token)
	draft := decodePost(t, env)
	resp, _ := s.do(t, http.MethodPut, "/api/posts/"+draft.ID, `{"title":"Draft","content":"hidden","published":false}`, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = s.do(t, http.MethodGet, "/api/posts/draft", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Post not found", env.Error.Message)

	resp, _ = s.do(t, http.MethodGet, "/api/posts/"+draft.ID, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = s.do(t, http.MethodGet, "/api/posts/draft", "", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decodePost(t, env).Published)

	_, env = s.do(t, http.MethodGet, "/api/posts/public", "", "")
	var public []postBody
	require.NoError(t, json.Unmarshal(env.Data, &public))
	assert.Empty(t, public)

	_, env = s.do(t, http.MethodGet, "/api/posts", "", token)
	var all []postBody
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 1)
}

func TestPublicListingAndSearch(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.adminToken(t)

	s.do(t, http.MethodPost, "/api/posts", `{"title":"Go Generics","content":"type parameters"}`, token)
	s.do(t, http.MethodPost, "/api/posts", `{"title":"Rust Traits","content":"borrowing"}`, token)

	resp, env := s.do(t, http.MethodGet, "/api/posts/public", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var public []postBody
	require.NoError(t, json.Unmarshal(env.Data, &public))
	require.Len(t, public, 2)
	assert.Equal(t, "rust-traits", public[0].Slug)
	assert.Empty(t, public[0].Content)

	resp, env = s.do(t, http.MethodGet, "/api/posts/public?q=GENERICS", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hits []postBody
	require.NoError(t, json.Unmarshal(env.Data, &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "go-generics", hits[0].Slug)
}

func TestSlugsDoNotShadowFixedRoutes(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.adminToken(t)

	resp, env := s.do(t, http.MethodPost, "/api/posts", `{"title":"Search","content":"how to find things"}`, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodePost(t, env)
	assert.Equal(t, "search", created.Slug)

	resp, env = s.do(t, http.MethodGet, "/api/posts/search", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decodePost(t, env).ID)

	resp, env = s.do(t, http.MethodPost, "/api/posts", `{"title":"Public","content":"x"}`, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	resp, env = s.do(t, http.MethodGet, "/api/posts/public", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var public []postBody
	require.NoError(t, json.Unmarshal(env.Data, &public))
	assert.Len(t, public, 1)
}

func TestAdminPagesEdgeGate(t *testing.T) {
	s := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, LoginPath, resp.Header.Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin/create", nil)
	req.AddCookie(&http.Cookie{Name: auth.DefaultCookieName, Value: "forged"})
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	cleared := findCookie(resp, auth.DefaultCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	req = httptest.NewRequest(http.MethodGet, "/admin/edit/some-post", nil)
	req.AddCookie(&http.Cookie{Name: auth.DefaultCookieName, Value: s.adminToken(t)})
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	s := newTestServer(t, 0)

	resp, env := s.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, 0)

	resp, _ := s.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := s.do(t, http.MethodGet, "/health/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap struct {
		TotalRequests int64 `json:"total_requests"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.GreaterOrEqual(t, snap.TotalRequests, int64(2))
}
