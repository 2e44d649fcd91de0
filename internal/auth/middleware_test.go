package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/docs-hub/pkg/util"
)

func newGateApp(gate *Gate) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": de.Code})
		},
	})
	app.Get("/protected", gate.RequireAdmin(), func(c *fiber.Ctx) error {
		admin, ok := AdminFromContext(c)
		if !ok {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.SendString(admin.Email)
	})
	app.Get("/optional", gate.OptionalAdmin(), func(c *fiber.Ctx) error {
		if admin, ok := AdminFromContext(c); ok {
			return c.SendString("admin:" + admin.Email)
		}
		return c.SendString("anonymous")
	})
	return app
}

func TestRequireAdmin(t *testing.T) {
	ts := NewTokenService("secret", 0)
	app := newGateApp(NewGate(ts, nil))
	token, _, err := ts.Issue("admin@example.com")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: token})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: token + "x"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOptionalAdmin(t *testing.T) {
	ts := NewTokenService("secret", 0)
	gate := NewGate(ts, nil)
	app := newGateApp(gate)
	token, _, err := ts.Issue("admin@example.com")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/optional", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	verdict := gate.Authenticate(fakeHeaders{headers: map[string]string{"Authorization": "Bearer " + token}})
	assert.True(t, verdict.Authenticated)
	assert.Equal(t, "admin@example.com", verdict.Email)

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.False(t, gate.Authenticate(fakeHeaders{}).Authenticated)
}

func TestEdgeGate(t *testing.T) {
	app := fiber.New()
	app.Use("/admin", EdgeGate(EdgeConfig{}))
	app.Get("/admin/*", func(c *fiber.Ctx) error {
		return c.SendString(c.Get(HasTokenHeader))
	})
	app.Get("/admin", func(c *fiber.Ctx) error {
		return c.SendString(c.Get(HasTokenHeader))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin/create", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/admin/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/admin/edit/some-post", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "anything"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "true", string(body))
}
