package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/spec-kit/docs-hub/internal/api/http/handlers"
	"github.com/spec-kit/docs-hub/internal/auth"
	apperrors "github.com/spec-kit/docs-hub/pkg/util"
)

// LoginPath is the public admin login page.
const LoginPath = "/admin/login"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Posts      *handlers.PostsHandler
	AdminPages *handlers.AdminPagesHandler
	Gate       *auth.Gate
	CookieName string

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	admin := api.Group("/admin")
	admin.Post("/login", loginLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow), cfg.Auth.Login)
	admin.Post("/logout", cfg.Auth.Logout)
	admin.Get("/verify", cfg.Gate.RequireAdmin(), cfg.Auth.Verify)

	posts := api.Group("/posts")
	posts.Get("/public", cfg.Posts.ListPublic)
	posts.Get("/", cfg.Gate.RequireAdmin(), cfg.Posts.ListAll)
	posts.Post("/", cfg.Gate.RequireAdmin(), cfg.Posts.Create)
	posts.Get("/:identifier", cfg.Gate.OptionalAdmin(), cfg.Posts.Get)
	posts.Put("/:identifier", cfg.Gate.RequireAdmin(), cfg.Posts.Update)
	posts.Delete("/:identifier", cfg.Gate.RequireAdmin(), cfg.Posts.Delete)

	pages := app.Group("/admin", auth.EdgeGate(auth.EdgeConfig{
		CookieName: cfg.CookieName,
		LoginPath:  LoginPath,
	}))
	pages.Get("/login", cfg.AdminPages.Login)
	pages.Get("/", cfg.AdminPages.Shell)
	pages.Get("/*", cfg.AdminPages.Shell)
}

func loginLimiter(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperrors.NewTooManyRequests("Too many login attempts, please try again later")
		},
	})
}
