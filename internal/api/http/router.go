package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/authportal/internal/api/http/handlers"
	"github.com/spec-kit/authportal/internal/auth"
	"github.com/spec-kit/authportal/internal/navigation"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Profile     *handlers.ProfileHandler
	Admin       *handlers.AdminHandler
	Guard       *auth.Guard
	Surfaces    navigation.Surfaces
	Navigations ForcedNavigations
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)
	app.Get("/health/audit", cfg.Guard.RequirePrivileged(), cfg.Health.Audit)

	app.Get(cfg.Surfaces.Home, func(c *fiber.Ctx) error {
		return c.Redirect(cfg.Surfaces.Login, fiber.StatusFound)
	})

	authGroup := app.Group(cfg.Surfaces.Login)
	authGroup.Get("/", cfg.Auth.Page)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/logout", cfg.Auth.Logout)

	profile := app.Group(cfg.Surfaces.Profile, cfg.Guard.RequireSession())
	profile.Get("/", cfg.Profile.Get)
	profile.Put("/", cfg.Profile.Update)

	admin := app.Group(cfg.Surfaces.Admin, cfg.Guard.RequirePrivileged())
	admin.Get("/", cfg.Admin.List)
	admin.Put("/users/:id", cfg.Admin.UpdateUser)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)
}
