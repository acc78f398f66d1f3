package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/observability"
)

// NewApp builds the portal fiber app with middlewares and routes attached.
func NewApp(name string, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
	})
	RegisterMiddlewares(app, logger, metrics, timeout, routes.Surfaces.Login, routes.Navigations)
	RegisterRoutes(app, routes)
	return app
}
