package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/observability"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

// ForcedNavigations queues the navigations the transport layer forced while
// a request was being served.
type ForcedNavigations interface {
	Pending() []string
	Current() string
}

// RegisterMiddlewares attaches global middlewares such as error handling and
// logging. A SESSION_REJECTED error from any handler sends the client to
// loginPath; a forced navigation queued during the request overrides the
// response with a redirect to its target.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, loginPath string, navigations ForcedNavigations) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics, loginPath))
	if navigations != nil {
		app.Use(forcedNavigationMiddleware(navigations, logger))
	}
	app.Use(observability.RequestLogger(logger))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// forcedNavigationMiddleware drains the queue after the handler ran. The
// application restarts at the current location and whatever the handler
// produced is discarded.
func forcedNavigationMiddleware(navigations ForcedNavigations, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		targets := navigations.Pending()
		if len(targets) == 0 {
			return err
		}
		target := navigations.Current()
		logger.Info("forced navigation",
			zap.String("path", c.Path()),
			zap.String("target", target),
			zap.Int("queued", len(targets)))
		c.Response().ResetBody()
		return c.Redirect(target, fiber.StatusFound)
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}

			domainErr := toDomainError(err)
			metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
			if domainErr.Code == apperrors.CodeSessionRejected {
				logger.Info("session rejected; redirecting to login", zap.String("path", c.Path()))
				err = c.Redirect(loginPath, fiber.StatusFound)
				return
			}

			response := fiber.Map{"error": fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			}}
			if len(domainErr.Details) > 0 {
				response["error"].(fiber.Map)["details"] = domainErr.Details
			}
			if domainErr.HTTPStatus >= 500 {
				logger.Error("request failed", zap.Error(domainErr))
			}
			c.Status(domainErr.HTTPStatus)
			_ = c.JSON(response)
			err = nil
		}()
		return c.Next()
	}
}

func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.FromStatus(fiberErr.Code, fiberErr.Message)
	}
	return apperrors.ToDomainError(err)
}
