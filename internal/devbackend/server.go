package devbackend

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/config"
	"github.com/spec-kit/authportal/internal/domain"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

// Server is the reference backend: a fiber app serving the API under /api.
type Server struct {
	App      *fiber.App
	Accounts *AccountService
}

// New builds the server and seeds the administrator account.
func New(ctx context.Context, cfg config.DevBackendConfig, logger *zap.Logger) (*Server, error) {
	accounts := NewAccountService(
		NewMemoryUserRepository(),
		NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		cfg.BcryptCost,
	)
	if err := accounts.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})
	registerRoutes(app, accounts)
	return &Server{App: app, Accounts: accounts}, nil
}

func registerRoutes(app *fiber.App, accounts *AccountService) {
	h := &handlers{accounts: accounts}
	authMiddleware := NewAuthMiddleware(accounts)

	api := app.Group("/api")
	api.Post("/auth/signin", h.signIn)
	api.Post("/auth/signup", h.signUp)

	users := api.Group("/users", authMiddleware.Handle)
	users.Get("/", RequireAdmin(), h.listUsers)
	users.Get("/:id", RequireAdminOrSelf(), h.getUser)
	users.Put("/:id", RequireAdminOrSelf(), h.updateUser)
	users.Delete("/:id", RequireAdmin(), h.deleteUser)
}

// errorHandler renders every failure as the {message} envelope.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := http.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status, message = fiberErr.Code, fiberErr.Message
		} else {
			domainErr := apperrors.ToDomainError(err)
			status, message = domainErr.HTTPStatus, domainErr.Message
		}
		if status >= http.StatusInternalServerError {
			logger.Error("dev backend request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(status).JSON(domain.ErrorEnvelope{Message: message})
	}
}

type handlers struct {
	accounts *AccountService
}

func (h *handlers) signIn(c *fiber.Ctx) error {
	var req domain.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.accounts.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *handlers) signUp(c *fiber.Ctx) error {
	var req domain.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if _, err := h.accounts.Register(c.UserContext(), req); err != nil {
		return err
	}
	return c.JSON(domain.ErrorEnvelope{Message: "user registered successfully"})
}

func (h *handlers) listUsers(c *fiber.Ctx) error {
	users, err := h.accounts.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, toDTO(u))
	}
	return c.JSON(out)
}

func (h *handlers) getUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid id")
	}
	user, err := h.accounts.GetUser(c.UserContext(), int64(id))
	if err != nil {
		return err
	}
	return c.JSON(toDTO(user))
}

func (h *handlers) updateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid id")
	}
	var update domain.UserUpdate
	if err := c.BodyParser(&update); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	user, err := h.accounts.UpdateUser(c.UserContext(), int64(id), update)
	if err != nil {
		return err
	}
	return c.JSON(toDTO(user))
}

func (h *handlers) deleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid id")
	}
	if err := h.accounts.DeleteUser(c.UserContext(), int64(id)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func toDTO(u *User) domain.User {
	return domain.User{ID: u.ID, Username: u.Username, Email: u.Email, Roles: append([]string(nil), u.Roles...)}
}

// InProcessTransport serves requests straight from app without a socket.
func InProcessTransport(app *fiber.App) http.RoundTripper {
	return inProcessTransport{app: app}
}

type inProcessTransport struct {
	app *fiber.App
}

func (t inProcessTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.app.Test(req.Clone(req.Context()), -1)
}
