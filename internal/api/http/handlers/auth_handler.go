package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/authportal/internal/api/dto"
	"github.com/spec-kit/authportal/internal/domain"
	"github.com/spec-kit/authportal/internal/navigation"
	"github.com/spec-kit/authportal/internal/service"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

// AuthHandler serves the login/registration surface.
type AuthHandler struct {
	sessions *service.SessionService
	surfaces navigation.Surfaces
}

// NewAuthHandler constructs handler.
func NewAuthHandler(sessions *service.SessionService, surfaces navigation.Surfaces) *AuthHandler {
	return &AuthHandler{sessions: sessions, surfaces: surfaces}
}

// Page handles GET /auth.
func (h *AuthHandler) Page(c *fiber.Ctx) error {
	rec := h.sessions.CurrentSession(c.UserContext())
	resp := dto.AuthPageResponse{Authenticated: rec != nil}
	if rec != nil {
		view := dto.NewSessionView(rec, h.sessions.AdminRole())
		resp.User = &view
	}
	return c.JSON(resp)
}

// Login handles POST /auth/login. On success the client moves on to the
// profile surface.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	rec, err := h.sessions.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":     dto.NewSessionView(rec, h.sessions.AdminRole()),
		"redirect": h.surfaces.Profile,
	})
}

// Register handles POST /auth/register. No session is created; the user
// logs in afterwards.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var form domain.RegistrationForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.sessions.ValidateRegistration(form); err != nil {
		return err
	}
	if err := h.sessions.Register(c.UserContext(), form.Username, form.Email, form.Password); err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":  "registration successful, please log in",
		"redirect": h.surfaces.Login,
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"redirect": h.surfaces.Login})
}
