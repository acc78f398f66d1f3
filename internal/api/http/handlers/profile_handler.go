package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/authportal/internal/api/dto"
	"github.com/spec-kit/authportal/internal/auth"
	"github.com/spec-kit/authportal/internal/service"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

// ProfileHandler serves the authenticated profile surface.
type ProfileHandler struct {
	sessions *service.SessionService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(sessions *service.SessionService) *ProfileHandler {
	return &ProfileHandler{sessions: sessions}
}

// Get handles GET /profile. The session is refreshed from the backend first;
// when the backend cannot be reached the stored session is shown as is.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	rec, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no active session")
	}

	refreshed, err := h.sessions.RefreshProfile(c.UserContext())
	switch {
	case err == nil:
		rec = refreshed
	case !errors.Is(err, apperrors.ErrTransportFailed):
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionView(rec, h.sessions.AdminRole())})
}

// Update handles PUT /profile.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	rec, err := h.sessions.UpdateProfile(c.UserContext(), req.Update())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionView(rec, h.sessions.AdminRole())})
}
