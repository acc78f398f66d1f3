package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/authportal/internal/api/dto"
	"github.com/spec-kit/authportal/internal/service"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

// AdminHandler serves the privileged user directory.
type AdminHandler struct {
	directory *service.DirectoryService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(directory *service.DirectoryService) *AdminHandler {
	return &AdminHandler{directory: directory}
}

// List handles GET /admin.
func (h *AdminHandler) List(c *fiber.Ctx) error {
	dir, err := h.directory.Load(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dir})
}

// UpdateUser handles PUT /admin/users/:id.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.directory.UpdateUser(c.UserContext(), id, req.Update())
	if err != nil {
		return err
	}
	dir, err := h.directory.Reconciled(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": user, "directory": dir})
}

// DeleteUser handles DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	if err := h.directory.DeleteUser(c.UserContext(), id); err != nil {
		return err
	}
	dir, err := h.directory.Reconciled(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dir})
}

func userID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid user id", map[string]any{"id": c.Params("id")})
	}
	return int64(id), nil
}
