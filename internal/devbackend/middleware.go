package devbackend

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/authportal/internal/domain"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads the caller.
type AuthMiddleware struct {
	accounts *AccountService
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(accounts *AccountService) *AuthMiddleware {
	return &AuthMiddleware{accounts: accounts}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], domain.DefaultTokenType) {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	user, err := m.accounts.Authenticate(c.UserContext(), parts[1])
	if err != nil {
		return err
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated account.
func PrincipalFromContext(c *fiber.Ctx) (*User, bool) {
	user, ok := c.Locals(principalKey).(*User)
	return user, ok && user != nil
}

// RequireAdmin admits only ROLE_ADMIN callers.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !slices.Contains(user.Roles, domain.RoleAdmin) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAdminOrSelf admits admins and the user named by the :id parameter.
func RequireAdminOrSelf() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if slices.Contains(user.Roles, domain.RoleAdmin) {
			return c.Next()
		}
		id, err := c.ParamsInt("id")
		if err != nil || int64(id) != user.ID {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
