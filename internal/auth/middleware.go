package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/domain"
)

const principalKey = "auth_principal"

// RequireSession admits requests while a session exists and redirects to the
// login surface otherwise.
func (g *Guard) RequireSession() fiber.Handler {
	return g.require(PolicyAuthenticated)
}

// RequirePrivileged admits only privileged sessions. Anonymous callers go to
// the login surface, unprivileged ones to the home surface.
func (g *Guard) RequirePrivileged() fiber.Handler {
	return g.require(PolicyPrivileged)
}

func (g *Guard) require(policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := g.Evaluate(c.UserContext(), policy)
		if !decision.Admit {
			g.logger.Debug("navigation redirected",
				zap.String("path", c.Path()),
				zap.Stringer("policy", policy),
				zap.String("redirect", decision.Redirect))
			return c.Redirect(decision.Redirect, fiber.StatusFound)
		}
		if rec := g.sessions.CurrentSession(c.UserContext()); rec != nil {
			c.Locals(principalKey, rec)
		}
		return c.Next()
	}
}

// PrincipalFromContext returns the session admitted by the guard.
func PrincipalFromContext(c *fiber.Ctx) (*domain.SessionRecord, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	rec, ok := val.(*domain.SessionRecord)
	return rec, ok
}
