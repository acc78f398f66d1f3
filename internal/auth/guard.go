package auth

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/domain"
	"github.com/spec-kit/authportal/internal/navigation"
)

// SessionReader is the part of the session service the guard consults.
type SessionReader interface {
	CurrentSession(ctx context.Context) *domain.SessionRecord
	IsPrivileged(ctx context.Context) bool
}

// Guard decides whether a navigation may proceed. It keeps no state of its
// own; every call re-reads the session.
type Guard struct {
	sessions SessionReader
	surfaces navigation.Surfaces
	logger   *zap.Logger
}

// NewGuard builds a guard redirecting to the given surfaces.
func NewGuard(sessions SessionReader, surfaces navigation.Surfaces, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{sessions: sessions, surfaces: surfaces, logger: logger}
}

// Evaluate applies policy to the current session.
func (g *Guard) Evaluate(ctx context.Context, policy Policy) Decision {
	switch policy {
	case PolicyPublic:
		return admit()
	case PolicyAuthenticated:
		if g.sessions.CurrentSession(ctx) == nil {
			return redirect(g.surfaces.Login)
		}
		return admit()
	case PolicyPrivileged:
		if g.sessions.CurrentSession(ctx) == nil {
			return redirect(g.surfaces.Login)
		}
		if !g.sessions.IsPrivileged(ctx) {
			return redirect(g.surfaces.Home)
		}
		return admit()
	default:
		g.logger.Warn("unknown guard policy", zap.Stringer("policy", policy))
		return redirect(g.surfaces.Login)
	}
}
