package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/authportal/internal/domain"
	"github.com/spec-kit/authportal/internal/navigation"
)

type fakeSessions struct {
	record *domain.SessionRecord
	reads  int
}

func (f *fakeSessions) CurrentSession(context.Context) *domain.SessionRecord {
	f.reads++
	return f.record
}

func (f *fakeSessions) IsPrivileged(context.Context) bool {
	return f.record.HasRole(domain.RoleAdmin)
}

func session(roles ...string) *domain.SessionRecord {
	return &domain.SessionRecord{Token: "t", TokenType: "Bearer", UserID: 1, Username: "u", Roles: roles}
}

func TestEvaluate(t *testing.T) {
	surfaces := navigation.DefaultSurfaces()

	tests := []struct {
		name   string
		record *domain.SessionRecord
		policy Policy
		want   Decision
	}{
		{"public anonymous", nil, PolicyPublic, Decision{Admit: true}},
		{"authenticated anonymous", nil, PolicyAuthenticated, Decision{Redirect: "/auth"}},
		{"authenticated user", session(domain.RoleUser), PolicyAuthenticated, Decision{Admit: true}},
		{"privileged anonymous", nil, PolicyPrivileged, Decision{Redirect: "/auth"}},
		{"privileged regular user", session(domain.RoleUser), PolicyPrivileged, Decision{Redirect: "/"}},
		{"privileged admin", session(domain.RoleUser, domain.RoleAdmin), PolicyPrivileged, Decision{Admit: true}},
		{"unknown policy", session(domain.RoleAdmin), Policy(99), Decision{Redirect: "/auth"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := NewGuard(&fakeSessions{record: tt.record}, surfaces, nil)
			assert.Equal(t, tt.want, guard.Evaluate(context.Background(), tt.policy))
		})
	}
}

func TestEvaluateRereadsEveryTime(t *testing.T) {
	sessions := &fakeSessions{record: session(domain.RoleUser)}
	guard := NewGuard(sessions, navigation.DefaultSurfaces(), nil)

	assert.True(t, guard.Evaluate(context.Background(), PolicyAuthenticated).Admit)
	sessions.record = nil
	assert.False(t, guard.Evaluate(context.Background(), PolicyAuthenticated).Admit)
	assert.Equal(t, 2, sessions.reads)
}

func newGuardedApp(guard *Guard) *fiber.App {
	app := fiber.New()
	app.Get("/profile", guard.RequireSession(), func(c *fiber.Ctx) error {
		rec, ok := PrincipalFromContext(c)
		if !ok {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.SendString(rec.Username)
	})
	app.Get("/admin", guard.RequirePrivileged(), func(c *fiber.Ctx) error {
		return c.SendString("directory")
	})
	return app
}

func TestRequireHandlers(t *testing.T) {
	tests := []struct {
		name     string
		record   *domain.SessionRecord
		path     string
		status   int
		location string
	}{
		{"profile anonymous", nil, "/profile", http.StatusFound, "/auth"},
		{"profile user", session(domain.RoleUser), "/profile", http.StatusOK, ""},
		{"admin anonymous", nil, "/admin", http.StatusFound, "/auth"},
		{"admin regular", session(domain.RoleUser), "/admin", http.StatusFound, "/"},
		{"admin privileged", session(domain.RoleAdmin), "/admin", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := NewGuard(&fakeSessions{record: tt.record}, navigation.DefaultSurfaces(), nil)
			resp, err := newGuardedApp(guard).Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))
		})
	}
}
