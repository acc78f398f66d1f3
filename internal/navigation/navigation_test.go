package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/authportal/internal/config"
)

func TestLocationTracksNavigation(t *testing.T) {
	loc := NewLocation("/profile")
	assert.Equal(t, "/profile", loc.Current())

	loc.Navigate("/auth")
	loc.Navigate("/auth")

	assert.Equal(t, "/auth", loc.Current())
	assert.Equal(t, []string{"/auth", "/auth"}, loc.Pending())
	assert.Empty(t, loc.Pending())
	assert.Equal(t, "/auth", loc.Current(), "draining keeps the location")
}

func TestLocationPendingIsBounded(t *testing.T) {
	loc := NewLocation("/")
	for i := 0; i < 5000; i++ {
		loc.Navigate("/auth")
	}
	loc.Navigate("/profile")

	pending := loc.Pending()
	assert.Len(t, pending, pendingLimit)
	assert.Equal(t, "/profile", pending[len(pending)-1])
	assert.Equal(t, "/profile", loc.Current())
	assert.Empty(t, loc.Pending())
}

func TestSurfacesFromConfig(t *testing.T) {
	s := SurfacesFromConfig(config.NavigationConfig{
		LoginPath: "/login", ProfilePath: "/me", AdminPath: "/admin", HomePath: "/home",
	})
	assert.Equal(t, Surfaces{Login: "/login", Profile: "/me", Admin: "/admin", Home: "/home"}, s)
	assert.Equal(t, "/auth", DefaultSurfaces().Login)
}
