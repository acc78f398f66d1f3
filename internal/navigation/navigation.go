package navigation

import (
	"sync"

	"github.com/spec-kit/authportal/internal/config"
)

// Surfaces names the navigation targets the guard and interceptor redirect to.
type Surfaces struct {
	Login   string
	Profile string
	Admin   string
	Home    string
}

// DefaultSurfaces matches the routes of the web client.
func DefaultSurfaces() Surfaces {
	return Surfaces{Login: "/auth", Profile: "/profile", Admin: "/admin", Home: "/"}
}

// SurfacesFromConfig reads the surfaces from configuration.
func SurfacesFromConfig(cfg config.NavigationConfig) Surfaces {
	return Surfaces{
		Login:   cfg.LoginPath,
		Profile: cfg.ProfilePath,
		Admin:   cfg.AdminPath,
		Home:    cfg.HomePath,
	}
}

// Navigator performs a full navigation: in-memory view state is discarded and
// the application restarts at target.
type Navigator interface {
	Navigate(target string)
}

// pendingLimit bounds the queue of forced navigations not yet acted on.
const pendingLimit = 32

// Location tracks where the application currently is. It is the process-wide
// equivalent of the browser location. Forced navigations queue up until the
// portal drains them with Pending.
type Location struct {
	mu      sync.Mutex
	current string
	pending []string
}

// NewLocation starts at the given path.
func NewLocation(start string) *Location {
	return &Location{current: start}
}

// Navigate implements Navigator.
func (l *Location) Navigate(target string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, target)
	if over := len(l.pending) - pendingLimit; over > 0 {
		l.pending = append(l.pending[:0], l.pending[over:]...)
	}
	l.current = target
}

// Current returns the last navigation target.
func (l *Location) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Pending returns and resets the forced navigations not yet acted on, oldest
// first.
func (l *Location) Pending() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.pending
	l.pending = nil
	return out
}
