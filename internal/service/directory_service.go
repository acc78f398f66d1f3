package service

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/domain"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

// DirectoryAPI is the user-management part of the backend.
type DirectoryAPI interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// PrivilegeChecker reports whether the current session may administer users.
type PrivilegeChecker interface {
	IsPrivileged(ctx context.Context) bool
}

// DirectoryStats summarizes a user list.
type DirectoryStats struct {
	Total   int `json:"total"`
	Admins  int `json:"admins"`
	Regular int `json:"regular"`
}

// Directory is the admin view of all users.
type Directory struct {
	Users     []domain.User  `json:"users"`
	Stats     DirectoryStats `json:"stats"`
	adminRole string
}

// NewDirectory builds a directory over users and computes its stats.
func NewDirectory(users []domain.User, adminRole string) *Directory {
	d := &Directory{Users: slices.Clone(users), adminRole: adminRole}
	if d.Users == nil {
		d.Users = []domain.User{}
	}
	d.recount()
	return d
}

// Replace swaps in an updated user by id. It reports whether the user was listed.
func (d *Directory) Replace(user domain.User) bool {
	i := slices.IndexFunc(d.Users, func(u domain.User) bool { return u.ID == user.ID })
	if i < 0 {
		return false
	}
	d.Users[i] = user
	d.recount()
	return true
}

// Remove drops a user by id. It reports whether the user was listed.
func (d *Directory) Remove(id int64) bool {
	before := len(d.Users)
	d.Users = slices.DeleteFunc(d.Users, func(u domain.User) bool { return u.ID == id })
	if len(d.Users) == before {
		return false
	}
	d.recount()
	return true
}

func (d *Directory) clone() *Directory {
	return NewDirectory(d.Users, d.adminRole)
}

func (d *Directory) recount() {
	stats := DirectoryStats{Total: len(d.Users)}
	for _, u := range d.Users {
		if u.HasRole(d.adminRole) {
			stats.Admins++
		}
	}
	stats.Regular = stats.Total - stats.Admins
	d.Stats = stats
}

// DirectoryService backs the admin surface. Every call is refused locally when
// the current session is not privileged; the backend checks again.
//
// The last loaded directory is kept and edits made through the service are
// applied to it, so the admin surface can show the result without listing
// every user again.
type DirectoryService struct {
	api       DirectoryAPI
	sessions  PrivilegeChecker
	adminRole string
	logger    *zap.Logger

	mu      sync.Mutex
	current *Directory
}

// NewDirectoryService builds the service.
func NewDirectoryService(api DirectoryAPI, sessions PrivilegeChecker, adminRole string, logger *zap.Logger) *DirectoryService {
	if adminRole == "" {
		adminRole = domain.RoleAdmin
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{api: api, sessions: sessions, adminRole: adminRole, logger: logger}
}

// Load fetches every user.
func (s *DirectoryService) Load(ctx context.Context) (*Directory, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	users, err := s.api.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	dir := NewDirectory(users, s.adminRole)

	s.mu.Lock()
	s.current = dir.clone()
	s.mu.Unlock()
	return dir, nil
}

// Reconciled returns the last loaded directory with later edits applied. It
// loads the directory when none is held.
func (s *DirectoryService) Reconciled(ctx context.Context) (*Directory, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	var dir *Directory
	if s.current != nil {
		dir = s.current.clone()
	}
	s.mu.Unlock()
	if dir == nil {
		return s.Load(ctx)
	}
	return dir, nil
}

// UpdateUser edits another user's record.
func (s *DirectoryService) UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if update.Empty() {
		return nil, apperrors.NewValidationError("nothing to update", nil)
	}
	user, err := s.api.UpdateUser(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info("directory user updated", zap.Int64("user_id", id))

	s.mu.Lock()
	if s.current != nil && !s.current.Replace(*user) {
		// Listed before the user existed; reload on next use.
		s.current = nil
	}
	s.mu.Unlock()
	return user, nil
}

// DeleteUser removes a user.
func (s *DirectoryService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.authorize(ctx); err != nil {
		return err
	}
	if err := s.api.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("directory user deleted", zap.Int64("user_id", id))

	s.mu.Lock()
	if s.current != nil {
		s.current.Remove(id)
	}
	s.mu.Unlock()
	return nil
}

func (s *DirectoryService) authorize(ctx context.Context) error {
	if !s.sessions.IsPrivileged(ctx) {
		return apperrors.NewForbidden("administrator role required")
	}
	return nil
}
