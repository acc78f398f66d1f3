package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/authportal/internal/domain"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

type fakeDirectoryAPI struct {
	users   []domain.User
	calls   []string
	listErr error
}

func (f *fakeDirectoryAPI) ListUsers(context.Context) ([]domain.User, error) {
	f.calls = append(f.calls, "list")
	return f.users, f.listErr
}

func (f *fakeDirectoryAPI) UpdateUser(_ context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	f.calls = append(f.calls, "update")
	for _, u := range f.users {
		if u.ID == id {
			if update.Email != nil {
				u.Email = *update.Email
			}
			return &u, nil
		}
	}
	return nil, apperrors.NewRequestFailed(404, "user not found")
}

func (f *fakeDirectoryAPI) DeleteUser(context.Context, int64) error {
	f.calls = append(f.calls, "delete")
	return nil
}

type staticPrivilege bool

func (p staticPrivilege) IsPrivileged(context.Context) bool { return bool(p) }

func sampleUsers() []domain.User {
	return []domain.User{
		{ID: 1, Username: "admin", Email: "admin@x.com", Roles: []string{domain.RoleUser, domain.RoleAdmin}},
		{ID: 2, Username: "alice", Email: "a@x.com", Roles: []string{domain.RoleUser}},
		{ID: 3, Username: "bob", Email: "b@x.com", Roles: []string{domain.RoleUser, domain.RoleModerator}},
	}
}

func TestDirectoryLoadComputesStats(t *testing.T) {
	api := &fakeDirectoryAPI{users: sampleUsers()}
	svc := NewDirectoryService(api, staticPrivilege(true), domain.RoleAdmin, nil)

	dir, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, dir.Users, 3)
	assert.Equal(t, DirectoryStats{Total: 3, Admins: 1, Regular: 2}, dir.Stats)
}

func TestDirectoryRefusesUnprivilegedLocally(t *testing.T) {
	api := &fakeDirectoryAPI{users: sampleUsers()}
	svc := NewDirectoryService(api, staticPrivilege(false), domain.RoleAdmin, nil)
	email := "x@x.com"

	_, err := svc.Load(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	_, err = svc.UpdateUser(context.Background(), 2, domain.UserUpdate{Email: &email})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.True(t, errors.Is(svc.DeleteUser(context.Background(), 2), apperrors.ErrForbidden))

	assert.Empty(t, api.calls)
}

func TestDirectoryLoadPropagatesBackendFailure(t *testing.T) {
	api := &fakeDirectoryAPI{listErr: apperrors.NewRequestFailed(500, "boom")}
	svc := NewDirectoryService(api, staticPrivilege(true), domain.RoleAdmin, nil)

	_, err := svc.Load(context.Background())
	assert.Equal(t, "boom", err.Error())
}

func TestDirectoryReconcile(t *testing.T) {
	api := &fakeDirectoryAPI{users: sampleUsers()}
	svc := NewDirectoryService(api, staticPrivilege(true), domain.RoleAdmin, nil)
	dir, err := svc.Load(context.Background())
	require.NoError(t, err)

	email := "alice@x.com"
	updated, err := svc.UpdateUser(context.Background(), 2, domain.UserUpdate{Email: &email})
	require.NoError(t, err)
	assert.True(t, dir.Replace(*updated))
	assert.Equal(t, "alice@x.com", dir.Users[1].Email)
	assert.Equal(t, "a@x.com", api.users[1].Email, "directory keeps its own copy")

	require.NoError(t, svc.DeleteUser(context.Background(), 1))
	assert.True(t, dir.Remove(1))
	assert.Equal(t, DirectoryStats{Total: 2, Admins: 0, Regular: 2}, dir.Stats)

	assert.False(t, dir.Remove(1))
	assert.False(t, dir.Replace(domain.User{ID: 42}))
	assert.Equal(t, []string{"list", "update", "delete"}, api.calls)
}

func TestDirectoryUpdateRequiresChanges(t *testing.T) {
	api := &fakeDirectoryAPI{users: sampleUsers()}
	svc := NewDirectoryService(api, staticPrivilege(true), domain.RoleAdmin, nil)

	_, err := svc.UpdateUser(context.Background(), 2, domain.UserUpdate{})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
	assert.Empty(t, api.calls)
}

func TestNewDirectoryEmpty(t *testing.T) {
	dir := NewDirectory(nil, domain.RoleAdmin)
	assert.NotNil(t, dir.Users)
	assert.Equal(t, DirectoryStats{}, dir.Stats)
}

func TestDirectoryReconcilesEditsWithoutRelisting(t *testing.T) {
	api := &fakeDirectoryAPI{users: sampleUsers()}
	svc := NewDirectoryService(api, staticPrivilege(true), domain.RoleAdmin, nil)
	ctx := context.Background()
	email := "alice@corp.com"

	_, err := svc.Load(ctx)
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, 2, domain.UserUpdate{Email: &email})
	require.NoError(t, err)
	dir, err := svc.Reconciled(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@corp.com", dir.Users[1].Email)
	assert.Equal(t, DirectoryStats{Total: 3, Admins: 1, Regular: 2}, dir.Stats)

	require.NoError(t, svc.DeleteUser(ctx, 1))
	dir, err = svc.Reconciled(ctx)
	require.NoError(t, err)
	assert.Len(t, dir.Users, 2)
	assert.Equal(t, DirectoryStats{Total: 2, Admins: 0, Regular: 2}, dir.Stats)

	assert.Equal(t, []string{"list", "update", "delete"}, api.calls)
}

func TestDirectoryReconciledLoadsWhenNothingHeld(t *testing.T) {
	api := &fakeDirectoryAPI{users: sampleUsers()}
	svc := NewDirectoryService(api, staticPrivilege(true), domain.RoleAdmin, nil)

	dir, err := svc.Reconciled(context.Background())
	require.NoError(t, err)
	assert.Len(t, dir.Users, 3)
	assert.Equal(t, []string{"list"}, api.calls)

	dir.Users[0].Username = "mutated"
	again, err := svc.Reconciled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", again.Users[0].Username, "callers get a copy")
}

func TestDirectoryReconciledRefusesUnprivileged(t *testing.T) {
	api := &fakeDirectoryAPI{users: sampleUsers()}
	svc := NewDirectoryService(api, staticPrivilege(false), domain.RoleAdmin, nil)

	_, err := svc.Reconciled(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.Empty(t, api.calls)
}
