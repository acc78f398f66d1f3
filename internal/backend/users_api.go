package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spec-kit/authportal/internal/domain"
)

// ListUsers returns every user. The backend only allows privileged callers.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one user.
func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, userPath(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial update and returns the stored user.
func (c *Client) UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodPut, userPath(id), update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, userPath(id), nil, nil)
}

func userPath(id int64) string {
	return fmt.Sprintf("/users/%d", id)
}
