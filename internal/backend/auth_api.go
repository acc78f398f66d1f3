package backend

import (
	"context"
	"net/http"

	"github.com/spec-kit/authportal/internal/domain"
)

// SignIn posts credentials to /auth/signin.
func (c *Client) SignIn(ctx context.Context, req domain.SignInRequest) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signin", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignUp posts a registration to /auth/signup. The reply body is ignored.
func (c *Client) SignUp(ctx context.Context, req domain.SignUpRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/signup", req, nil)
}
