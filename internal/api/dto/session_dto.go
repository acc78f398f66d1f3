package dto

import "github.com/spec-kit/authportal/internal/domain"

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfileUpdateRequest is the body of PUT /profile and PUT /admin/users/:id.
type ProfileUpdateRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// Update converts the request into a domain update.
func (r ProfileUpdateRequest) Update() domain.UserUpdate {
	return domain.UserUpdate{Username: r.Username, Email: r.Email}
}

// SessionView is what the portal shows of a session. The token stays local.
type SessionView struct {
	ID         int64    `json:"id"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
	Privileged bool     `json:"privileged"`
}

// NewSessionView renders rec.
func NewSessionView(rec *domain.SessionRecord, adminRole string) SessionView {
	return SessionView{
		ID:         rec.UserID,
		Username:   rec.Username,
		Email:      rec.Email,
		Roles:      append([]string(nil), rec.Roles...),
		Privileged: rec.HasRole(adminRole),
	}
}

// AuthPageResponse is returned by GET /auth.
type AuthPageResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *SessionView `json:"user,omitempty"`
}
