package domain

import "slices"

// User is a backend user record as listed by the admin directory.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the user carries the role label.
func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// UserUpdate is a partial profile edit. Nil fields are left unchanged.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil
}
