package domain

import (
	"errors"
	"slices"
	"strings"
)

// DefaultTokenType is used when the backend omits the credential scheme.
const DefaultTokenType = "Bearer"

// SessionRecord is the persisted proof of authentication. It is stored and
// replaced as a whole; the JSON shape mirrors the sign-in response.
type SessionRecord struct {
	Token     string   `json:"token"`
	TokenType string   `json:"type"`
	UserID    int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
}

// Validate reports whether the record can represent an authenticated session.
func (r *SessionRecord) Validate() error {
	if r == nil {
		return errors.New("session record is nil")
	}
	if strings.TrimSpace(r.Token) == "" {
		return errors.New("session record has no token")
	}
	if len(r.Roles) == 0 {
		return errors.New("session record has no roles")
	}
	return nil
}

// AuthorizationHeader renders the scheme-qualified credential.
func (r *SessionRecord) AuthorizationHeader() string {
	scheme := r.TokenType
	if strings.TrimSpace(scheme) == "" {
		scheme = DefaultTokenType
	}
	return scheme + " " + r.Token
}

// HasRole reports whether the record carries the role label.
func (r *SessionRecord) HasRole(role string) bool {
	if r == nil {
		return false
	}
	return slices.Contains(r.Roles, role)
}

// Clone returns a deep copy so callers can merge fields without touching the
// stored value.
func (r *SessionRecord) Clone() *SessionRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Roles = slices.Clone(r.Roles)
	return &out
}

// SessionFromAuth builds a record from a sign-in response.
func SessionFromAuth(resp AuthResponse) *SessionRecord {
	return &SessionRecord{
		Token:     resp.Token,
		TokenType: resp.Type,
		UserID:    resp.ID,
		Username:  resp.Username,
		Email:     resp.Email,
		Roles:     slices.Clone(resp.Roles),
	}
}
