package domain

// Role labels issued by the backend.
const (
	RoleUser      = "ROLE_USER"
	RoleModerator = "ROLE_MODERATOR"
	RoleAdmin     = "ROLE_ADMIN"
)

// SignInRequest is the body of POST /auth/signin.
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignUpRequest is the body of POST /auth/signup. Roles are a client claim the
// backend is free to ignore.
type SignUpRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// AuthResponse is the sign-in reply.
type AuthResponse struct {
	Token    string   `json:"token"`
	Type     string   `json:"type"`
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// ErrorEnvelope is the error body every backend failure carries.
type ErrorEnvelope struct {
	Message string `json:"message"`
}

// RegistrationForm is what the registration surface collects.
type RegistrationForm struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}
