package devbackend

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/authportal/internal/domain"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

// AccountService coordinates registration, sign-in and user management.
type AccountService struct {
	users      UserRepository
	tokenMgr   *TokenManager
	bcryptCost int
}

// NewAccountService builds the service.
func NewAccountService(users UserRepository, tokens *TokenManager, bcryptCost int) *AccountService {
	return &AccountService{users: users, tokenMgr: tokens, bcryptCost: bcryptCost}
}

// SeedAdmin creates the administrator account when it does not exist yet.
func (s *AccountService) SeedAdmin(ctx context.Context, username, email, password string) error {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil || exists {
		return err
	}
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.Create(ctx, &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{domain.RoleUser, domain.RoleAdmin},
	})
}

// Register creates a new account. Requested roles are ignored: every
// self-registered account gets ROLE_USER.
func (s *AccountService) Register(ctx context.Context, req domain.SignUpRequest) (*User, error) {
	if err := validateSignUp(req); err != nil {
		return nil, err
	}
	if exists, err := s.users.ExistsByUsername(ctx, req.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.NewValidationError("username is already taken", nil)
	}
	if exists, err := s.users.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.NewValidationError("email is already in use", nil)
	}

	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Roles:        []string{domain.RoleUser},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user and issues a token.
func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.AuthResponse, error) {
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("username and password required", nil)
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.NewUnauthorized("invalid username or password")
		}
		return nil, err
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid username or password")
	}
	token, _, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponse{
		Token:    token,
		Type:     domain.DefaultTokenType,
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    append([]string(nil), user.Roles...),
	}, nil
}

// Authenticate resolves a bearer token to a live account.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token subject")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns every account.
func (s *AccountService) ListUsers(ctx context.Context) ([]*User, error) {
	return s.users.List(ctx)
}

// GetUser returns one account.
func (s *AccountService) GetUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return user, err
}

// UpdateUser applies a partial profile update.
func (s *AccountService) UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Username != nil && *update.Username != user.Username {
		name := strings.TrimSpace(*update.Username)
		if err := validateUsername(name); err != nil {
			return nil, err
		}
		if exists, err := s.users.ExistsByUsername(ctx, name); err != nil {
			return nil, err
		} else if exists {
			return nil, apperrors.NewConflict("username is already taken", nil)
		}
		user.Username = name
	}
	if update.Email != nil && !strings.EqualFold(*update.Email, user.Email) {
		email := strings.TrimSpace(*update.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if exists, err := s.users.ExistsByEmail(ctx, email); err != nil {
			return nil, err
		} else if exists {
			return nil, apperrors.NewConflict("email is already in use", nil)
		}
		user.Email = email
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account.
func (s *AccountService) DeleteUser(ctx context.Context, id int64) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return err
}

// TokenManager exposes the underlying token manager.
func (s *AccountService) TokenManager() *TokenManager {
	return s.tokenMgr
}

func validateSignUp(req domain.SignUpRequest) error {
	if err := validateUsername(req.Username); err != nil {
		return err
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if n := utf8.RuneCountInString(req.Password); n < 6 || n > 40 {
		return apperrors.NewValidationError("password must be 6-40 characters", nil)
	}
	return nil
}

func validateUsername(name string) error {
	if n := utf8.RuneCountInString(name); n < 3 || n > 20 {
		return apperrors.NewValidationError("username must be 3-20 characters", nil)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.NewValidationError("email is invalid", nil)
	}
	return nil
}
