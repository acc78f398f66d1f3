package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/config"
	"github.com/spec-kit/authportal/internal/domain"
	"github.com/spec-kit/authportal/internal/events"
	"github.com/spec-kit/authportal/internal/session"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

// AuthAPI is the sign-in/sign-up part of the backend.
type AuthAPI interface {
	SignIn(ctx context.Context, req domain.SignInRequest) (*domain.AuthResponse, error)
	SignUp(ctx context.Context, req domain.SignUpRequest) error
}

// ProfileAPI reads and updates the logged-in user's own record.
type ProfileAPI interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error)
}

// SessionService drives login, registration and logout against the backend
// and is the only writer of the session store besides the interceptor.
type SessionService struct {
	store      *session.Store
	auth       AuthAPI
	profiles   ProfileAPI
	dispatcher events.Dispatcher
	logger     *zap.Logger
	adminRole  string
	signupRole string
}

// SessionDependencies encapsulates collaborators of the session service.
type SessionDependencies struct {
	Store      *session.Store
	Auth       AuthAPI
	Profiles   ProfileAPI
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(cfg config.AuthConfig, deps SessionDependencies) *SessionService {
	if deps.Dispatcher == nil {
		deps.Dispatcher = events.Noop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	adminRole := cfg.AdminRole
	if adminRole == "" {
		adminRole = domain.RoleAdmin
	}
	signupRole := cfg.DefaultSignupRole
	if signupRole == "" {
		signupRole = "user"
	}
	return &SessionService{
		store:      deps.Store,
		auth:       deps.Auth,
		profiles:   deps.Profiles,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		adminRole:  adminRole,
		signupRole: signupRole,
	}
}

// Login exchanges credentials for a session and stores it. Storage is left
// alone on any failure.
func (s *SessionService) Login(ctx context.Context, username, password string) (*domain.SessionRecord, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, apperrors.NewValidationError("username and password are required", nil)
	}

	resp, err := s.auth.SignIn(ctx, domain.SignInRequest{Username: username, Password: password})
	if err != nil {
		return nil, signInError(err)
	}

	rec := domain.SessionFromAuth(*resp)
	if err := rec.Validate(); err != nil {
		s.logger.Error("sign-in response is not a usable session", zap.String("username", username), zap.Error(err))
		return nil, apperrors.NewDomainError(apperrors.CodeRequestFailed, "sign-in response is incomplete", http.StatusBadGateway, nil)
	}
	if err := s.store.Write(ctx, rec); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("session started", zap.Int64("user_id", rec.UserID), zap.Strings("roles", rec.Roles))
	s.publish(ctx, events.NewEvent(events.EventSessionStarted, rec.UserID, rec.Username,
		events.SessionStartedPayload{Roles: rec.Roles}))
	return rec.Clone(), nil
}

// signInError turns a 400/401 from the sign-in endpoint into
// INVALID_CREDENTIALS carrying the server message. Anything else is returned
// as is.
func signInError(err error) error {
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		return err
	}
	rejected := domainErr.Code == apperrors.CodeSessionRejected ||
		(domainErr.Code == apperrors.CodeRequestFailed && domainErr.HTTPStatus == http.StatusBadRequest)
	if !rejected {
		return err
	}
	message := domainErr.Message
	if message == "" {
		message = "invalid username or password"
	}
	return &apperrors.DomainError{
		Code:       apperrors.CodeInvalidCredentials,
		Message:    message,
		HTTPStatus: domainErr.HTTPStatus,
	}
}

// Register creates a backend account. It never logs the user in.
func (s *SessionService) Register(ctx context.Context, username, email, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return apperrors.NewValidationError("username, email and password are required", nil)
	}
	err := s.auth.SignUp(ctx, domain.SignUpRequest{
		Username: username,
		Email:    email,
		Password: password,
		Roles:    []string{s.signupRole},
	})
	if err != nil {
		return err
	}
	s.logger.Info("account registered", zap.String("username", username))
	return nil
}

// ValidateRegistration runs the checks the registration surface performs
// before anything is sent.
func (s *SessionService) ValidateRegistration(form domain.RegistrationForm) error {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(form.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(form.Email) == "" {
		missing = append(missing, "email")
	}
	if form.Password == "" {
		missing = append(missing, "password")
	}
	if form.ConfirmPassword == "" {
		missing = append(missing, "confirmPassword")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("all fields are required", map[string]any{"missing": missing})
	}
	if form.Password != form.ConfirmPassword {
		return apperrors.NewValidationError("passwords do not match", nil)
	}
	return nil
}

// Logout drops the local session. The backend is not told.
func (s *SessionService) Logout(ctx context.Context) error {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("session unreadable during logout", zap.Error(err))
	}
	if err := s.store.Clear(ctx); err != nil {
		return apperrors.NewInternalError(err)
	}
	if snap.Record != nil {
		s.logger.Info("session ended", zap.Int64("user_id", snap.Record.UserID))
		s.publish(ctx, events.NewEvent(events.EventSessionEnded, snap.Record.UserID, snap.Record.Username, nil))
	}
	return nil
}

// CurrentSession returns the stored record or nil. Unreadable and malformed
// sessions count as logged out.
func (s *SessionService) CurrentSession(ctx context.Context) *domain.SessionRecord {
	rec, err := s.store.Read(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrMalformedSession) {
			s.logger.Warn("session unreadable; treating as logged out", zap.Error(err))
		}
		return nil
	}
	return rec
}

// IsPrivileged reports whether the current session holds the admin role.
func (s *SessionService) IsPrivileged(ctx context.Context) bool {
	return s.CurrentSession(ctx).HasRole(s.adminRole)
}

// AdminRole returns the role label that grants privilege.
func (s *SessionService) AdminRole() string {
	return s.adminRole
}

// UpdateProfile saves username/email on the backend and merges the result into
// the stored session. The merge is skipped with a CONFLICT error when the
// session was replaced or cleared while the request was in flight.
func (s *SessionService) UpdateProfile(ctx context.Context, update domain.UserUpdate) (*domain.SessionRecord, error) {
	if update.Empty() {
		return nil, apperrors.NewValidationError("nothing to update", nil)
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !snap.Authenticated() {
		return nil, apperrors.NewUnauthorized("no active session")
	}
	current := snap.Record

	user, err := s.profiles.UpdateUser(ctx, current.UserID, update)
	if err != nil {
		return nil, err
	}

	// A reply that omits a field keeps what was submitted.
	merged := current.Clone()
	merged.Username = firstNonEmpty(user.Username, update.Username, current.Username)
	merged.Email = firstNonEmpty(user.Email, update.Email, current.Email)

	written, err := s.store.CompareAndWrite(ctx, snap.Generation, merged)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !written {
		s.logger.Info("session changed during profile update; not merging", zap.Int64("user_id", current.UserID))
		return nil, apperrors.NewConflict("session changed while the profile was being saved", nil)
	}

	s.publish(ctx, events.NewEvent(events.EventProfileUpdated, merged.UserID, merged.Username, events.ProfileUpdatedPayload{
		OldUsername: current.Username,
		NewUsername: merged.Username,
		OldEmail:    current.Email,
		NewEmail:    merged.Email,
	}))
	return merged, nil
}

// RefreshProfile re-reads the logged-in user from the backend and folds any
// username or email change into the stored session. The stored record is
// returned unchanged when the backend already agrees with it.
func (s *SessionService) RefreshProfile(ctx context.Context) (*domain.SessionRecord, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !snap.Authenticated() {
		return nil, apperrors.NewUnauthorized("no active session")
	}
	current := snap.Record

	user, err := s.profiles.GetUser(ctx, current.UserID)
	if err != nil {
		return nil, err
	}

	merged := current.Clone()
	merged.Username = firstNonEmpty(user.Username, nil, current.Username)
	merged.Email = firstNonEmpty(user.Email, nil, current.Email)
	if merged.Username == current.Username && merged.Email == current.Email {
		return current, nil
	}

	written, err := s.store.CompareAndWrite(ctx, snap.Generation, merged)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !written {
		return nil, apperrors.NewConflict("session changed while the profile was being loaded", nil)
	}
	s.logger.Info("session refreshed from backend profile", zap.Int64("user_id", merged.UserID))
	return merged, nil
}

func firstNonEmpty(returned string, submitted *string, fallback string) string {
	if returned != "" {
		return returned
	}
	if submitted != nil && *submitted != "" {
		return *submitted
	}
	return fallback
}

func (s *SessionService) publish(ctx context.Context, event events.Event) {
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("session event handlers failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
