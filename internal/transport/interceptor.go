package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/events"
	"github.com/spec-kit/authportal/internal/navigation"
	"github.com/spec-kit/authportal/internal/observability"
	"github.com/spec-kit/authportal/internal/session"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// SessionSource is what the interceptor needs from the session store.
type SessionSource interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
	CompareAndClear(ctx context.Context, gen uint64) (bool, error)
}

// Dependencies bundles the collaborators of an Interceptor.
type Dependencies struct {
	Sessions   SessionSource
	Navigator  navigation.Navigator
	LoginPath  string
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// Interceptor wraps every backend call: it attaches the session credential on
// the way out and turns a 401 on the way back into a logout plus a forced
// navigation to the login surface.
type Interceptor struct {
	next       http.RoundTripper
	sessions   SessionSource
	navigator  navigation.Navigator
	loginPath  string
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewInterceptor wraps next; a nil next uses http.DefaultTransport.
func NewInterceptor(next http.RoundTripper, deps Dependencies) *Interceptor {
	if next == nil {
		next = http.DefaultTransport
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = events.Noop{}
	}
	if deps.LoginPath == "" {
		deps.LoginPath = navigation.DefaultSurfaces().Login
	}
	return &Interceptor{
		next:       next,
		sessions:   deps.Sessions,
		navigator:  deps.Navigator,
		loginPath:  deps.LoginPath,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// RoundTrip implements http.RoundTripper.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	snap := i.outboundSnapshot(ctx)

	out := req.Clone(ctx)
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if out.Header.Get("Accept") == "" {
		out.Header.Set("Accept", "application/json")
	}
	if out.Body != nil && out.Body != http.NoBody && out.Header.Get("Content-Type") == "" {
		out.Header.Set("Content-Type", "application/json")
	}
	if snap.Authenticated() {
		out.Header.Set("Authorization", snap.Record.AuthorizationHeader())
	}

	start := time.Now()
	resp, err := i.next.RoundTrip(out)
	if err != nil {
		i.metrics.RecordError(req.URL.Path, req.Method, "TRANSPORT_FAILED")
		i.logger.Debug("backend request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return nil, err
	}
	i.metrics.RecordRequest(req.URL.Path, req.Method, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		i.handleRejection(ctx, req, snap)
	}
	return resp, nil
}

func (i *Interceptor) outboundSnapshot(ctx context.Context) session.Snapshot {
	if i.sessions == nil {
		return session.Snapshot{}
	}
	snap, err := i.sessions.Snapshot(ctx)
	if err != nil {
		i.logger.Warn("session unreadable; sending request without credentials", zap.Error(err))
		return session.Snapshot{Generation: snap.Generation}
	}
	return snap
}

// handleRejection runs before the response reaches the caller, so any error
// handler already observes the logged-out store.
func (i *Interceptor) handleRejection(ctx context.Context, req *http.Request, snap session.Snapshot) {
	if i.sessions != nil {
		cleared, err := i.sessions.CompareAndClear(ctx, snap.Generation)
		if err != nil {
			i.logger.Error("failed to clear rejected session", zap.Error(err))
		}
		if err == nil && !cleared {
			i.metrics.RecordRejection(true)
			i.logger.Debug("ignoring 401 for a superseded session",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Uint64("generation", snap.Generation))
			return
		}
	}
	i.metrics.RecordRejection(false)

	var userID int64
	var username string
	if snap.Record != nil {
		userID, username = snap.Record.UserID, snap.Record.Username
	}
	i.logger.Info("session rejected by backend",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int64("user_id", userID))

	if i.navigator != nil {
		i.navigator.Navigate(i.loginPath)
	}
	event := events.NewEvent(events.EventSessionRejected, userID, username, events.SessionRejectedPayload{
		Method:   req.Method,
		Path:     req.URL.Path,
		Redirect: i.loginPath,
	})
	if err := i.dispatcher.Publish(ctx, event); err != nil {
		i.logger.Warn("session rejected handlers failed", zap.Error(err))
	}
}
