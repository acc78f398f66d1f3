package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/events"
)

const auditTrailSize = 64

// SessionAudit logs session lifecycle events and keeps the most recent ones.
type SessionAudit struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu     sync.Mutex
	recent []events.Event
}

// NewSessionAudit creates the audit subscriber.
func NewSessionAudit(dispatcher events.Dispatcher, logger *zap.Logger) *SessionAudit {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionAudit{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *SessionAudit) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventSessionStarted, a.handle)
	a.dispatcher.Subscribe(events.EventSessionEnded, a.handle)
	a.dispatcher.Subscribe(events.EventSessionRejected, a.handleRejected)
	a.dispatcher.Subscribe(events.EventProfileUpdated, a.handle)
}

func (a *SessionAudit) handle(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Int64("user_id", event.UserID),
		zap.String("username", event.Username),
		zap.Any("payload", event.Payload))
	a.remember(event)
	return nil
}

func (a *SessionAudit) handleRejected(_ context.Context, event events.Event) error {
	a.logger.Warn(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Int64("user_id", event.UserID),
		zap.Any("payload", event.Payload))
	a.remember(event)
	return nil
}

func (a *SessionAudit) remember(event events.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recent = append(a.recent, event)
	if len(a.recent) > auditTrailSize {
		a.recent = a.recent[len(a.recent)-auditTrailSize:]
	}
}

// Recent returns the retained events, oldest first.
func (a *SessionAudit) Recent() []events.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]events.Event(nil), a.recent...)
}
