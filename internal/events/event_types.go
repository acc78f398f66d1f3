package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionStarted  EventType = "session_started"
	EventSessionEnded    EventType = "session_ended"
	EventSessionRejected EventType = "session_rejected"
	EventProfileUpdated  EventType = "profile_updated"
)

// Event represents a session lifecycle event.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id,omitempty"`
	Username  string      `json:"username,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType EventType, userID int64, username string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// SessionStartedPayload payload.
type SessionStartedPayload struct {
	Roles []string `json:"roles"`
}

// SessionRejectedPayload payload.
type SessionRejectedPayload struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Redirect string `json:"redirect"`
}

// ProfileUpdatedPayload payload.
type ProfileUpdatedPayload struct {
	OldUsername string `json:"old_username"`
	NewUsername string `json:"new_username"`
	OldEmail    string `json:"old_email"`
	NewEmail    string `json:"new_email"`
}
