package events

import (
	"time"

	"github.com/spec-kit/clinic-admin/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoggedIn     EventType = "session.logged_in"
	EventLoggedOut    EventType = "session.logged_out"
	EventForcedLogout EventType = "session.forced_logout"
	EventAccessDenied EventType = "session.access_denied"
	EventRegistered   EventType = "session.registered"
	EventLocked       EventType = "session.locked"
	EventUnlocked     EventType = "session.unlocked"
)

// Actor identifies who the session belonged to, when known.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Email  string      `json:"email,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// ActorFrom builds an Actor from an identity; nil yields an empty actor.
func ActorFrom(identity *domain.Identity) Actor {
	if identity == nil {
		return Actor{}
	}
	return Actor{UserID: identity.ID, Email: identity.Email, Role: identity.Role}
}

// Event represents a session lifecycle event.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// ForcedLogoutPayload explains why a session was dropped.
type ForcedLogoutPayload struct {
	Reason string `json:"reason"`
}

// AccessDeniedPayload records a rejected sign-in.
type AccessDeniedPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// RegisteredPayload records an account created from the dashboard.
type RegisteredPayload struct {
	Role      domain.Role `json:"role"`
	Persisted bool        `json:"persisted"`
}
