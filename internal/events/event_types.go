package events

import (
	"time"

	"github.com/spec-kit/restaurant-console/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIdentityResolved      EventType = "identity_resolved"
	EventIdentityUnprovisioned EventType = "identity_unprovisioned"
	EventIdentityLookupFailed  EventType = "identity_lookup_failed"
	EventSignedOut             EventType = "signed_out"
)

// Event describes one identity transition.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	UID        string      `json:"uid"`
	Role       domain.Role `json:"role"`
	Generation uint64      `json:"generation"`
	Origin     string      `json:"origin,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload,omitempty"`
}

// IdentityPayload carries the resolved identity for resolution events.
type IdentityPayload struct {
	Identity *domain.ResolvedIdentity `json:"identity,omitempty"`
	Error    string                   `json:"error,omitempty"`
}
