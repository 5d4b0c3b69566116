package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter  EventType = "state_enter"
	EventOffRoute    EventType = "off_route"
	EventBackendCall EventType = "backend_call"
)

// Backend call names reported in BackendEvent.Call.
const (
	CallMessage     = "message"
	CallMemoryStore = "memory_store"
	CallMemoryFetch = "memory_fetch"
	CallCarousel    = "carousel"
	CallRecommend   = "recommend"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StateEvent represents entry into a state.
type StateEvent struct {
	EventBase
	StateID string     `json:"state_id"`
	Action  ActionKind `json:"action,omitempty"`
}

// OffRouteEvent represents a classified detour.
type OffRouteEvent struct {
	EventBase
	StateID string `json:"state_id"`
	Trigger string `json:"trigger"`
	Count   int    `json:"count"`
}

// BackendEvent represents one backend call and its outcome.
type BackendEvent struct {
	EventBase
	Call     string        `json:"call"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStateEnter  func(context.Context, *StateEvent)
	OnOffRoute    func(context.Context, *OffRouteEvent)
	OnBackendCall func(context.Context, *BackendEvent)
}
