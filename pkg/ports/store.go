package ports

import (
	"context"

	"github.com/aretw0/coach/pkg/domain"
)

// SessionStore persists live sessions for hosts that serve a turn per request.
// It is not durable visitor memory; that belongs to the backend.
type SessionStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the active sessions.
	List(ctx context.Context) ([]string, error)
}
