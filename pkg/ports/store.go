package ports

import (
	"context"

	"github.com/aretw0/majbot/pkg/domain"
)

// SessionStore persists session snapshots, enabling "stop and resume" conversations.
type SessionStore interface {
	// Save persists the snapshot under its session ID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
