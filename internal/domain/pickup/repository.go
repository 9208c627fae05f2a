package pickup

import (
	"context"

	"github.com/google/uuid"
)

// SessionRepository defines the persistence contract for resolution sessions.
// Sessions are ephemeral: stores are expected to expire them after a
// configured TTL.
type SessionRepository interface {
	// FindByID retrieves a session by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*ResolutionSession, error)

	// Save persists a new session.
	Save(ctx context.Context, session *ResolutionSession) error

	// Update persists changes to an existing session with optimistic locking.
	Update(ctx context.Context, session *ResolutionSession) error

	// Delete removes a session.
	Delete(ctx context.Context, id uuid.UUID) error
}
