package domain

import (
	"context"

	"github.com/google/uuid"
)

// SessionStore loads and persists game sessions. Lookups miss with
// ErrNoActiveSession. Every load re-reads the store; the engine and
// the command handlers keep no authoritative state in memory.
type SessionStore interface {
	FindByCommunity(ctx context.Context, communityID string) (Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PlayerStore loads and persists players. User lookups miss with
// ErrNotAPlayer.
type PlayerStore interface {
	Find(ctx context.Context, id uuid.UUID) (Player, error)
	FindByUser(ctx context.Context, communityID, userRef string) (Player, error)
	FindByCommunity(ctx context.Context, communityID string) ([]Player, error)
	Save(ctx context.Context, sessionID uuid.UUID, player *Player) error
	Delete(ctx context.Context, id uuid.UUID) error
}
