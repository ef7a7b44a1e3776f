package driven

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// SessionContextStore holds the bounded, expiring window of recent turns per session (Redis).
type SessionContextStore interface {
	// Append adds a turn to the window, trims it to the configured maximum
	// and refreshes the TTL, all in one round trip.
	Append(ctx context.Context, sessionID string, turn domain.ConversationTurn) error

	// Window returns the current turns, oldest first.
	// A missing or expired session yields an empty slice and no error.
	Window(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)

	// Clear drops the session's window
	Clear(ctx context.Context, sessionID string) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error
}
