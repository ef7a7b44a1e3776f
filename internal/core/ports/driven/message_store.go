package driven

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// MessageStore is the durable, unbounded conversation history (PostgreSQL)
type MessageStore interface {
	// Insert appends one message
	Insert(ctx context.Context, msg *domain.StoredMessage) error

	// ListBySession returns up to limit messages ordered by creation time.
	// limit <= 0 returns all messages.
	ListBySession(ctx context.Context, sessionID string, limit int, order domain.SortOrder) ([]*domain.StoredMessage, error)

	// FirstUserMessage returns the oldest user message of a session.
	// Returns domain.ErrNotFound when the session has none.
	FirstUserMessage(ctx context.Context, sessionID string) (*domain.StoredMessage, error)

	// DeleteBySession removes every message of a session
	DeleteBySession(ctx context.Context, sessionID string) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error
}

// ChatSessionStore persists user-visible chat session records (PostgreSQL)
type ChatSessionStore interface {
	// Create stores a new session
	Create(ctx context.Context, session *domain.ChatSession) error

	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*domain.ChatSession, error)

	// ListByUser returns a user's sessions, most recently updated first
	ListByUser(ctx context.Context, userID string) ([]*domain.ChatSession, error)

	// UpdateTitle sets the title and bumps updated_at
	UpdateTitle(ctx context.Context, id, title string) error

	// Touch bumps updated_at; unknown sessions are ignored
	Touch(ctx context.Context, id string) error

	// Delete removes a session record
	Delete(ctx context.Context, id string) error
}
