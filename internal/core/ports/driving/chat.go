package driving

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// ChatService answers questions over a session's documents and history
type ChatService interface {
	// Chat records the user turn, retrieves context and starts streaming the answer.
	// Errors returned here happen before any fragment is produced.
	Chat(ctx context.Context, req ChatRequest) (AnswerStream, error)
}

// ChatRequest is one user question
type ChatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// AnswerStream is the handle of one in-flight answer.
// Fragments must be drained by exactly one reader until closed.
type AnswerStream interface {
	// Fragments delivers generated text; closed after the terminal state is reached
	Fragments() <-chan domain.Fragment

	// State returns the current stream state
	State() domain.StreamState

	// Wait blocks until the stream is terminal and returns the failure cause, if any
	Wait() error
}

// ChatSessionService manages user-visible chat sessions
type ChatSessionService interface {
	// Create starts a session; an empty title becomes domain.DefaultSessionTitle
	Create(ctx context.Context, userID, title string) (*domain.ChatSession, error)

	// List returns a user's sessions, most recently updated first
	List(ctx context.Context, userID string) ([]*domain.ChatSession, error)

	// Messages returns up to limit durable messages, oldest first
	Messages(ctx context.Context, sessionID string, limit int) ([]*domain.StoredMessage, error)

	// RecentHistory returns the latest durable turns in chronological order
	RecentHistory(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error)

	// UpdateTitle renames a session
	UpdateTitle(ctx context.Context, sessionID, title string) (*domain.ChatSession, error)

	// Delete removes a session, its messages and its window
	Delete(ctx context.Context, sessionID string) error

	// GenerateTitle names a session from its first user message
	GenerateTitle(ctx context.Context, sessionID string) (*domain.ChatSession, error)
}
