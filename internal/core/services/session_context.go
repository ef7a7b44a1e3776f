package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// SessionContext combines the bounded session window with durable history.
// Neither store's failure reaches the caller.
type SessionContext struct {
	window   driven.SessionContextStore
	messages driven.MessageStore
	sessions driven.ChatSessionStore
	logger   *slog.Logger
}

// NewSessionContext creates a SessionContext. sessions may be nil.
func NewSessionContext(
	window driven.SessionContextStore,
	messages driven.MessageStore,
	sessions driven.ChatSessionStore,
	logger *slog.Logger,
) *SessionContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionContext{
		window:   window,
		messages: messages,
		sessions: sessions,
		logger:   logger.With("component", "session_context"),
	}
}

// Append records a turn in durable history and in the session window.
func (c *SessionContext) Append(ctx context.Context, userID, sessionID string, role domain.Role, content string) {
	turn := domain.NewTurn(role, content)

	err := c.messages.Insert(ctx, &domain.StoredMessage{
		ID:        domain.GenerateID(),
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: turn.Timestamp,
	})
	if err != nil {
		c.logger.Warn("durability warning: message not persisted",
			"session_id", sessionID, "role", role, "error", err)
	}

	if c.sessions != nil {
		if err := c.sessions.Touch(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("failed to touch session", "session_id", sessionID, "error", err)
		}
	}

	if err := c.window.Append(ctx, sessionID, turn); err != nil {
		c.logger.Warn("session window append failed", "session_id", sessionID, "error", err)
	}
}

// Window returns the bounded view, oldest first. Empty when the store is unreachable.
func (c *SessionContext) Window(ctx context.Context, sessionID string) []domain.ConversationTurn {
	turns, err := c.window.Window(ctx, sessionID)
	if err != nil {
		c.logger.Warn("session window unavailable", "session_id", sessionID, "error", err)
		return []domain.ConversationTurn{}
	}
	return turns
}

// Clear drops the session window.
func (c *SessionContext) Clear(ctx context.Context, sessionID string) {
	if err := c.window.Clear(ctx, sessionID); err != nil {
		c.logger.Warn("failed to clear session window", "session_id", sessionID, "error", err)
	}
}

// RecentHistory returns up to limit durable turns in chronological order.
func (c *SessionContext) RecentHistory(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	msgs, err := c.messages.ListBySession(ctx, sessionID, limit, domain.SortDesc)
	if err != nil {
		return nil, err
	}
	turns := make([]domain.ConversationTurn, len(msgs))
	for i, m := range msgs {
		turns[len(msgs)-1-i] = m.Turn()
	}
	return turns, nil
}

