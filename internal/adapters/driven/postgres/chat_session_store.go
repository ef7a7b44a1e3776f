package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChatSessionStore = (*ChatSessionStore)(nil)

// ChatSessionStore implements driven.ChatSessionStore using PostgreSQL
type ChatSessionStore struct {
	db *DB
}

// NewChatSessionStore creates a new ChatSessionStore
func NewChatSessionStore(db *DB) *ChatSessionStore {
	return &ChatSessionStore{db: db}
}

// Create inserts a new chat session
func (s *ChatSessionStore) Create(ctx context.Context, session *domain.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.Title, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create chat session: %w", err)
	}
	return nil
}

// Get retrieves a chat session by ID
func (s *ChatSessionStore) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1
	`
	var session domain.ChatSession
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.Title, &session.CreatedAt, &session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat session: %w", err)
	}
	return &session, nil
}

// ListByUser returns a user's sessions, most recently active first
func (s *ChatSessionStore) ListByUser(ctx context.Context, userID string) ([]*domain.ChatSession, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.ChatSession
	for rows.Next() {
		var session domain.ChatSession
		if err := rows.Scan(
			&session.ID, &session.UserID, &session.Title, &session.CreatedAt, &session.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		sessions = append(sessions, &session)
	}
	return sessions, rows.Err()
}

// UpdateTitle renames a session
func (s *ChatSessionStore) UpdateTitle(ctx context.Context, id, title string) error {
	return s.exec(ctx, "UPDATE chat_sessions SET title = $2, updated_at = $3 WHERE id = $1",
		id, title, time.Now().UTC())
}

// Touch bumps updated_at so the session sorts first
func (s *ChatSessionStore) Touch(ctx context.Context, id string) error {
	return s.exec(ctx, "UPDATE chat_sessions SET updated_at = $2 WHERE id = $1", id, time.Now().UTC())
}

// Delete removes a session and its messages
func (s *ChatSessionStore) Delete(ctx context.Context, id string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = $1", id); err != nil {
			return fmt.Errorf("delete session messages: %w", err)
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete chat session: %w", err)
		}
		return requireRow(result)
	})
}

func (s *ChatSessionStore) exec(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update chat session: %w", err)
	}
	return requireRow(result)
}

// requireRow maps "no rows affected" to ErrNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
