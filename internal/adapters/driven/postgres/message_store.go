package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MessageStore = (*MessageStore)(nil)

// MessageStore implements driven.MessageStore using PostgreSQL.
// Rows are only ever inserted; the table is the durable chat history.
type MessageStore struct {
	db *DB
}

// NewMessageStore creates a new MessageStore
func NewMessageStore(db *DB) *MessageStore {
	return &MessageStore{db: db}
}

// Insert appends one message to the durable history.
func (s *MessageStore) Insert(ctx context.Context, msg *domain.StoredMessage) error {
	if msg.ID == "" {
		msg.ID = domain.GenerateID()
	}
	query := `
		INSERT INTO messages (id, user_id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.UserID, msg.SessionID, string(msg.Role), msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert message: %v", domain.ErrDurableStoreUnavailable, err)
	}
	return nil
}

// ListBySession returns up to limit messages of a session. A limit <= 0 returns all.
func (s *MessageStore) ListBySession(ctx context.Context, sessionID string, limit int, order domain.SortOrder) ([]*domain.StoredMessage, error) {
	direction := "ASC"
	if order == domain.SortDesc {
		direction = "DESC"
	}
	query := fmt.Sprintf(`
		SELECT id, user_id, session_id, role, content, created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at %[1]s, seq %[1]s
	`, direction)

	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", domain.ErrDurableStoreUnavailable, err)
	}
	defer rows.Close()

	var messages []*domain.StoredMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// FirstUserMessage returns the earliest user message of a session.
func (s *MessageStore) FirstUserMessage(ctx context.Context, sessionID string) (*domain.StoredMessage, error) {
	query := `
		SELECT id, user_id, session_id, role, content, created_at
		FROM messages
		WHERE session_id = $1 AND role = 'user'
		ORDER BY created_at ASC, seq ASC
		LIMIT 1
	`
	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// DeleteBySession removes every message of a session
func (s *MessageStore) DeleteBySession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE session_id = $1", sessionID); err != nil {
		return fmt.Errorf("%w: delete messages: %v", domain.ErrDurableStoreUnavailable, err)
	}
	return nil
}

// Ping checks the database is reachable
func (s *MessageStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.StoredMessage, error) {
	var msg domain.StoredMessage
	var role string
	if err := row.Scan(&msg.ID, &msg.UserID, &msg.SessionID, &role, &msg.Content, &msg.CreatedAt); err != nil {
		return nil, err
	}
	msg.Role = domain.Role(role)
	return &msg, nil
}
