package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionContextStore = (*SessionContextStore)(nil)

const sessionPrefix = keyPrefix + "session:"

// SessionContextStore implements driven.SessionContextStore with one Redis list per session.
// Each element is a JSON-encoded ConversationTurn; the list TTL evicts idle sessions.
type SessionContextStore struct {
	client *redis.Client
	maxLen int
	ttl    time.Duration
}

// NewSessionContextStore creates a window store keeping maxLen turns for ttl after the last append.
func NewSessionContextStore(client *redis.Client, maxLen int, ttl time.Duration) *SessionContextStore {
	return &SessionContextStore{client: client, maxLen: maxLen, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return sessionPrefix + sessionID
}

// Append pushes the turn, trims the list to the newest maxLen entries and
// refreshes the TTL inside one MULTI/EXEC.
func (s *SessionContextStore) Append(ctx context.Context, sessionID string, turn domain.ConversationTurn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	key := sessionKey(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, int64(-s.maxLen), -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: append: %v", domain.ErrSessionStoreUnavailable, err)
	}
	return nil
}

// Window returns the session's turns, oldest first.
func (s *SessionContextStore) Window(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	values, err := s.client.LRange(ctx, sessionKey(sessionID), int64(-s.maxLen), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read window: %v", domain.ErrSessionStoreUnavailable, err)
	}

	turns := make([]domain.ConversationTurn, 0, len(values))
	for _, v := range values {
		var turn domain.ConversationTurn
		if err := json.Unmarshal([]byte(v), &turn); err != nil {
			// Skip entries written by an incompatible version
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear drops the session's window.
func (s *SessionContextStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: clear: %v", domain.ErrSessionStoreUnavailable, err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (s *SessionContextStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
