package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MessageStore = (*MessageStore)(nil)

// MessageStore keeps durable history in process memory.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[string][]*domain.StoredMessage
}

// NewMessageStore creates an empty MessageStore.
func NewMessageStore() *MessageStore {
	return &MessageStore{messages: make(map[string][]*domain.StoredMessage)}
}

func (s *MessageStore) Insert(ctx context.Context, msg *domain.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = domain.GenerateID()
	}
	stored := *msg
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], &stored)
	return nil
}

// ListBySession returns messages in insertion order (or reversed for SortDesc),
// limited to limit when limit > 0.
func (s *MessageStore) ListBySession(ctx context.Context, sessionID string, limit int, order domain.SortOrder) ([]*domain.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*domain.StoredMessage, 0, len(s.messages[sessionID]))
	for _, m := range s.messages[sessionID] {
		c := *m
		list = append(list, &c)
	}
	if order == domain.SortDesc {
		slices.Reverse(list)
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *MessageStore) FirstUserMessage(ctx context.Context, sessionID string) (*domain.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages[sessionID] {
		if m.Role == domain.RoleUser {
			c := *m
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MessageStore) DeleteBySession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, sessionID)
	return nil
}

func (s *MessageStore) Ping(ctx context.Context) error {
	return nil
}
