package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChatSessionStore = (*ChatSessionStore)(nil)

// ChatSessionStore keeps chat sessions in process memory.
type ChatSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
}

// NewChatSessionStore creates an empty ChatSessionStore.
func NewChatSessionStore() *ChatSessionStore {
	return &ChatSessionStore{sessions: make(map[string]*domain.ChatSession)}
}

func (s *ChatSessionStore) Create(ctx context.Context, session *domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *session
	s.sessions[session.ID] = &c
	return nil
}

func (s *ChatSessionStore) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *session
	return &c, nil
}

// ListByUser returns the user's sessions, most recently updated first.
func (s *ChatSessionStore) ListByUser(ctx context.Context, userID string) ([]*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*domain.ChatSession
	for _, session := range s.sessions {
		if session.UserID == userID {
			c := *session
			list = append(list, &c)
		}
	}
	slices.SortFunc(list, func(a, b *domain.ChatSession) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return list, nil
}

func (s *ChatSessionStore) UpdateTitle(ctx context.Context, id, title string) error {
	return s.update(id, func(session *domain.ChatSession) { session.Title = title })
}

func (s *ChatSessionStore) Touch(ctx context.Context, id string) error {
	return s.update(id, func(*domain.ChatSession) {})
}

func (s *ChatSessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *ChatSessionStore) update(id string, fn func(*domain.ChatSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(session)
	session.UpdatedAt = time.Now().UTC()
	return nil
}
