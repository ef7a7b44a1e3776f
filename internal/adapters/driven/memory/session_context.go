package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionContextStore = (*SessionContextStore)(nil)

type window struct {
	turns     []domain.ConversationTurn
	expiresAt time.Time
}

// SessionContextStore keeps a bounded, expiring window of turns per session.
type SessionContextStore struct {
	mu      sync.Mutex
	windows map[string]*window
	maxLen  int
	ttl     time.Duration
	now     func() time.Time
}

// NewSessionContextStore creates a store keeping maxLen turns that expire after ttl.
func NewSessionContextStore(maxLen int, ttl time.Duration) *SessionContextStore {
	return &SessionContextStore{
		windows: make(map[string]*window),
		maxLen:  maxLen,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Append adds a turn, trims to the last maxLen and refreshes the TTL.
func (s *SessionContextStore) Append(ctx context.Context, sessionID string, turn domain.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.live(sessionID)
	if w == nil {
		w = &window{}
		s.windows[sessionID] = w
	}
	w.turns = append(w.turns, turn)
	if len(w.turns) > s.maxLen {
		w.turns = append([]domain.ConversationTurn(nil), w.turns[len(w.turns)-s.maxLen:]...)
	}
	w.expiresAt = s.now().Add(s.ttl)
	return nil
}

// Window returns the live turns, oldest first.
func (s *SessionContextStore) Window(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.live(sessionID)
	if w == nil {
		return []domain.ConversationTurn{}, nil
	}
	return append([]domain.ConversationTurn{}, w.turns...), nil
}

// Clear drops the session's window.
func (s *SessionContextStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, sessionID)
	return nil
}

// Ping always succeeds.
func (s *SessionContextStore) Ping(ctx context.Context) error {
	return nil
}

// live returns the window if present and unexpired, evicting it otherwise.
// Caller holds s.mu.
func (s *SessionContextStore) live(sessionID string) *window {
	w, ok := s.windows[sessionID]
	if !ok {
		return nil
	}
	if !s.now().Before(w.expiresAt) {
		delete(s.windows, sessionID)
		return nil
	}
	return w
}
