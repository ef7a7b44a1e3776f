package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/runtime"
)

// Ensure chatSessionService implements ChatSessionService
var _ driving.ChatSessionService = (*chatSessionService)(nil)

// DefaultMessageLimit is the page size of Messages when none is given
const DefaultMessageLimit = 50

const titlePrompt = "Generate a short, concise title (3-6 words) for a conversation that starts with:\n\n" +
	"\"%s\"\n\n" +
	"Return ONLY the title, nothing else. No quotes, no punctuation at the end."

type chatSessionService struct {
	sessions driven.ChatSessionStore
	messages driven.MessageStore
	window   *SessionContext
	services *runtime.Services
	logger   *slog.Logger
}

// NewChatSessionService creates a new chat session service
func NewChatSessionService(
	sessions driven.ChatSessionStore,
	messages driven.MessageStore,
	window *SessionContext,
	services *runtime.Services,
	logger *slog.Logger,
) driving.ChatSessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &chatSessionService{
		sessions: sessions,
		messages: messages,
		window:   window,
		services: services,
		logger:   logger.With("component", "chat_sessions"),
	}
}

func (s *chatSessionService) Create(ctx context.Context, userID, title string) (*domain.ChatSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultSessionTitle
	}

	now := time.Now().UTC()
	session := &domain.ChatSession{
		ID:        domain.GenerateID(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *chatSessionService) List(ctx context.Context, userID string) ([]*domain.ChatSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	return s.sessions.ListByUser(ctx, userID)
}

func (s *chatSessionService) Messages(ctx context.Context, sessionID string, limit int) ([]*domain.StoredMessage, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	return s.messages.ListBySession(ctx, sessionID, limit, domain.SortAsc)
}

func (s *chatSessionService) RecentHistory(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	return s.window.RecentHistory(ctx, sessionID, limit)
}

func (s *chatSessionService) UpdateTitle(ctx context.Context, sessionID, title string) (*domain.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if err := s.sessions.UpdateTitle(ctx, sessionID, title); err != nil {
		return nil, err
	}
	return s.sessions.Get(ctx, sessionID)
}

// Delete removes the durable messages before the session record, then drops the window.
func (s *chatSessionService) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return err
	}
	if err := s.messages.DeleteBySession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.window.Clear(ctx, sessionID)
	return nil
}

func (s *chatSessionService) GenerateTitle(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	first, err := s.messages.FirstUserMessage(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: session has no user message", domain.ErrNotFound)
		}
		return nil, err
	}

	llm := s.services.LLMService()
	if llm == nil {
		return nil, fmt.Errorf("%w: no language model configured", domain.ErrServiceUnavailable)
	}

	raw, err := llm.Complete(ctx, fmt.Sprintf(titlePrompt, first.Content))
	if err != nil {
		return nil, classify(domain.ErrServiceUnavailable, err)
	}
	title := domain.CleanTitle(raw)
	if title == "" {
		title = domain.DefaultSessionTitle
	}

	if err := s.sessions.UpdateTitle(ctx, sessionID, title); err != nil {
		return nil, err
	}
	s.logger.Debug("session titled", "session_id", sessionID, "title", title)
	return s.sessions.Get(ctx, sessionID)
}
