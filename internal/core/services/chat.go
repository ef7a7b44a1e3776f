package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/runtime"
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// ChatConfig bounds one chat request.
type ChatConfig struct {
	// TopK is the number of chunks retrieved per question
	TopK   int
	Logger *slog.Logger
}

type chatService struct {
	services  *runtime.Services
	session   *SessionContext
	retriever *Retriever
	assembler *ContextAssembler
	engine    *AnswerEngine
	topK      int
	logger    *slog.Logger
}

// NewChatService wires the chat flow: window read, user-turn append,
// retrieval, assembly and streaming.
func NewChatService(
	services *runtime.Services,
	session *SessionContext,
	retriever *Retriever,
	assembler *ContextAssembler,
	engine *AnswerEngine,
	cfg ChatConfig,
) driving.ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &chatService{
		services:  services,
		session:   session,
		retriever: retriever,
		assembler: assembler,
		engine:    engine,
		topK:      cfg.TopK,
		logger:    logger.With("component", "chat"),
	}
}

// Chat answers one question. Storage and retrieval failures degrade;
// only a missing language model is reported before streaming.
func (s *chatService) Chat(ctx context.Context, req driving.ChatRequest) (driving.AnswerStream, error) {
	query := strings.TrimSpace(req.Query)
	if req.UserID == "" || req.SessionID == "" || query == "" {
		return nil, fmt.Errorf("%w: user_id, session_id and query are required", domain.ErrInvalidInput)
	}
	if s.services.LLMService() == nil {
		return nil, fmt.Errorf("%w: no language model configured", domain.ErrServiceUnavailable)
	}

	// Read before appending so the prompt does not quote the question twice.
	turns := s.session.Window(ctx, req.SessionID)
	s.session.Append(ctx, req.UserID, req.SessionID, domain.RoleUser, query)

	chunks, err := s.retriever.Retrieve(ctx, query, req.SessionID, s.topK)
	if err != nil {
		s.logger.Warn("retrieval failed, answering without documents",
			"session_id", req.SessionID, "error", err)
		chunks = nil
	}

	prompt := s.assembler.Assemble(query, chunks, turns)
	return s.engine.Answer(ctx, req.UserID, req.SessionID, prompt), nil
}
