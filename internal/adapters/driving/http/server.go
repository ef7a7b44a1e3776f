package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/runtime"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	maxUploadBytes int64
	allowedOrigins []string

	// Services
	chatService       driving.ChatService
	sessionService    driving.ChatSessionService
	ingestionService  driving.IngestionService
	docService        driving.DocumentService
	evaluationService driving.EvaluationService

	// Infrastructure
	services *runtime.Services // readiness checks
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// MaxUploadBytes caps multipart uploads; 0 uses DefaultMaxUploadBytes
	MaxUploadBytes int64

	// AllowedOrigins enables CORS for the listed origins ("*" for any)
	AllowedOrigins []string

	Logger *slog.Logger
}

// DefaultMaxUploadBytes matches the ingestion service's file limit
const DefaultMaxUploadBytes = 20 << 20

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

// Handlers groups the driving services the server exposes
type Handlers struct {
	Chat       driving.ChatService
	Sessions   driving.ChatSessionService
	Ingestion  driving.IngestionService
	Documents  driving.DocumentService
	Evaluation driving.EvaluationService
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, h Handlers, services *runtime.Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}

	s := &Server{
		router:            http.NewServeMux(),
		version:           cfg.Version,
		logger:            logger,
		maxUploadBytes:    maxUpload,
		allowedOrigins:    cfg.AllowedOrigins,
		chatService:       h.Chat,
		sessionService:    h.Sessions,
		ingestionService:  h.Ingestion,
		docService:        h.Documents,
		evaluationService: h.Evaluation,
		services:          services,
	}

	// Streamed answers lift the write deadline per request
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = NewCORSMiddleware(s.allowedOrigins).Handler(h)
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	return h
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Chat
	s.router.HandleFunc("POST /chat/stream", s.handleChatStream)

	// Ingestion
	s.router.HandleFunc("POST /upload", s.handleUpload)
	s.router.HandleFunc("GET /jobs/{id}", s.handleGetJob)

	// Sessions
	s.router.HandleFunc("POST /sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /sessions", s.handleListSessions)
	s.router.HandleFunc("GET /sessions/{id}/messages", s.handleListMessages)
	s.router.HandleFunc("PATCH /sessions/{id}/title", s.handleUpdateTitle)
	s.router.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	s.router.HandleFunc("POST /sessions/{id}/generate-title", s.handleGenerateTitle)
	s.router.HandleFunc("GET /sessions/{id}/documents", s.handleListSessionDocuments)

	// Documents and evaluation
	s.router.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	s.router.HandleFunc("POST /documents/{id}/qa", s.handleGenerateQA)
}

// Start starts the HTTP server and blocks until ctx is done or a
// termination signal arrives, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
