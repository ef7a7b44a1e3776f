package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
)

// readyTimeout bounds the dependency pings behind /ready
const readyTimeout = 5 * time.Second

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// HealthResponse represents the health endpoint response
// @Description Health status and build version
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports each dependency's reachability
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// UploadResponse is returned once an upload is accepted for ingestion
// @Description Accepted upload
type UploadResponse struct {
	DocumentID string `json:"document_id"`
	SessionID  string `json:"session_id"`
	Status     string `json:"status" example:"processing"`
	JobID      string `json:"job_id"`
}

type chatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type createSessionRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

type updateTitleRequest struct {
	Title string `json:"title"`
}

type generateQARequest struct {
	Questions int `json:"questions"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status and version of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings every configured dependency
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Checks: map[string]string{}}
	if s.services == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := http.StatusOK
	for name, err := range s.services.Check(ctx) {
		if err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Chat endpoints

// handleChatStream godoc
// @Summary      Stream an answer
// @Description  Answers a question from the session's documents and history as a plain-text stream
// @Tags         Chat
// @Accept       json
// @Produce      plain
// @Param        request  body      chatRequest  true  "Question"
// @Success      200      {string}  string  "Streamed answer"
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      503      {object}  ErrorResponse  "No language model configured"
// @Router       /chat/stream [post]
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, chatRequestSchema, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stream, err := s.chatService.Chat(r.Context(), driving.ChatRequest{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Query:     req.Query,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// The stream must be drained to its close even after the client goes away
	broken := false
	for fragment := range stream.Fragments() {
		if broken {
			continue
		}
		if _, err := io.WriteString(w, fragment.Text); err != nil {
			broken = true
			continue
		}
		if err := rc.Flush(); err != nil {
			broken = true
		}
	}

	if err := stream.Wait(); err != nil {
		s.logger.Warn("answer stream failed",
			"session_id", req.SessionID,
			"state", stream.State(),
			"error", err)
	}
}

// Ingestion endpoints

// handleUpload godoc
// @Summary      Upload a document
// @Description  Accepts a PDF, DOCX or PPTX file and schedules its ingestion into the session
// @Tags         Ingestion
// @Accept       mpfd
// @Produce      json
// @Param        session_id  formData  string  true  "Session ID"
// @Param        file        formData  file    true  "Document"
// @Success      200  {object}  UploadResponse
// @Failure      400  {object}  ErrorResponse  "Missing fields or unsupported format"
// @Failure      409  {object}  ErrorResponse  "Document already uploaded"
// @Failure      413  {object}  ErrorResponse  "File too large"
// @Router       /upload [post]
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Room for the multipart envelope on top of the file itself
	limit := s.maxUploadBytes + 1<<20
	if r.ContentLength > limit {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	job, err := s.ingestionService.Submit(r.Context(), driving.SubmitRequest{
		SessionID: sessionID,
		Filename:  header.Filename,
		Data:      data,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		DocumentID: job.DocumentID,
		SessionID:  job.SessionID,
		Status:     "processing",
		JobID:      job.ID,
	})
}

// handleGetJob godoc
// @Summary      Get ingestion job
// @Tags         Ingestion
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  domain.IngestionJob
// @Failure      404  {object}  ErrorResponse  "Job not found"
// @Router       /jobs/{id} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.ingestionService.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Session endpoints

// handleCreateSession godoc
// @Summary      Create chat session
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        request  body      createSessionRequest  true  "Session"
// @Success      201      {object}  domain.ChatSession
// @Failure      400      {object}  ErrorResponse
// @Router       /sessions [post]
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, createSessionSchema, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.sessionService.Create(r.Context(), req.UserID, req.Title)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	sessions, err := s.sessionService.List(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if sessions == nil {
		sessions = []*domain.ChatSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	messages, err := s.sessionService.Messages(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if messages == nil {
		messages = []*domain.StoredMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	var req updateTitleRequest
	if err := decodeJSON(r, updateTitleSchema, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.sessionService.UpdateTitle(r.Context(), r.PathValue("id"), req.Title)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionService.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerateTitle godoc
// @Summary      Generate session title
// @Description  Names the session from its first user message
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.ChatSession
// @Failure      404  {object}  ErrorResponse  "Session or first message not found"
// @Failure      503  {object}  ErrorResponse  "No language model configured"
// @Router       /sessions/{id}/generate-title [post]
func (s *Server) handleGenerateTitle(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessionService.GenerateTitle(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Document endpoints

func (s *Server) handleListSessionDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docService.ListBySession(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	// Listings omit the parsed text
	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		doc := *d
		doc.ParsedText = ""
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	writeJSON(w, http.StatusOK, out)
}

// handleGetDocument godoc
// @Summary      Get document
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleGenerateQA godoc
// @Summary      Generate evaluation QA pairs
// @Description  Asks the language model for question/answer pairs grounded in the document
// @Tags         Evaluation
// @Accept       json
// @Produce      json
// @Param        id       path      string             true   "Document ID"
// @Param        request  body      generateQARequest  false  "Number of questions (default 5)"
// @Success      200      {array}   domain.QAPair
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse  "Document not found"
// @Failure      503      {object}  ErrorResponse  "No language model configured"
// @Router       /documents/{id}/qa [post]
func (s *Server) handleGenerateQA(w http.ResponseWriter, r *http.Request) {
	var req generateQARequest
	if err := decodeJSON(r, generateQASchema, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pairs, err := s.evaluationService.GenerateQA(r.Context(), r.PathValue("id"), req.Questions)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if pairs == nil {
		pairs = []domain.QAPair{}
	}
	writeJSON(w, http.StatusOK, pairs)
}

// Helper functions

// writeDomainError maps a service error to its HTTP status
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateDocument):
		writeError(w, http.StatusConflict, "document already uploaded")
	case errors.Is(err, domain.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
