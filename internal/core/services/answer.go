package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/runtime"
)

// Reasons shown in the error marker. Provider error text is logged, not shown.
const (
	reasonNoProvider = "no language model configured"
	reasonTimeout    = "the language model timed out"
	reasonProvider   = "the language model stream failed"
)

// AnswerEngine streams language-model answers and commits the assistant
// turn once, after the provider finishes normally.
type AnswerEngine struct {
	services *runtime.Services
	session  *SessionContext
	timeout  time.Duration
	logger   *slog.Logger
}

// NewAnswerEngine creates an AnswerEngine. timeout bounds each provider
// stream; zero means no limit.
func NewAnswerEngine(services *runtime.Services, session *SessionContext, timeout time.Duration, logger *slog.Logger) *AnswerEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerEngine{
		services: services,
		session:  session,
		timeout:  timeout,
		logger:   logger.With("component", "answer_engine"),
	}
}

// Answer starts generating an answer for prompt. The returned stream is
// PENDING until the provider stream opens. Cancelling ctx stops delivery.
func (e *AnswerEngine) Answer(ctx context.Context, userID, sessionID, prompt string) *AnswerStream {
	s := &AnswerStream{
		fragments: make(chan domain.Fragment),
		done:      make(chan struct{}),
		state:     domain.StreamPending,
	}
	go e.run(ctx, s, userID, sessionID, prompt)
	return s
}

func (e *AnswerEngine) run(ctx context.Context, s *AnswerStream, userID, sessionID, prompt string) {
	defer close(s.done)
	defer close(s.fragments)

	start := time.Now()
	log := e.logger.With("session_id", sessionID)

	llm := e.services.LLMService()
	if llm == nil {
		s.fail(ctx, fmt.Errorf("%w: no language model configured", domain.ErrServiceUnavailable), reasonNoProvider)
		return
	}

	llmCtx, cancel := e.providerContext(ctx)
	defer cancel()

	stream, err := llm.StreamComplete(llmCtx, prompt)
	if err != nil {
		e.abort(ctx, llmCtx, s, log, err)
		return
	}
	defer stream.Close()

	s.setState(domain.StreamStreaming)

	var answer strings.Builder
	for {
		text, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			e.abort(ctx, llmCtx, s, log, err)
			return
		}
		if text == "" {
			continue
		}
		answer.WriteString(text)

		select {
		case s.fragments <- domain.Fragment{Text: text}:
		case <-ctx.Done():
			e.disconnected(s, log, ctx.Err())
			return
		}
	}

	// A provider can report EOF after the caller went away.
	if ctx.Err() != nil {
		e.disconnected(s, log, ctx.Err())
		return
	}

	// Persist before the channel closes so a reader that saw the end can
	// rely on the turn being recorded.
	e.session.Append(context.WithoutCancel(ctx), userID, sessionID, domain.RoleAssistant, answer.String())
	s.complete()

	log.Info("answer completed",
		"model", llm.Model(),
		"chars", answer.Len(),
		"duration", time.Since(start),
	)
}

func (e *AnswerEngine) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

// abort classifies a provider error: a cancelled caller is a disconnect,
// anything else (including the provider deadline) fails with a marker.
func (e *AnswerEngine) abort(ctx, llmCtx context.Context, s *AnswerStream, log *slog.Logger, err error) {
	if ctx.Err() != nil {
		e.disconnected(s, log, ctx.Err())
		return
	}

	reason := reasonProvider
	if errors.Is(llmCtx.Err(), context.DeadlineExceeded) {
		reason = reasonTimeout
	}
	log.Error("answer failed", "reason", reason, "error", err)
	s.fail(ctx, classify(domain.ErrProviderStream, err), reason)
}

func (e *AnswerEngine) disconnected(s *AnswerStream, log *slog.Logger, err error) {
	log.Info("client disconnected, answer discarded")
	s.finish(domain.StreamFailed, err)
}

// AnswerStream is the handle of one in-flight answer.
type AnswerStream struct {
	fragments chan domain.Fragment
	done      chan struct{}

	mu    sync.RWMutex
	state domain.StreamState
	err   error
}

var _ driving.AnswerStream = (*AnswerStream)(nil)

// Fragments delivers generated text and, on failure, one error marker.
func (s *AnswerStream) Fragments() <-chan domain.Fragment {
	return s.fragments
}

// State returns the current stream state
func (s *AnswerStream) State() domain.StreamState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Wait blocks until the stream is terminal and returns its failure cause.
func (s *AnswerStream) Wait() error {
	<-s.done
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *AnswerStream) setState(state domain.StreamState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *AnswerStream) finish(state domain.StreamState, err error) {
	s.mu.Lock()
	s.state = state
	s.err = err
	s.mu.Unlock()
}

func (s *AnswerStream) complete() {
	s.finish(domain.StreamCompleted, nil)
}

// fail marks the stream FAILED and delivers the marker unless the reader is gone.
func (s *AnswerStream) fail(ctx context.Context, err error, reason string) {
	s.finish(domain.StreamFailed, err)
	select {
	case s.fragments <- domain.ErrorFragment(reason):
	case <-ctx.Done():
	}
}

