package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// stallingLLM opens a stream that emits its fragments, then blocks until its context ends.
type stallingLLM struct {
	fragments []string
}

func (l *stallingLLM) StreamComplete(ctx context.Context, prompt string) (driven.TokenStream, error) {
	return &stallingStream{ctx: ctx, fragments: l.fragments}, nil
}
func (l *stallingLLM) Complete(ctx context.Context, prompt string) (string, error) { return "", nil }
func (l *stallingLLM) Model() string                                                { return "stalling" }
func (l *stallingLLM) Ping(ctx context.Context) error                               { return nil }
func (l *stallingLLM) Close() error                                                 { return nil }

type stallingStream struct {
	ctx       context.Context
	fragments []string
}

func (s *stallingStream) Recv() (string, error) {
	if len(s.fragments) > 0 {
		f := s.fragments[0]
		s.fragments = s.fragments[1:]
		return f, nil
	}
	<-s.ctx.Done()
	return "", s.ctx.Err()
}
func (s *stallingStream) Close() error { return nil }

// eofAfterCancelLLM emits its fragments, then cancels the caller and reports a clean end.
type eofAfterCancelLLM struct {
	fragments []string
	cancel    context.CancelFunc
}

func (l *eofAfterCancelLLM) StreamComplete(ctx context.Context, prompt string) (driven.TokenStream, error) {
	return &eofAfterCancelStream{fragments: l.fragments, cancel: l.cancel}, nil
}
func (l *eofAfterCancelLLM) Complete(ctx context.Context, prompt string) (string, error) { return "", nil }
func (l *eofAfterCancelLLM) Model() string                                                { return "eof-after-cancel" }
func (l *eofAfterCancelLLM) Ping(ctx context.Context) error                               { return nil }
func (l *eofAfterCancelLLM) Close() error                                                 { return nil }

type eofAfterCancelStream struct {
	fragments []string
	cancel    context.CancelFunc
}

func (s *eofAfterCancelStream) Recv() (string, error) {
	if len(s.fragments) > 0 {
		f := s.fragments[0]
		s.fragments = s.fragments[1:]
		return f, nil
	}
	s.cancel()
	return "", io.EOF
}
func (s *eofAfterCancelStream) Close() error { return nil }

func assistantMessages(f *fixture, sessionID string) []string {
	var out []string
	for _, m := range f.messages.Messages(sessionID) {
		if m.Role == domain.RoleAssistant {
			out = append(out, m.Content)
		}
	}
	return out
}

func TestAnswerEngine_Completes(t *testing.T) {
	f := newFixture(t)

	stream := f.engine.Answer(context.Background(), "u", "s1", "prompt")
	fragments := drain(stream)

	assert.Equal(t, []string{"Hello", ", world"}, texts(fragments))
	require.NoError(t, stream.Wait())
	assert.Equal(t, domain.StreamCompleted, stream.State())

	// Persisted before the channel closed.
	assert.Equal(t, []string{"Hello, world"}, assistantMessages(f, "s1"))
	window := f.sessionContext.Window(context.Background(), "s1")
	require.Len(t, window, 1)
	assert.Equal(t, domain.RoleAssistant, window[0].Role)
	assert.Equal(t, 1, f.llm.StreamsClosed())
}

func TestAnswerEngine_MidStreamFailure(t *testing.T) {
	f := newFixture(t)
	f.llm.Fragments = []string{"Hel", "lo"}
	f.llm.FailWith = errors.New("connection reset")

	stream := f.engine.Answer(context.Background(), "u", "s1", "prompt")
	fragments := drain(stream)

	require.Len(t, fragments, 3)
	assert.Equal(t, []string{"Hel", "lo"}, texts(fragments[:2]))
	assert.False(t, fragments[0].IsError)
	assert.True(t, fragments[2].IsError)
	assert.True(t, strings.HasPrefix(fragments[2].Text, "\n\n[ERROR] The answer could not be completed"))

	assert.ErrorIs(t, stream.Wait(), domain.ErrProviderStream)
	assert.Equal(t, domain.StreamFailed, stream.State())
	assert.Empty(t, assistantMessages(f, "s1"))
	assert.Zero(t, f.window.Appended())
}

func TestAnswerEngine_OpenFailure(t *testing.T) {
	f := newFixture(t)
	f.llm.OpenErr = errors.New("401 unauthorized")

	stream := f.engine.Answer(context.Background(), "u", "s1", "prompt")
	fragments := drain(stream)

	require.Len(t, fragments, 1)
	assert.True(t, fragments[0].IsError)
	assert.ErrorIs(t, stream.Wait(), domain.ErrProviderStream)
	assert.Empty(t, assistantMessages(f, "s1"))
}

func TestAnswerEngine_NoProvider(t *testing.T) {
	f := newFixture(t)
	f.services.SetLLMService(nil)

	stream := f.engine.Answer(context.Background(), "u", "s1", "prompt")
	fragments := drain(stream)

	require.Len(t, fragments, 1)
	assert.Equal(t, domain.ErrorFragment(reasonNoProvider), fragments[0])
	assert.ErrorIs(t, stream.Wait(), domain.ErrServiceUnavailable)
}

func TestAnswerEngine_ProviderTimeout(t *testing.T) {
	f := newFixture(t)
	f.services.SetLLMService(&stallingLLM{fragments: []string{"partial"}})
	engine := NewAnswerEngine(f.services, f.sessionContext, 20*time.Millisecond, quietLogger())

	stream := engine.Answer(context.Background(), "u", "s1", "prompt")
	fragments := drain(stream)

	require.Len(t, fragments, 2)
	assert.Equal(t, "partial", fragments[0].Text)
	assert.Equal(t, domain.ErrorFragment(reasonTimeout), fragments[1])
	assert.Equal(t, domain.StreamFailed, stream.State())
	assert.Empty(t, assistantMessages(f, "s1"))
}

func TestAnswerEngine_ClientDisconnect(t *testing.T) {
	f := newFixture(t)
	f.services.SetLLMService(&stallingLLM{fragments: []string{"first"}})

	ctx, cancel := context.WithCancel(context.Background())
	stream := f.engine.Answer(ctx, "u", "s1", "prompt")

	first := <-stream.Fragments()
	assert.Equal(t, "first", first.Text)
	assert.Equal(t, domain.StreamStreaming, stream.State())

	cancel()
	rest := drain(stream)

	assert.Empty(t, rest, "no marker after disconnect")
	assert.ErrorIs(t, stream.Wait(), context.Canceled)
	assert.Equal(t, domain.StreamFailed, stream.State())
	assert.Empty(t, assistantMessages(f, "s1"))
}

func TestAnswerEngine_DisconnectBeforeEOF(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.services.SetLLMService(&eofAfterCancelLLM{fragments: []string{"Hel"}, cancel: cancel})

	stream := f.engine.Answer(ctx, "u", "s1", "prompt")
	fragments := drain(stream)

	assert.Equal(t, []string{"Hel"}, texts(fragments))
	assert.ErrorIs(t, stream.Wait(), context.Canceled)
	assert.Equal(t, domain.StreamFailed, stream.State())
	assert.Empty(t, assistantMessages(f, "s1"))
	assert.Zero(t, f.window.Appended())
}

func TestAnswerEngine_ReaderGone(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	stream := f.engine.Answer(ctx, "u", "s1", "prompt")
	cancel()

	assert.Error(t, stream.Wait())
	assert.Equal(t, domain.StreamFailed, stream.State())
	assert.Empty(t, assistantMessages(f, "s1"))
}
