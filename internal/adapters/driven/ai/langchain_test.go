package ai

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// fakeModel streams its chunks through the streaming callback, then returns err.
type fakeModel struct {
	chunks []string
	err    error
}

func (m *fakeModel) GenerateContent(ctx context.Context, _ []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	text := ""
	for _, c := range m.chunks {
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
		text += c
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func drain(t *testing.T, llm *LangChainLLM) ([]string, error) {
	t.Helper()
	stream, err := llm.StreamComplete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	var got []string
	for {
		tok, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return got, nil
		}
		if err != nil {
			return got, err
		}
		got = append(got, tok)
	}
}

func TestLangChainLLM_Stream(t *testing.T) {
	llm := NewLangChainLLM(&fakeModel{chunks: []string{"Hel", "", "lo"}}, "fake", 0.2, nil)

	got, err := drain(t, llm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "Hel" || got[1] != "lo" {
		t.Errorf("expected [Hel lo], got %v", got)
	}
}

func TestLangChainLLM_StreamFailure(t *testing.T) {
	llm := NewLangChainLLM(&fakeModel{chunks: []string{"Hel", "lo"}, err: errors.New("connection reset")}, "fake", 0, nil)

	got, err := drain(t, llm)
	if !errors.Is(err, domain.ErrProviderStream) {
		t.Errorf("expected ErrProviderStream, got %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected fragments before failure, got %v", got)
	}
}

func TestLangChainLLM_CloseStopsProducer(t *testing.T) {
	llm := NewLangChainLLM(&fakeModel{chunks: []string{"a", "b", "c"}}, "fake", 0, nil)
	stream, err := llm.StreamComplete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok, _ := stream.Recv(); tok != "a" {
		t.Errorf("expected a, got %q", tok)
	}
	_ = stream.Close()

	// The producer observes cancellation and closes the channel
	for {
		if _, err := stream.Recv(); err != nil {
			break
		}
	}
}

func TestLangChainLLM_Complete(t *testing.T) {
	llm := NewLangChainLLM(&fakeModel{chunks: []string{"Travel ", "Budget"}}, "fake", 0, nil)
	text, err := llm.Complete(context.Background(), "title")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Travel Budget" {
		t.Errorf("unexpected text %q", text)
	}
	if llm.Model() != "fake" || llm.Ping(context.Background()) != nil {
		t.Error("unexpected model or ping result")
	}
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{9, 1}, nil
}

func TestLangChainEmbedding(t *testing.T) {
	emb := NewLangChainEmbedding(fakeEmbedder{}, "fake-embed", 2, nil)

	vectors, err := emb.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 2 || vectors[1][0] != 1 {
		t.Errorf("unexpected vectors %v", vectors)
	}
	if v, _ := emb.EmbedQuery(context.Background(), "q"); v[0] != 9 {
		t.Errorf("unexpected query vector %v", v)
	}
	if emb.Dimensions() != 2 || emb.Model() != "fake-embed" {
		t.Error("unexpected metadata")
	}
}

func TestNewOllamaEmbedding_Dimensions(t *testing.T) {
	emb, err := NewOllamaEmbedding(domain.EmbeddingSettings{Provider: domain.AIProviderOllama}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.Dimensions() != 768 {
		t.Errorf("expected 768 for nomic-embed-text, got %d", emb.Dimensions())
	}

	_, err = NewOllamaEmbedding(domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "custom"}, nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown model, got %v", err)
	}
}
