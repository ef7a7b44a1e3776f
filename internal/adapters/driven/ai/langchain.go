package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

var (
	_ driven.LLMService       = (*LangChainLLM)(nil)
	_ driven.EmbeddingService = (*LangChainEmbedding)(nil)
)

// Default Ollama models
const (
	DefaultOllamaChatModel      = "llama3.1"
	DefaultOllamaEmbeddingModel = "nomic-embed-text"
)

var ollamaModelDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

// LangChainLLM adapts any langchaingo model to LLMService.
type LangChainLLM struct {
	model       llms.Model
	name        string
	temperature float64
	limiter     *RateLimiter
	// healthURL, when set, is fetched by Ping
	healthURL string
	client    *http.Client
}

// NewLangChainLLM wraps model. name is reported by Model().
func NewLangChainLLM(model llms.Model, name string, temperature float32, limiter *RateLimiter) *LangChainLLM {
	return &LangChainLLM{
		model:       model,
		name:        name,
		temperature: float64(temperature),
		limiter:     limiter,
		client:      &http.Client{Timeout: 5 * time.Second},
	}
}

// NewOllamaLLM creates a LangChainLLM backed by a local Ollama server.
func NewOllamaLLM(settings domain.LLMSettings, limiter *RateLimiter) (*LangChainLLM, error) {
	model := settings.Model
	if model == "" {
		model = DefaultOllamaChatModel
	}
	serverURL := settings.BaseURL
	if serverURL == "" {
		serverURL = domain.OllamaBaseURL
	}

	client, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(serverURL))
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	llm := NewLangChainLLM(client, model, settings.Temperature, limiter)
	llm.healthURL = strings.TrimRight(serverURL, "/") + "/api/version"
	return llm, nil
}

// StreamComplete runs generation in the background and exposes the
// streaming callback's chunks as a TokenStream.
func (l *LangChainLLM) StreamComplete(ctx context.Context, prompt string) (driven.TokenStream, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &callbackStream{tokens: make(chan string), cancel: cancel}

	go func() {
		defer close(s.tokens)
		_, err := llms.GenerateFromSinglePrompt(ctx, l.model, prompt,
			llms.WithTemperature(l.temperature),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				select {
				case s.tokens <- string(chunk):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}),
		)
		s.err = err
	}()
	return s, nil
}

// Complete returns the full generated text
func (l *LangChainLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	text, err := llms.GenerateFromSinglePrompt(ctx, l.model, prompt, llms.WithTemperature(l.temperature))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return text, nil
}

func (l *LangChainLLM) Model() string {
	return l.name
}

// Ping fetches the health URL if one is configured
func (l *LangChainLLM) Ping(ctx context.Context) error {
	if l.healthURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.healthURL, nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", l.healthURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping %s: status %d", l.healthURL, resp.StatusCode)
	}
	return nil
}

func (l *LangChainLLM) Close() error {
	l.client.CloseIdleConnections()
	return nil
}

// callbackStream turns langchaingo's push-style streaming callback into a
// pull-style TokenStream. err is written before tokens is closed.
type callbackStream struct {
	tokens chan string
	cancel context.CancelFunc
	err    error
}

func (s *callbackStream) Recv() (string, error) {
	tok, ok := <-s.tokens
	if ok {
		return tok, nil
	}
	if s.err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderStream, s.err)
	}
	return "", io.EOF
}

func (s *callbackStream) Close() error {
	s.cancel()
	return nil
}

// LangChainEmbedding adapts a langchaingo embedder to EmbeddingService.
type LangChainEmbedding struct {
	embedder   embeddings.Embedder
	model      string
	dimensions int
	limiter    *RateLimiter
}

// NewLangChainEmbedding wraps embedder producing vectors of the given size.
func NewLangChainEmbedding(embedder embeddings.Embedder, model string, dimensions int, limiter *RateLimiter) *LangChainEmbedding {
	return &LangChainEmbedding{embedder: embedder, model: model, dimensions: dimensions, limiter: limiter}
}

// NewOllamaEmbedding creates an embedder backed by a local Ollama server.
// Dimensions must be configured for models not in the built-in table.
func NewOllamaEmbedding(settings domain.EmbeddingSettings, limiter *RateLimiter) (*LangChainEmbedding, error) {
	model := settings.Model
	if model == "" {
		model = DefaultOllamaEmbeddingModel
	}
	serverURL := settings.BaseURL
	if serverURL == "" {
		serverURL = domain.OllamaBaseURL
	}
	dimensions := settings.Dimensions
	if dimensions <= 0 {
		var ok bool
		if dimensions, ok = ollamaModelDimensions[model]; !ok {
			return nil, fmt.Errorf("%w: dimensions required for embedding model %s", domain.ErrInvalidInput, model)
		}
	}

	client, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(serverURL))
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return NewLangChainEmbedding(embedder, model, dimensions, limiter), nil
}

func (e *LangChainEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

func (e *LangChainEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vector, nil
}

func (e *LangChainEmbedding) Dimensions() int {
	return e.dimensions
}

func (e *LangChainEmbedding) Model() string {
	return e.model
}

func (e *LangChainEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

func (e *LangChainEmbedding) Close() error {
	return nil
}
