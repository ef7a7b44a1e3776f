package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Ensure OpenAIEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*OpenAIEmbedding)(nil)

// DefaultOpenAIEmbeddingModel is used when no model is configured
const DefaultOpenAIEmbeddingModel = "text-embedding-3-small"

// OpenAIEmbedding implements EmbeddingService against any OpenAI-compatible
// embeddings endpoint.
type OpenAIEmbedding struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
	baseURL    string
	dimensions int
	limiter    *RateLimiter
	// requestDims is sent with each request when the caller overrides the size
	requestDims int
}

// Model dimensions for OpenAI embedding models
var openAIModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// NewOpenAIEmbedding creates a new OpenAI embedding service
func NewOpenAIEmbedding(settings domain.EmbeddingSettings, limiter *RateLimiter) (*OpenAIEmbedding, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", domain.ErrInvalidInput)
	}

	model := settings.Model
	if model == "" {
		model = DefaultOpenAIEmbeddingModel
	}
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = domain.OpenAIBaseURL
	}

	dimensions := settings.Dimensions
	if dimensions <= 0 {
		var ok bool
		if dimensions, ok = openAIModelDimensions[model]; !ok {
			// Default to 1536 for unknown models
			dimensions = 1536
		}
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	cfg := openai.DefaultConfig(settings.APIKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = httpClient

	return &OpenAIEmbedding{
		client:      openai.NewClientWithConfig(cfg),
		httpClient:  httpClient,
		model:       model,
		baseURL:     baseURL,
		dimensions:  dimensions,
		limiter:     limiter,
		requestDims: settings.Dimensions,
	}, nil
}

// Embed generates one vector per text, in input order
func (e *OpenAIEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		Dimensions:     e.requestDims,
	})
	if err != nil {
		e.limiter.Observe(err)
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	// Data may arrive out of order; place by index
	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			vec[i] = float32(x)
		}
		embeddings[d.Index] = vec
	}
	for i, vec := range embeddings {
		if vec == nil {
			return nil, fmt.Errorf("openai embeddings: missing vector for input %d", i)
		}
	}
	return embeddings, nil
}

// EmbedQuery generates an embedding for a search query
func (e *OpenAIEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimension size
func (e *OpenAIEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *OpenAIEmbedding) Model() string {
	return e.model
}

// HealthCheck makes a small embedding request to verify connectivity
func (e *OpenAIEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases idle connections
func (e *OpenAIEmbedding) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}
