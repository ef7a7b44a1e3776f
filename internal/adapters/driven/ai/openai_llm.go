package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Ensure OpenAILLM implements LLMService
var _ driven.LLMService = (*OpenAILLM)(nil)

// Default chat models per provider
const (
	DefaultOpenAIChatModel = "gpt-4o-mini"
	DefaultGroqChatModel   = "llama-3.1-8b-instant"
)

// OpenAILLM implements LLMService against OpenAI-compatible chat completion
// endpoints, which covers OpenAI itself and Groq.
type OpenAILLM struct {
	client      *openai.Client
	httpClient  *http.Client
	model       string
	temperature float32
	limiter     *RateLimiter
}

// NewOpenAILLM creates a chat completion client. BaseURL defaults per provider.
func NewOpenAILLM(settings domain.LLMSettings, limiter *RateLimiter) (*OpenAILLM, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key is required", domain.ErrInvalidInput, settings.Provider)
	}

	model := settings.Model
	if model == "" {
		model = DefaultOpenAIChatModel
		if settings.Provider == domain.AIProviderGroq {
			model = DefaultGroqChatModel
		}
	}
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = settings.Provider.DefaultBaseURL()
	}

	// No client timeout: streams are bounded by the caller's context
	httpClient := &http.Client{}
	cfg := openai.DefaultConfig(settings.APIKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = httpClient

	return &OpenAILLM{
		client:      openai.NewClientWithConfig(cfg),
		httpClient:  httpClient,
		model:       model,
		temperature: settings.Temperature,
		limiter:     limiter,
	}, nil
}

func (l *OpenAILLM) request(prompt string, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: l.temperature,
		Stream:      stream,
	}
}

// StreamComplete opens a streaming completion for prompt
func (l *OpenAILLM) StreamComplete(ctx context.Context, prompt string) (driven.TokenStream, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	stream, err := l.client.CreateChatCompletionStream(ctx, l.request(prompt, true))
	if err != nil {
		l.limiter.Observe(err)
		return nil, fmt.Errorf("%w: open stream: %v", domain.ErrProviderStream, err)
	}
	return &openAITokenStream{stream: stream}, nil
}

// Complete runs a non-streaming completion and returns the full text
func (l *OpenAILLM) Complete(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := l.client.CreateChatCompletion(ctx, l.request(prompt, false))
	if err != nil {
		l.limiter.Observe(err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the model name being used
func (l *OpenAILLM) Model() string {
	return l.model
}

// Ping lists models to verify the endpoint and key
func (l *OpenAILLM) Ping(ctx context.Context) error {
	if _, err := l.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Close releases idle connections
func (l *OpenAILLM) Close() error {
	l.httpClient.CloseIdleConnections()
	return nil
}

// openAITokenStream adapts a go-openai stream to TokenStream.
type openAITokenStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAITokenStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrProviderStream, err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			// Role-only and usage chunks carry no text
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (s *openAITokenStream) Close() error {
	return s.stream.Close()
}
