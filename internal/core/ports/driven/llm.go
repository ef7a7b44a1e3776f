package driven

import (
	"context"
)

// LLMService is a language-model provider producing text from a prompt
type LLMService interface {
	// StreamComplete opens a token stream for the prompt.
	// An error here means the stream never opened.
	StreamComplete(ctx context.Context, prompt string) (TokenStream, error)

	// Complete returns the whole completion synchronously.
	// Used for title and evaluation generation.
	Complete(ctx context.Context, prompt string) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}

// TokenStream is a lazy, finite, non-restartable sequence of text fragments.
type TokenStream interface {
	// Recv returns the next fragment.
	// Returns io.EOF when the provider finished normally; any other error is a
	// mid-stream failure and ends the stream.
	Recv() (string, error)

	// Close releases the underlying connection. Safe to call more than once.
	Close() error
}
