package domain

import (
	"fmt"
	"time"
)

// RAGConfig holds the limits of the retrieval-augmented generation pipeline.
type RAGConfig struct {
	// ChunkSize is the window size in characters
	ChunkSize int `mapstructure:"chunk_size"`

	// ChunkOverlap is the number of characters shared by consecutive chunks
	ChunkOverlap int `mapstructure:"chunk_overlap"`

	// EmbedBatchSize is the number of chunks sent per embedding request
	EmbedBatchSize int `mapstructure:"embed_batch_size"`

	// TopK is the default number of chunks retrieved per query
	TopK int `mapstructure:"top_k"`

	// MaxContextMessages bounds the session window
	MaxContextMessages int `mapstructure:"max_context_messages"`

	// SessionTTL evicts idle session windows
	SessionTTL time.Duration `mapstructure:"session_ttl"`

	// MaxRecentMessages is the number of turns quoted verbatim in the prompt
	MaxRecentMessages int `mapstructure:"max_recent_messages"`

	// MaxChunks bounds the retrieved context section of the prompt
	MaxChunks int `mapstructure:"max_chunks"`

	// DedupeChunks drops chunks that repeat an earlier chunk of the same
	// document, such as PDF page headers. Off by default.
	DedupeChunks bool `mapstructure:"dedupe_chunks"`
}

// DefaultRAGConfig returns the production defaults
func DefaultRAGConfig() RAGConfig {
	return RAGConfig{
		ChunkSize:          512,
		ChunkOverlap:       100,
		EmbedBatchSize:     64,
		TopK:               5,
		MaxContextMessages: 6,
		SessionTTL:         3600 * time.Second,
		MaxRecentMessages:  4,
		MaxChunks:          5,
	}
}

// Validate checks the limits are usable
func (c RAGConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive", ErrInvalidInput)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size)", ErrInvalidInput)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("%w: embed_batch_size must be positive", ErrInvalidInput)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidInput)
	}
	if c.MaxContextMessages <= 0 {
		return fmt.Errorf("%w: max_context_messages must be positive", ErrInvalidInput)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: session_ttl must be positive", ErrInvalidInput)
	}
	if c.MaxRecentMessages <= 0 || c.MaxChunks <= 0 {
		return fmt.Errorf("%w: prompt limits must be positive", ErrInvalidInput)
	}
	return nil
}
