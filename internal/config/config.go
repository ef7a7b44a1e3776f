// Package config loads DocuMind configuration from defaults, an optional
// config file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// Vector index backends
const (
	VectorBackendBadger   = "badger"
	VectorBackendPGVector = "pgvector"
)

// Config is the typed view of all configuration keys
type Config struct {
	Server    ServerConfig             `mapstructure:"server"`
	Database  DatabaseConfig           `mapstructure:"database"`
	Redis     RedisConfig              `mapstructure:"redis"`
	Vector    VectorConfig             `mapstructure:"vector"`
	Embedding domain.EmbeddingSettings `mapstructure:"embedding"`
	LLM       domain.LLMSettings       `mapstructure:"llm"`
	RAG       domain.RAGConfig         `mapstructure:"rag"`
	Chat      ChatConfig               `mapstructure:"chat"`
	Upload    UploadConfig             `mapstructure:"upload"`
	Worker    WorkerConfig             `mapstructure:"worker"`
	Log       LogConfig                `mapstructure:"log"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects PostgreSQL; an empty URL falls back to in-memory stores
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RedisConfig selects Redis; an empty URL falls back to in-memory stores
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type VectorConfig struct {
	// Backend is "badger" (embedded) or "pgvector"
	Backend string `mapstructure:"backend"`

	// Dir holds the badger files; empty keeps the index in memory
	Dir string `mapstructure:"dir"`
}

type ChatConfig struct {
	// AnswerTimeout bounds one streamed answer
	AnswerTimeout time.Duration `mapstructure:"answer_timeout"`
}

type UploadConfig struct {
	MaxFileSizeMB int    `mapstructure:"max_file_size_mb"`
	Dir           string `mapstructure:"dir"`
}

// MaxFileSize returns the upload limit in bytes
func (u UploadConfig) MaxFileSize() int64 {
	return int64(u.MaxFileSizeMB) << 20
}

type WorkerConfig struct {
	Concurrency      int           `mapstructure:"concurrency"`
	EmbedConcurrency int           `mapstructure:"embed_concurrency"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
	JobRetention     time.Duration `mapstructure:"job_retention"`
	ReleaseTimeout   time.Duration `mapstructure:"release_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key so environment variables can override it
func SetDefaults(v *viper.Viper) {
	rag := domain.DefaultRAGConfig()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", time.Minute)

	v.SetDefault("redis.url", "")

	v.SetDefault("vector.backend", VectorBackendBadger)
	v.SetDefault("vector.dir", "data/index")

	v.SetDefault("embedding.provider", string(domain.AIProviderOpenAI))
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.dimensions", 0)

	v.SetDefault("llm.provider", string(domain.AIProviderGroq))
	v.SetDefault("llm.model", "llama-3.1-8b-instant")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.requests_per_second", 0)

	v.SetDefault("rag.chunk_size", rag.ChunkSize)
	v.SetDefault("rag.chunk_overlap", rag.ChunkOverlap)
	v.SetDefault("rag.embed_batch_size", rag.EmbedBatchSize)
	v.SetDefault("rag.top_k", rag.TopK)
	v.SetDefault("rag.max_context_messages", rag.MaxContextMessages)
	v.SetDefault("rag.session_ttl", rag.SessionTTL)
	v.SetDefault("rag.max_recent_messages", rag.MaxRecentMessages)
	v.SetDefault("rag.max_chunks", rag.MaxChunks)
	v.SetDefault("rag.dedupe_chunks", rag.DedupeChunks)

	v.SetDefault("chat.answer_timeout", 2*time.Minute)

	v.SetDefault("upload.max_file_size_mb", 20)
	v.SetDefault("upload.dir", "")

	v.SetDefault("worker.concurrency", 0)
	v.SetDefault("worker.embed_concurrency", 4)
	v.SetDefault("worker.lock_ttl", 10*time.Minute)
	v.SetDefault("worker.job_retention", 24*time.Hour)
	v.SetDefault("worker.release_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration into a validated Config. cfgFile may be empty.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Embedding.BaseURL == "" && cfg.Embedding.Provider.IsValid() {
		cfg.Embedding.BaseURL = cfg.Embedding.Provider.DefaultBaseURL()
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider.IsValid() {
		cfg.LLM.BaseURL = cfg.LLM.Provider.DefaultBaseURL()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration can start the service
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be in 1-65535", domain.ErrInvalidInput)
	}
	switch c.Vector.Backend {
	case VectorBackendBadger:
	case VectorBackendPGVector:
		if c.Database.URL == "" {
			return fmt.Errorf("%w: vector.backend pgvector requires database.url", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown vector.backend %q", domain.ErrInvalidInput, c.Vector.Backend)
	}
	if c.Embedding.Provider != "" && !c.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: embedding.provider %q", domain.ErrInvalidProvider, c.Embedding.Provider)
	}
	if c.LLM.Provider != "" && !c.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: llm.provider %q", domain.ErrInvalidProvider, c.LLM.Provider)
	}
	if err := c.RAG.Validate(); err != nil {
		return err
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		return fmt.Errorf("%w: upload.max_file_size_mb must be positive", domain.ErrInvalidInput)
	}
	if c.Chat.AnswerTimeout <= 0 {
		return fmt.Errorf("%w: chat.answer_timeout must be positive", domain.ErrInvalidInput)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: log.format must be text or json", domain.ErrInvalidInput)
	}
	return nil
}

// NewLogger builds the slog logger described by the log.* keys
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log.level %q", domain.ErrInvalidInput, s)
	}
}
