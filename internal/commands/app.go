package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/documind/internal/adapters/driven/ai"
	badgeradapter "github.com/custodia-labs/documind/internal/adapters/driven/badger"
	"github.com/custodia-labs/documind/internal/adapters/driven/memory"
	"github.com/custodia-labs/documind/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/documind/internal/adapters/driven/redis"
	httpadapter "github.com/custodia-labs/documind/internal/adapters/driving/http"
	"github.com/custodia-labs/documind/internal/config"
	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/core/services"
	"github.com/custodia-labs/documind/internal/parsers"
	"github.com/custodia-labs/documind/internal/postprocessors"
	"github.com/custodia-labs/documind/internal/runtime"
	"github.com/custodia-labs/documind/internal/worker"
)

// app holds the backends selected by configuration. Handles are built here
// and injected; Close releases them.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	services *runtime.Services

	db     *postgres.DB
	redis  *goredis.Client
	badger *badgeradapter.Backend

	documents driven.DocumentStore
	messages  driven.MessageStore
	sessions  driven.ChatSessionStore
	window    driven.SessionContextStore
	jobs      driven.JobStore
	lock      driven.DistributedLock
	index     driven.VectorIndex

	parsers  *parsers.Registry
	ingestor *services.Ingestor
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	factory := ai.NewFactory()
	embedder, err := factory.CreateEmbeddingService(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedding service: %w", err)
	}
	llm, err := factory.CreateLLMService(&cfg.LLM)
	if err != nil {
		if embedder != nil {
			_ = embedder.Close()
		}
		return nil, fmt.Errorf("create llm service: %w", err)
	}

	sessionBackend, durableBackend := "memory", "memory"
	if cfg.Redis.URL != "" {
		sessionBackend = "redis"
	}
	if cfg.Database.URL != "" {
		durableBackend = "postgres"
	}
	a.services = runtime.NewServices(domain.NewRuntimeConfig(sessionBackend, durableBackend, cfg.Vector.Backend))
	if embedder != nil {
		a.services.SetEmbeddingService(embedder)
	} else {
		logger.Warn("embedding not configured; uploads will fail until it is")
	}
	if llm != nil {
		a.services.SetLLMService(llm)
	} else {
		logger.Warn("llm not configured; chat is unavailable")
	}

	if err := a.openDurable(ctx); err != nil {
		return nil, err
	}
	if err := a.openSession(ctx); err != nil {
		return nil, err
	}
	if err := a.openIndex(ctx, embedder); err != nil {
		return nil, err
	}

	a.parsers = parsers.DefaultRegistry()
	pipeline := postprocessors.DefaultPipeline(postprocessors.ChunkConfig{
		MaxChunkSize:       cfg.RAG.ChunkSize,
		Overlap:            cfg.RAG.ChunkOverlap,
		PreserveSentences:  true,
		PreserveParagraphs: true,
	})
	if cfg.RAG.DedupeChunks {
		pipeline.Add(postprocessors.NewDeduplicator(postprocessors.DefaultDeduplicatorConfig()))
	}
	a.ingestor = services.NewIngestor(a.parsers, pipeline, a.documents, a.index, a.services, services.IngestorConfig{
		EmbedBatchSize:   cfg.RAG.EmbedBatchSize,
		EmbedConcurrency: cfg.Worker.EmbedConcurrency,
		Logger:           logger,
	})

	cfgSnapshot := a.services.Config()
	logger.Info("runtime config",
		"session_backend", cfgSnapshot.SessionBackend,
		"durable_backend", cfgSnapshot.DurableBackend,
		"vector_backend", cfgSnapshot.VectorBackend,
		"can_ingest", cfgSnapshot.CanIngest(),
		"can_chat", cfgSnapshot.CanChat())

	return a, nil
}

// openDurable selects PostgreSQL for documents, messages and sessions,
// or in-memory stores when no database is configured.
func (a *app) openDurable(ctx context.Context) error {
	if a.cfg.Database.URL == "" {
		a.logger.Warn("database.url not set; history and documents are kept in memory")
		a.documents = memory.NewDocumentStore()
		a.messages = memory.NewMessageStore()
		a.sessions = memory.NewChatSessionStore()
		return nil
	}

	db, err := openDatabase(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.db = db
	a.documents = postgres.NewDocumentStore(db)
	a.messages = postgres.NewMessageStore(db)
	a.sessions = postgres.NewChatSessionStore(db)
	a.services.AddCheck("postgres", db.Ping)
	a.logger.Info("postgres connected")
	return nil
}

// openSession selects Redis for the session window, job records and the
// ingestion lock. Without Redis the lock falls back to PostgreSQL advisory
// locks, then to an in-process lock.
func (a *app) openSession(ctx context.Context) error {
	ttl, maxLen := a.cfg.RAG.SessionTTL, a.cfg.RAG.MaxContextMessages

	if a.cfg.Redis.URL != "" {
		client, err := redisadapter.Connect(ctx, a.cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		a.window = redisadapter.NewSessionContextStore(client, maxLen, ttl)
		a.jobs = redisadapter.NewJobStore(client, a.cfg.Worker.JobRetention)
		a.lock = redisadapter.NewLock(client)
		a.services.AddCheck("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })
		a.logger.Info("redis connected")
		return nil
	}

	a.window = memory.NewSessionContextStore(maxLen, ttl)
	a.jobs = memory.NewJobStore()
	if a.db != nil {
		a.lock = postgres.NewAdvisoryLock(a.db)
		a.logger.Info("using postgres advisory lock")
	} else {
		a.lock = memory.NewLock()
	}
	a.logger.Warn("redis.url not set; session windows and jobs are kept in memory")
	return nil
}

func (a *app) openIndex(ctx context.Context, embedder driven.EmbeddingService) error {
	dims := a.cfg.Embedding.Dimensions
	if embedder != nil && embedder.Dimensions() > 0 {
		dims = embedder.Dimensions()
	}

	switch a.cfg.Vector.Backend {
	case config.VectorBackendPGVector:
		if a.db == nil {
			return fmt.Errorf("%w: pgvector requires database.url", domain.ErrInvalidInput)
		}
		if dims <= 0 {
			return fmt.Errorf("%w: pgvector requires embedding.dimensions", domain.ErrInvalidInput)
		}
		if err := a.db.InitVectorSchema(ctx, dims); err != nil {
			return err
		}
		a.index = postgres.NewVectorIndex(a.db)
		a.logger.Info("using pgvector index", "dimensions", dims)
	default:
		backend, err := badgeradapter.OpenBackend(a.cfg.Vector.Dir, a.logger)
		if err != nil {
			return err
		}
		a.badger = backend
		a.index = badgeradapter.NewVectorIndex(backend, dims)
		a.logger.Info("using badger index", "dir", a.cfg.Vector.Dir)
	}
	return nil
}

// openDatabase connects to PostgreSQL and applies the durable schema
func openDatabase(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// newRunner builds the ingestion job runner shared by the worker pool and
// the one-off ingest command.
func (a *app) newRunner() *worker.Runner {
	return worker.NewRunner(worker.RunnerConfig{
		Ingester: a.ingestor,
		Jobs:     a.jobs,
		Lock:     a.lock,
		LockTTL:  a.cfg.Worker.LockTTL,
		Logger:   a.logger,
	})
}

func (a *app) ingestionService(scheduler driven.JobScheduler) driving.IngestionService {
	return services.NewIngestionService(a.parsers, a.documents, a.jobs, scheduler, services.IngestionConfig{
		MaxFileSize: a.cfg.Upload.MaxFileSize(),
		UploadDir:   a.cfg.Upload.Dir,
		Logger:      a.logger,
	})
}

func (a *app) evaluationService() driving.EvaluationService {
	return services.NewEvaluationService(a.documents, a.services, a.logger)
}

// handlers wires the driving services behind the HTTP API
func (a *app) handlers(scheduler driven.JobScheduler) httpadapter.Handlers {
	cfg := a.cfg
	window := services.NewSessionContext(a.window, a.messages, a.sessions, a.logger)
	retriever := services.NewRetriever(a.index, a.services, cfg.RAG.TopK)
	assembler := services.NewContextAssembler(cfg.RAG.MaxRecentMessages, cfg.RAG.MaxChunks)
	engine := services.NewAnswerEngine(a.services, window, cfg.Chat.AnswerTimeout, a.logger)

	return httpadapter.Handlers{
		Chat: services.NewChatService(a.services, window, retriever, assembler, engine, services.ChatConfig{
			TopK:   cfg.RAG.TopK,
			Logger: a.logger,
		}),
		Sessions:   services.NewChatSessionService(a.sessions, a.messages, window, a.services, a.logger),
		Ingestion:  a.ingestionService(scheduler),
		Documents:  services.NewDocumentService(a.documents),
		Evaluation: a.evaluationService(),
	}
}

// Close releases every handle newApp opened
func (a *app) Close() error {
	var errs []error
	if a.services != nil {
		errs = append(errs, a.services.Close())
	}
	if a.badger != nil {
		errs = append(errs, a.badger.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
