// Package app assembles the service graph shared by the API server and the
// command line tools.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/adapters/backend"
	"github.com/yashbaviskar01/model-api/internal/adapters/cache"
	"github.com/yashbaviskar01/model-api/internal/adapters/database"
	"github.com/yashbaviskar01/model-api/internal/adapters/events"
	"github.com/yashbaviskar01/model-api/internal/adapters/search"
	"github.com/yashbaviskar01/model-api/internal/application/services"
	"github.com/yashbaviskar01/model-api/internal/application/workflow"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	"github.com/yashbaviskar01/model-api/internal/domain/repositories"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/clients/duckdb"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/clients/openai"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/clients/pgvector"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/clients/postgres"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/clients/redis"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/clients/typesense"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
	"github.com/yashbaviskar01/model-api/pkg/config"
)

const cacheCleanupInterval = 10 * time.Minute

// App holds every long-lived dependency. Optional infrastructure that fails
// to connect is replaced by an in-process implementation and logged.
type App struct {
	Config          *config.Config
	Metrics         *observability.Metrics
	WorkflowMetrics *observability.WorkflowMetrics

	Completion providers.CompletionProvider
	EventBus   providers.EventBus
	Tables     providers.TableIndex
	Documents  providers.DocumentIndex
	Runner     *backend.SQLRunner

	Prompts           *services.PromptService
	Executor          *services.QueryExecutionService
	RAG               *services.RAGFusionService
	Descriptions      *services.TableDescriptionService
	Embeddings        *services.TableEmbeddingService
	Ingestion         *services.DocumentIngestionService
	Chat              *services.ChatService
	CacheInvalidation *services.CacheInvalidationService
	CacheWarming      *services.CacheWarmingService
	Stages            *workflow.Stages
	Orchestrator      *workflow.Orchestrator

	closers []func() error
}

// New connects to the configured infrastructure and wires the services
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, WorkflowMetrics: observability.NewWorkflowMetrics()}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	a.Metrics = metrics

	completion, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	a.Completion = completion

	redisClient := a.connectRedis()

	var pgClient *postgres.Client
	if cfg.Prompts.Store == "postgres" || cfg.QueryBackend.Driver == "postgres" {
		pgClient, err = postgres.NewClient(&cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init postgres client: %w", err)
		}
		a.onClose(pgClient.Close)
	}

	promptRepo, promptCache, err := a.promptRepository(ctx, pgClient, redisClient)
	if err != nil {
		a.Close()
		return nil, err
	}

	if redisClient != nil {
		a.EventBus = events.NewRedisEventBus(redisClient)
	} else {
		a.EventBus = events.NewMemoryEventBus()
	}
	a.onClose(a.EventBus.Close)

	a.Tables = a.tableIndex()
	a.Documents = a.documentIndex(ctx)

	db, err := a.queryDB(ctx, pgClient)
	if err != nil {
		a.Close()
		return nil, err
	}
	var registry providers.ExecutionRegistry
	if redisClient != nil {
		registry = backend.NewRedisRegistry(redisClient, cfg.QueryBackend.ResultTTL)
	} else {
		registry = backend.NewMemoryRegistry(cfg.QueryBackend.ResultTTL)
	}
	a.Runner = backend.NewSQLRunner(db, registry, cfg.QueryBackend.QueryTimeout, metrics)

	a.Prompts = services.NewPromptService(promptRepo, a.EventBus)
	a.Executor = services.NewQueryExecutionService(a.Runner, cfg.QueryBackend.PollInterval, cfg.QueryBackend.MaxAttempts, a.WorkflowMetrics)
	a.RAG = services.NewRAGFusionService(completion, a.Documents, services.RAGFusionConfig{
		EmbeddingModel: cfg.OpenAI.EmbeddingModel,
		AnswerModel:    cfg.OpenAI.FinalAnswerModel,
		FetchK:         cfg.VectorStore.FetchK,
		TopK:           cfg.VectorStore.TopK,
		Lambda:         cfg.VectorStore.MMRLambda,
	})
	a.Descriptions = services.NewTableDescriptionService(a.Executor, completion, a.Prompts, services.TableDescriptionConfig{
		Model:   cfg.OpenAI.TableDescriptionModel,
		Catalog: cfg.QueryBackend.Catalog,
	})
	a.Embeddings = services.NewTableEmbeddingService(a.Descriptions, completion, a.Tables, cfg.OpenAI.EmbeddingModel)
	a.Ingestion = services.NewDocumentIngestionService(completion, a.Documents, cfg.OpenAI.EmbeddingModel)

	a.Stages = workflow.NewStages(completion, a.Tables, a.Prompts, a.Executor, a.RAG, a.WorkflowMetrics, workflow.StagesConfig{
		TextToSQLModel:   cfg.OpenAI.TextToSQLModel,
		FinalAnswerModel: cfg.OpenAI.FinalAnswerModel,
		EmbeddingModel:   cfg.OpenAI.EmbeddingModel,
	})
	a.Orchestrator = workflow.NewOrchestrator(a.Stages.Handlers(), a.WorkflowMetrics)
	a.Chat = services.NewChatService(a.Orchestrator, services.NewConversationSummaryService(completion, cfg.OpenAI.SummaryModel))

	if promptCache != nil {
		a.CacheWarming = services.NewCacheWarmingService(a.Prompts)
		invalidation := services.NewCacheInvalidationService(promptCache, a.EventBus)
		if err := invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("prompt cache invalidation disabled")
		} else {
			a.CacheInvalidation = invalidation
		}
	}
	return a, nil
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() error {
	if a.CacheInvalidation != nil {
		a.CacheInvalidation.Stop()
	}
	if a.Runner != nil {
		a.Runner.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) connectRedis() *redis.Client {
	if !a.Config.Redis.Enabled {
		log.Info().Msg("Redis disabled, using in-process cache, registry and event bus")
		return nil
	}
	client, err := redis.NewClient(&a.Config.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-process cache, registry and event bus")
		return nil
	}
	a.onClose(client.Close)
	log.Info().Msg("Redis client initialized successfully")
	return client
}

func (a *App) promptRepository(ctx context.Context, pgClient *postgres.Client, redisClient *redis.Client) (repositories.PromptRepository, *database.CachedPromptAdapter, error) {
	if a.Config.Prompts.Store == "memory" {
		log.Info().Msg("using in-memory prompt store")
		return database.NewMemoryPromptAdapter(), nil, nil
	}

	adapter := database.NewPromptAdapter(pgClient, a.Config.Prompts.Table)
	if err := adapter.EnsureSchema(ctx); err != nil {
		return nil, nil, fmt.Errorf("ensure prompt store schema: %w", err)
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient, "model-api")
	} else {
		cacheProvider = cache.NewMemoryAdapter(cacheCleanupInterval)
	}
	cached := database.NewCachedPromptAdapter(adapter, cacheProvider, a.Config.Prompts.CacheTTLSeconds, a.Metrics)
	return cached, cached, nil
}

func (a *App) tableIndex() providers.TableIndex {
	client, err := typesense.NewClient(&a.Config.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, table index is in-memory")
		return search.NewMemoryTableIndex()
	}
	log.Info().Str("collection", client.TableCollection()).Msg("Typesense table index ready")
	return search.NewTypesenseTableIndex(client)
}

func (a *App) documentIndex(ctx context.Context) providers.DocumentIndex {
	client, err := pgvector.NewClient(ctx, &a.Config.VectorStore)
	if err != nil {
		log.Warn().Err(err).Msg("pgvector unavailable, document index is in-memory")
		return search.NewMemoryDocumentIndex()
	}
	a.onClose(func() error {
		client.Close()
		return nil
	})
	return search.NewPgVectorDocumentIndex(client, a.Config.VectorStore.DocumentTable)
}

func (a *App) queryDB(ctx context.Context, pgClient *postgres.Client) (*sql.DB, error) {
	if a.Config.QueryBackend.Driver == "duckdb" {
		client, err := duckdb.NewClient(ctx, &a.Config.QueryBackend)
		if err != nil {
			return nil, fmt.Errorf("init duckdb backend: %w", err)
		}
		a.onClose(client.Close)
		return client.DB(), nil
	}
	return pgClient.DB(), nil
}
