// Package di assembles the application object graph explicitly
package di

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/application/services"
	domainservices "secondbrain-backend/domain/services"
	"secondbrain-backend/infrastructure/ai/gemini"
	"secondbrain-backend/infrastructure/config"
	"secondbrain-backend/infrastructure/observability"
	dynamostore "secondbrain-backend/infrastructure/persistence/dynamodb"
	memorystore "secondbrain-backend/infrastructure/persistence/memory"
	supabasestore "secondbrain-backend/infrastructure/persistence/supabase"
	"secondbrain-backend/interfaces/http/rest"
)

// Container holds every constructed component
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	Nodes     ports.NodeRepository
	Edges     ports.EdgeRepository
	Documents ports.DocumentRepository

	AIClient    ports.AIClient
	Graph       *services.GraphService
	Suggestions *services.SuggestionService
	Ingestion   *services.IngestionService
	Search      *services.SearchService
	Assistant   *services.AssistantService

	Watcher *config.ThresholdWatcher
	Handler http.Handler
}

// NewContainer builds the full object graph from configuration
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := buildLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	metrics := observability.NewMetrics()

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	}

	if err := c.buildRepositories(ctx); err != nil {
		return nil, err
	}

	c.AIClient = gemini.NewClient(gemini.Config{
		APIKeys:         cfg.AI.APIKeys,
		BaseURL:         cfg.AI.BaseURL,
		Model:           cfg.AI.Model,
		MinRequestDelay: cfg.AI.MinRequestDelay,
		RequestTimeout:  cfg.AI.RequestTimeout,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
		Temperature:     cfg.AI.Temperature,
		TopK:            cfg.AI.TopK,
		TopP:            cfg.AI.TopP,
	}, logger, metrics)

	projector := domainservices.NewViewProjector()
	embeddings := domainservices.NewEmbeddingService(domainservices.DefaultEmbeddingConfig())

	c.Graph = services.NewGraphService(c.Nodes, c.Edges, services.GraphServiceConfig{
		CacheTTL: cfg.Graph.CacheTTL,
	}, logger, metrics)

	c.Suggestions = services.NewSuggestionService(c.Graph, c.Edges, c.AIClient, embeddings, services.SuggestionConfig{
		MinConfidence:  cfg.Suggestion.MinConfidence,
		HighConfidence: cfg.Suggestion.HighConfidence,
		CandidateLimit: cfg.Suggestion.CandidateLimit,
		DefaultLimit:   cfg.Suggestion.DefaultLimit,
	}, logger, metrics)

	c.Ingestion = services.NewIngestionService(c.Documents, c.Graph, c.AIClient, logger, metrics)
	c.Search = services.NewSearchService(c.Graph, c.Documents, projector, c.AIClient, logger)
	c.Assistant = services.NewAssistantService(c.Graph, c.AIClient, logger)

	if err := c.setupThresholdWatcher(); err != nil {
		logger.Warn("Threshold hot-reload disabled", zap.Error(err))
	}

	router := rest.NewRouter(cfg, c.Graph, c.Suggestions, c.Ingestion, c.Search, c.Assistant, c.Documents, projector, metrics, logger)
	c.Handler = router.Setup()

	logger.Info("Container initialized",
		zap.String("environment", string(cfg.Environment)),
		zap.String("persistence_driver", cfg.Persistence.Driver),
		zap.Bool("ai_enabled", c.AIClient.Enabled()),
	)
	return c, nil
}

func (c *Container) buildRepositories(ctx context.Context) error {
	switch c.Config.Persistence.Driver {
	case "supabase":
		client, err := supabasestore.NewClient(supabasestore.Config{
			URL:        c.Config.Persistence.SupabaseURL,
			ServiceKey: c.Config.Persistence.SupabaseServiceKey,
		})
		if err != nil {
			return fmt.Errorf("supabase client: %w", err)
		}
		c.Nodes = supabasestore.NewNodeRepository(client, c.Metrics)
		c.Edges = supabasestore.NewEdgeRepository(client, c.Metrics)
		c.Documents = supabasestore.NewDocumentRepository(client, c.Metrics)

	case "dynamodb":
		client, err := dynamostore.NewClient(ctx, dynamostore.Config{
			Region:    c.Config.Persistence.DynamoDBRegion,
			TableName: c.Config.Persistence.DynamoDBTable,
		})
		if err != nil {
			return fmt.Errorf("dynamodb client: %w", err)
		}
		table := c.Config.Persistence.DynamoDBTable
		c.Nodes = dynamostore.NewNodeRepository(client, table, c.Logger, c.Metrics)
		c.Edges = dynamostore.NewEdgeRepository(client, table, c.Logger, c.Metrics)
		c.Documents = dynamostore.NewDocumentRepository(client, table, c.Logger, c.Metrics)

	case "memory":
		c.Nodes = memorystore.NewNodeRepository()
		c.Edges = memorystore.NewEdgeRepository()
		c.Documents = memorystore.NewDocumentRepository()

	default:
		return fmt.Errorf("unknown persistence driver: %s", c.Config.Persistence.Driver)
	}
	return nil
}

// setupThresholdWatcher wires hot-reload of suggestion thresholds from the
// file named by THRESHOLDS_FILE, when set
func (c *Container) setupThresholdWatcher() error {
	path := os.Getenv("THRESHOLDS_FILE")
	if path == "" {
		return nil
	}

	watcher, err := config.NewThresholdWatcher(path, c.Config.Suggestion, c.Logger)
	if err != nil {
		return err
	}

	watcher.OnChange(func(thresholds config.SuggestionConfig) {
		c.Suggestions.UpdateConfig(services.SuggestionConfig{
			MinConfidence:  thresholds.MinConfidence,
			HighConfidence: thresholds.HighConfidence,
			CandidateLimit: thresholds.CandidateLimit,
			DefaultLimit:   thresholds.DefaultLimit,
		})
	})
	watcher.Start()

	c.Watcher = watcher
	return nil
}

// Shutdown releases everything the container owns
func (c *Container) Shutdown() {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	_ = c.Logger.Sync()
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
