package commands

import (
	"context"
	"fmt"

	"vademecum/internal/embedding"
	"vademecum/internal/metrics"
	"vademecum/internal/parser"
	"vademecum/internal/repository"
	"vademecum/internal/service"
	"vademecum/pkg/config"
	"vademecum/pkg/logger"
	"vademecum/pkg/postgres"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// engine bundles the services every command works with.
type engine struct {
	logger       *zap.Logger
	registry     *prometheus.Registry
	extractor    *service.TextExtractor
	ingestion    *service.IngestionService
	retrieval    *service.RetrievalService
	interactions *service.InteractionService
	contexts     *service.ContextService
	closers      []func()
}

func buildEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	appLogger := logger.Get()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	e := &engine{logger: appLogger, registry: registry}

	store, closeStore, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, closeStore)

	provider, err := embedding.New(ctx, &cfg.Embedding, &cfg.GigaChat, appLogger)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	embedder := service.NewEmbeddingService(provider, &cfg.Engine, &cfg.Embedding, m, appLogger)

	p := parser.New(parser.Options{
		MinSectionLength: cfg.Engine.MinSectionLength,
		MinNameLength:    cfg.Engine.MinNameLength,
	}, appLogger)

	e.extractor = service.NewTextExtractor(appLogger)
	e.ingestion = service.NewIngestionService(e.extractor, p, embedder, store, m, appLogger)
	e.retrieval = service.NewRetrievalService(store, embedder, &cfg.Engine, m, appLogger)
	e.interactions = service.NewInteractionService(e.retrieval, &cfg.Engine, appLogger)
	e.contexts = service.NewContextService(e.interactions, appLogger)

	appLogger.Info("Engine ready",
		zap.String("store", cfg.Store.Backend),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)
	return e, nil
}

// Close releases resources in reverse acquisition order.
func (e *engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// requirePersistentStore rejects the in-process backend for commands that
// exit after one operation: nothing they write would outlive the process.
func requirePersistentStore(cfg *config.Config, command string) error {
	if cfg.Store.Backend == config.BackendMemory {
		return fmt.Errorf("%s: STORE_BACKEND=memory only works with serve", command)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, appLogger *zap.Logger) (repository.MedicationStore, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, cfg.Embedding.Dimensions, appLogger); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return repository.NewMedicationRepository(pool, appLogger), pool.Close, nil

	case config.BackendQdrant:
		store, err := repository.NewQdrantMedicationRepository(ctx, repository.QdrantOptions{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			APIKey:     cfg.Qdrant.APIKey,
			UseTLS:     cfg.Qdrant.UseTLS,
			Collection: cfg.Qdrant.Collection,
			VectorSize: uint64(cfg.Embedding.Dimensions),
		}, appLogger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.BackendMemory:
		appLogger.Warn("Using in-process store, records are lost on shutdown")
		return repository.NewMemoryMedicationRepository(appLogger), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
