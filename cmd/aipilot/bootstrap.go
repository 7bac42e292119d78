package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/ai"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/cache/redis"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/config/file"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/queue"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/storage/localfs"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/storage/memory"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/storage/postgres"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/storage/sqlite"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/cli"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/worker"
	"github.com/All-Pilot-Modules/ai-pilot/internal/chunking"
	"github.com/All-Pilot-Modules/ai-pilot/internal/config"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/services"
	"github.com/All-Pilot-Modules/ai-pilot/internal/extractors"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// application holds the wired services and the resources to release.
type application struct {
	services *cli.Services
	closers  []func()
}

// Close releases resources in reverse order of creation.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *application) onClose(name string, fn func() error) {
	a.closers = append(a.closers, func() {
		if err := fn(); err != nil {
			logger.Warn("closing %s: %v", name, err)
		}
	})
}

// bootstrap loads settings and wires every adapter into the core services.
func bootstrap() (*application, error) {
	if err := config.LoadDotEnv(os.Getenv(config.EnvPrefix + "ENV_FILE")); err != nil {
		logger.Warn("%v", err)
	}

	fileStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(config.NewOverlay(fileStore), ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	app := &application{}

	store, files, err := openStorage(settings.Storage)
	if err != nil {
		return nil, err
	}
	app.onClose("store", store.Close)

	prompts, err := file.NewPromptStore("")
	if err != nil {
		logger.Warn("prompt store unavailable: %v", err)
	}
	var promptStore driven.PromptStore
	if prompts != nil {
		promptStore = prompts
	}

	aiResult := ai.Init(settings, promptStore, false)
	for _, w := range aiResult.Warnings {
		logger.Debug("%s", w)
	}
	app.closers = append(app.closers, aiResult.Close)

	chunker, err := chunking.DefaultRegistry().Build(settings.Chunking.Strategy, settings.Chunking.Options)
	if err != nil {
		return nil, fmt.Errorf("chunking settings: %w", err)
	}

	extraction := services.NewExtractionService(extractors.DefaultRegistry(), aiResult.AssistedExtractor())
	status := services.NewStatusService(store)

	var embeddings *services.EmbeddingGenerator
	if aiResult.EmbeddingService != nil {
		embeddings = services.NewEmbeddingGenerator(store, aiResult.EmbeddingService, status, settings.Embedding.BatchSize)
	}

	ingest := services.NewIngestService(store, files, extraction, chunker, status, embeddings)
	retrieval := services.NewRetrievalService(store, aiResult.EmbeddingService, settings.Retrieval)

	app.services = &cli.Services{
		Ingest:     ingest,
		Document:   services.NewDocumentService(store, files),
		Status:     status,
		Extraction: extraction,
		Retrieval:  retrieval,
		Settings:   settingsService,
	}
	if embeddings != nil {
		app.services.Embeddings = embeddings
	}

	if settings.Redis.URL != "" {
		wireRedis(app, settings, retrieval, ingest)
	}

	return app, nil
}

// openStorage opens the configured document store and its file store.
func openStorage(cfg domain.StorageSettings) (driven.Store, driven.FileStore, error) {
	if cfg.Backend == domain.StorageMemory {
		return memory.NewStore(), memory.NewFileStore(), nil
	}

	var (
		store driven.Store
		err   error
	)
	switch cfg.Backend {
	case domain.StoragePostgres:
		store, err = postgres.Open(cfg.PostgresDSN)
	default:
		store, err = sqlite.NewStore(cfg.DataDir)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s store: %w", cfg.Backend, err)
	}

	root, err := uploadDir(cfg.DataDir)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	files, err := localfs.NewFileStore(root)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, files, nil
}

// uploadDir places uploads next to the data directory.
func uploadDir(dataDir string) (string, error) {
	if dataDir != "" {
		return filepath.Join(dataDir, "uploads"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".aipilot", "uploads"), nil
}

// wireRedis enables the query cache, the task queue and the worker.
// A redis that cannot be reached only disables the cache.
func wireRedis(
	app *application,
	settings *domain.AppSettings,
	retrieval *services.RetrievalService,
	ingest *services.IngestService,
) {
	ctx := context.Background()

	rdb, err := redis.NewClient(ctx, settings.Redis.URL)
	if err != nil {
		logger.Warn("query cache disabled: %v", err)
	} else {
		cache := redis.NewQueryCache(rdb, settings.Redis.QueryCacheTTL)
		retrieval.SetQueryCache(cache)
		app.onClose("query cache", cache.Close)
	}

	opt, err := queue.RedisOpt(settings.Redis.URL)
	if err != nil {
		logger.Warn("task queue disabled: %v", err)
		return
	}
	dispatcher := queue.NewDispatcher(opt, settings.Worker.Queue)
	app.services.Dispatcher = dispatcher
	app.onClose("task queue", dispatcher.Close)

	handlers := worker.NewHandlers(ingest, app.services.Embeddings)
	cfg := worker.Config{Concurrency: settings.Worker.Concurrency, Queue: settings.Worker.Queue}
	app.services.Worker = func(ctx context.Context) error {
		return worker.Run(ctx, opt, cfg, handlers)
	}
}
