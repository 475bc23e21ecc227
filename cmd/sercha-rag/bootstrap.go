package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/generation"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/index/tfidf"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// stores groups the durable stores selected by storage.backend.
type stores struct {
	documents driven.DocumentStore
	history   driven.HistoryStore
	scheduler driven.SchedulerStore
	close     func() error
}

// bootstrap wires adapters into services for one command invocation.
func bootstrap(configDir string) (*cli.Services, func(), error) {
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		configDir = dir
	}

	if err := file.LoadEnvFiles(configDir); err != nil {
		logger.Warn("%v", err)
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, generation.NewValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	st, err := openStores(settings.Storage, filepath.Join(configDir, "data"))
	if err != nil {
		return nil, nil, err
	}

	pipeline, err := postprocessors.BuildPipeline(domain.PipelineConfigFor(settings.Chunking))
	if err != nil {
		st.close() //nolint:errcheck
		return nil, nil, fmt.Errorf("building ingest pipeline: %w", err)
	}

	index := tfidf.New()
	ingestService := services.NewIngestService(st.documents, index, pipeline, normalisers.Default())

	// The lexical index lives in memory and is rebuilt from the store.
	if n, err := ingestService.Rebuild(context.Background()); err != nil {
		logger.Warn("rebuilding index: %v", err)
	} else {
		logger.Debug("index rebuilt with %d chunk(s)", n)
	}

	backend, prompts := newBackend(settings, configDir)
	stopReload := reloadOnHangup(prompts)
	cache := memory.NewQueryCache(settings.Cache.Capacity, settings.Cache.TTL)
	router := services.NewRouter()

	queryService := services.NewQueryService(
		router, index, backend, cache, st.history, services.QueryConfigFrom(settings),
	)
	historyService := services.NewHistoryService(st.history, cache, settings.History.RetentionDays)
	scheduler := services.NewScheduler(settings.Scheduler, st.scheduler, ingestService, historyService)

	cleanup := func() {
		stopReload()
		if backend != nil {
			if err := backend.Close(); err != nil {
				logger.Debug("closing generation backend: %v", err)
			}
		}
		if err := st.close(); err != nil {
			logger.Warn("closing store: %v", err)
		}
	}

	return &cli.Services{
		Query:           queryService,
		Router:          router,
		Ingest:          ingestService,
		History:         historyService,
		Settings:        settingsService,
		Scheduler:       scheduler,
		SchedulerConfig: settings.Scheduler,
	}, cleanup, nil
}

func openStores(backend domain.StorageBackend, dataDir string) (*stores, error) {
	if backend == domain.StorageMemory {
		logger.Debug("using in-memory storage; nothing survives exit")
		return &stores{
			documents: memory.NewDocumentStore(),
			history:   memory.NewHistoryStore(),
			scheduler: memory.NewSchedulerStore(),
			close:     func() error { return nil },
		}, nil
	}

	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("using sqlite storage at %s", db.Path())
	return &stores{
		documents: db.DocumentStore(),
		history:   db.HistoryStore(),
		scheduler: db.SchedulerStore(),
		close:     db.Close,
	}, nil
}

// newBackend returns a nil backend when generation is not configured, in
// which case every answer is the fallback. The start-up ping is skipped so
// commands that never generate stay fast; the breaker handles an
// unreachable backend.
func newBackend(settings *domain.AppSettings, configDir string) (driven.GenerationBackend, *file.PromptStore) {
	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		logger.Warn("loading prompts: %v", err)
	}

	opts := generation.Options{Breaker: &settings.Breaker, SkipPing: true}
	if prompts != nil {
		opts.Prompts = prompts
	}

	backend, err := generation.CreateAndValidateBackend(&settings.Generation, opts)
	if err != nil {
		logger.Warn("%v", err)
		return nil, prompts
	}
	if backend == nil {
		logger.Debug("no generation provider configured; answers will fall back")
	}
	return backend, prompts
}

// reloadOnHangup drops cached prompts on SIGHUP. The returned function
// stops listening.
func reloadOnHangup(prompts *file.PromptStore) func() {
	if prompts == nil {
		return func() {}
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-hup:
				prompts.Reload()
				logger.Info("prompts reloaded")
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(hup)
		close(done)
	}
}
