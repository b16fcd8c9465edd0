// -----------------------------------------------------------------------
// Application wiring - builds and owns every service
// -----------------------------------------------------------------------

package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/handlers"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/scheduler"
	"github.com/ternarybob/odyssey/internal/services/ai"
	"github.com/ternarybob/odyssey/internal/services/events"
	"github.com/ternarybob/odyssey/internal/services/github"
	"github.com/ternarybob/odyssey/internal/services/scraper"
	"github.com/ternarybob/odyssey/internal/stages"
	"github.com/ternarybob/odyssey/internal/storage/badger"
	"github.com/ternarybob/odyssey/internal/storage/blobs"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	BlobStore      *blobs.FilesystemStore

	EventService   interfaces.EventService
	ScraperService interfaces.ScraperService
	GitHubService  interfaces.GitHubService
	AIService      interfaces.AIService

	Registry  *scheduler.Registry
	Scheduler *scheduler.Scheduler

	JobHandler *handlers.JobHandler
	WSHandler  *handlers.WebSocketHandler
	APIHandler *handlers.APIHandler
}

// New wires the application from configuration
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	blobStore, err := blobs.NewFilesystemStore(&config.Storage.Blobs, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}

	aiService, err := ai.NewAIService(&config.AI, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize ai gateway: %w", err)
	}

	eventService := events.NewBus(logger)
	scraperService := scraper.NewService(config.Scraper, logger)
	githubService := github.NewService(&config.GitHub, logger)

	registry := scheduler.NewRegistry(&config.Registry, eventService, logger)

	handlerTable := stages.NewHandlers(stages.Deps{
		AI:      aiService,
		Scraper: scraperService,
		GitHub:  githubService,
		History: storageManager.HistoryStorage(),
		Auth:    storageManager.AuthStorage(),
		Blobs:   blobStore,
		Video:   &config.Video,
		Logger:  logger,
	})
	sched := scheduler.NewScheduler(registry, handlerTable, eventService, logger)

	app := &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		BlobStore:      blobStore,
		EventService:   eventService,
		ScraperService: scraperService,
		GitHubService:  githubService,
		AIService:      aiService,
		Registry:       registry,
		Scheduler:      sched,
		JobHandler:     handlers.NewJobHandler(registry, sched, storageManager.HistoryStorage(), config, logger),
		WSHandler:      handlers.NewWebSocketHandler(registry, eventService, &config.Server, logger),
		APIHandler:     handlers.NewAPIHandler(logger),
	}

	if err := registry.Start(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to start registry sweep: %w", err)
	}

	logger.Info().
		Str("ai_provider", aiService.Provider()).
		Msg("Application initialized")
	return app, nil
}

// Close releases everything the app owns
func (a *App) Close() {
	if a.Registry != nil {
		a.Registry.Stop()
	}
	if a.AIService != nil {
		if err := a.AIService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("AI gateway close failed")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close failed")
		}
	}
}
