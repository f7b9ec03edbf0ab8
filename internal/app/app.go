package app

import (
	"context"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/handlers"
	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/outline"
	"github.com/conspectus/conspectus/internal/services/connections"
	"github.com/conspectus/conspectus/internal/services/documents"
	"github.com/conspectus/conspectus/internal/services/events"
	"github.com/conspectus/conspectus/internal/services/insights"
	"github.com/conspectus/conspectus/internal/services/llm"
	"github.com/conspectus/conspectus/internal/services/podcast"
	"github.com/conspectus/conspectus/internal/services/report"
	"github.com/conspectus/conspectus/internal/services/scheduler"
	"github.com/conspectus/conspectus/internal/services/search"
	"github.com/conspectus/conspectus/internal/services/tts"
	"github.com/conspectus/conspectus/internal/services/youtube"
	"github.com/conspectus/conspectus/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Document library
	DocumentService interfaces.DocumentService
	SearchService   interfaces.SearchService
	ReportService   *report.Service

	// Event-driven services
	EventService     interfaces.EventService
	SchedulerService interfaces.SchedulerService

	// Insight pipeline
	LLMService        interfaces.LLMService
	ConnectionService interfaces.ConnectionService
	InsightService    interfaces.InsightService
	PodcastService    interfaces.PodcastService
	TTSService        interfaces.TTSService
	YouTubeService    interfaces.YouTubeService

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	WSHandler         *handlers.WebSocketHandler
	LogStreamer       *handlers.LogStreamer
	DocumentHandler   *handlers.DocumentHandler
	ConnectionHandler *handlers.ConnectionHandler
	InsightHandler    *handlers.InsightHandler
	PodcastHandler    *handlers.PodcastHandler
	SearchHandler     *handlers.SearchHandler
	YouTubeHandler    *handlers.YouTubeHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// WebSocket handler is created early so services initialized below can
	// publish events that reach connected clients
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger)

	// Stream filtered log lines to connected clients
	app.LogStreamer = handlers.NewLogStreamer(app.WSHandler, &cfg.WebSocket, app.Logger)
	app.LogStreamer.Start()
	app.Logger.SetChannel("websocket", app.LogStreamer.Channel())

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	if err := app.initScheduler(); err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	logger.Info().
		Str("llm_provider", app.LLMService.Provider()).
		Bool("tts_available", app.TTSService.Available()).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage initializes the storage layer (Badger)
func (a *App) initStorage() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	var err error

	extractor := outline.NewExtractor(a.Config.Outline, nil, a.Logger)

	a.DocumentService, err = documents.NewService(
		a.StorageManager,
		extractor,
		a.EventService,
		&a.Config.Storage.Filesystem,
		a.Logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize document service: %w", err)
	}

	a.SearchService = search.NewService(a.DocumentService, &a.Config.Search, a.Logger)
	a.ReportService = report.NewService(a.DocumentService, a.Logger)

	a.LLMService, err = llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM service: %w", err)
	}

	a.ConnectionService = connections.NewService(a.DocumentService, a.LLMService, a.Logger)
	a.InsightService = insights.NewService(
		a.DocumentService,
		a.StorageManager.InsightStorage(),
		a.LLMService,
		a.Logger,
	)

	a.TTSService = tts.NewService(&a.Config.TTS, a.Logger)

	if err := os.MkdirAll(a.Config.Storage.Filesystem.Audio, 0755); err != nil {
		return fmt.Errorf("failed to create audio directory: %w", err)
	}
	a.PodcastService, err = podcast.NewService(
		a.LLMService,
		a.TTSService,
		a.StorageManager.PodcastStorage(),
		a.Config.Storage.Filesystem.Audio,
		a.Logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize podcast service: %w", err)
	}

	a.YouTubeService, err = youtube.NewService(&a.Config.YouTube, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize youtube service: %w", err)
	}

	// Rebuild the heading index whenever the library changes
	reindex := func(ctx context.Context, event interfaces.Event) error {
		return a.SearchService.Reindex(ctx)
	}
	for _, eventType := range []interfaces.EventType{
		interfaces.EventOutlineGenerated,
		interfaces.EventDocumentDeleted,
		interfaces.EventLibrarySynced,
	} {
		if err := a.EventService.Subscribe(eventType, reindex); err != nil {
			return fmt.Errorf("failed to subscribe search reindex: %w", err)
		}
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler()
	a.DocumentHandler = handlers.NewDocumentHandler(
		a.DocumentService,
		a.ReportService,
		a.Config.Server.MaxUploadSize,
		a.Logger,
	)
	a.ConnectionHandler = handlers.NewConnectionHandler(a.ConnectionService, a.Logger)
	a.InsightHandler = handlers.NewInsightHandler(a.InsightService, a.Logger)
	a.PodcastHandler = handlers.NewPodcastHandler(a.PodcastService, a.Logger)
	a.SearchHandler = handlers.NewSearchHandler(a.SearchService, a.Logger)
	a.YouTubeHandler = handlers.NewYouTubeHandler(a.YouTubeService, a.Logger)

	return nil
}

// initScheduler registers the background jobs and starts the scheduler
func (a *App) initScheduler() error {
	a.SchedulerService = scheduler.NewService(a.Logger)

	if !a.Config.Scheduler.Enabled {
		a.Logger.Info().Msg("Scheduler disabled by configuration")
		return nil
	}

	if err := a.SchedulerService.RegisterJob("library_sync", a.Config.Scheduler.SyncSchedule, func() error {
		_, err := a.DocumentService.Sync(context.Background())
		return err
	}); err != nil {
		return fmt.Errorf("failed to register library sync job: %w", err)
	}

	if err := a.SchedulerService.RegisterJob("search_reindex", a.Config.Scheduler.IndexSchedule, func() error {
		return a.SearchService.Reindex(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to register search reindex job: %w", err)
	}

	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return nil
}

// Close shuts down all application components in reverse dependency order
func (a *App) Close() error {
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler shutdown failed")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("LLM service shutdown failed")
		}
	}

	if a.LogStreamer != nil {
		if err := a.LogStreamer.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Log streamer shutdown failed")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Event service shutdown failed")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
