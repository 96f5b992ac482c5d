package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"forms-search-indexer/config"
	"forms-search-indexer/consumer"
	"forms-search-indexer/domain"
	"forms-search-indexer/driver"
	"forms-search-indexer/gateway"
	"forms-search-indexer/indexer"
	"forms-search-indexer/logger"
	"forms-search-indexer/usecase"
	appOtel "forms-search-indexer/utils/otel"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// App holds all components of the indexer service.
type App struct {
	httpServer    *http.Server
	poolClose     func()
	redisConsumer *consumer.Consumer
	eventHandler  *consumer.ResponseEventHandler
	otelShutdown  appOtel.ShutdownFunc
}

// Run initializes all components and starts the service.
// It blocks until ctx is cancelled, then performs graceful shutdown.
func Run(ctx context.Context) error {
	// ── OpenTelemetry ──
	otelCfg := appOtel.ConfigFromEnv()
	otelShutdown, err := appOtel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Printf("Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	// ── Logger ──
	logger.InitWithOTel(otelCfg.Enabled)
	logger.Logger.Info("Starting forms-search-indexer",
		"service", otelCfg.ServiceName,
		"otel_enabled", otelCfg.Enabled,
	)

	// ── Load config ──
	appCfg, err := config.Load()
	if err != nil {
		logger.Logger.Error("Failed to load config", "err", err)
		return err
	}

	// ── Drivers (infrastructure layer) ──
	pool, err := initDatabasePool(ctx, appCfg)
	if err != nil {
		logger.Logger.Error("Failed to initialize database pool", "err", err)
		return err
	}
	dbDriver := driver.NewDatabaseDriver(pool)

	msClient, err := initMeilisearchClient(ctx, appCfg)
	if err != nil {
		logger.Logger.Error("Failed to initialize Meilisearch", "err", err)
		pool.Close()
		return err
	}
	searchDriver := driver.NewMeilisearchDriver(msClient, appCfg.Meilisearch.IndexUID)

	// ── Gateways (anti-corruption layer) ──
	responseRepo := gateway.NewResponseRepositoryGateway(dbDriver)
	searchEngine := gateway.NewSearchEngineGateway(searchDriver)

	var workflowGateway *gateway.WorkflowGateway
	if config.WorkflowEnabled {
		workflowGateway = gateway.NewWorkflowGateway(driver.NewWorkflowDriver(pool))
	} else {
		// Every document carries the sentinel state instead.
		workflowGateway = gateway.NewWorkflowGateway(nil)
		logger.Logger.Info("workflow lookups disabled")
	}

	if err := searchEngine.EnsureIndex(ctx); err != nil {
		logger.Logger.Error("Failed to ensure search index", "err", err)
		pool.Close()
		return err
	}

	// ── Use cases (application layer) ──
	builder := domain.NewDocumentBuilder(appCfg.Indexer.Site, logger.Logger)
	indexAll := usecase.NewIndexAllResponsesUsecase(
		responseRepo, workflowGateway, searchEngine, builder,
		appCfg.Indexer.BatchSize, appCfg.Indexer.Concurrency, logger.Logger,
	)
	syncResponse := usecase.NewSyncResponseUsecase(responseRepo, workflowGateway, searchEngine, builder, logger.Logger)
	reindexEngine := usecase.NewReindexEngine(ctx, indexAll, logger.Logger)
	formsIndexer := indexer.New(appCfg.Indexer, responseRepo, syncResponse, reindexEngine)

	// ── Redis Streams Consumer ──
	var redisConsumer *consumer.Consumer
	var eventHandler *consumer.ResponseEventHandler
	consumerCfg := consumer.ConfigFromEnv()
	if consumerCfg.Enabled {
		eventHandler = consumer.NewResponseEventHandler(syncResponse, logger.Logger)
		redisConsumer, err = consumer.NewConsumer(consumerCfg, eventHandler, logger.Logger)
		if err != nil {
			logger.Logger.Error("Failed to create Redis Streams consumer", "err", err)
		} else {
			if err := redisConsumer.Start(ctx); err != nil {
				logger.Logger.Error("Failed to start Redis Streams consumer", "err", err)
			} else {
				logger.Logger.Info("Redis Streams consumer started",
					"stream", consumerCfg.StreamKey,
					"group", consumerCfg.GroupName,
				)
			}
		}
	} else {
		logger.Logger.Info("Redis Streams consumer disabled")
	}

	// ── Scheduled reindex ──
	go runReindexSchedule(ctx, reindexEngine)

	// ── Servers ──
	app := &App{
		httpServer:    newHTTPServer(appCfg, formsIndexer, syncResponse, reindexEngine, initAuthClient(), otelCfg),
		poolClose:     pool.Close,
		redisConsumer: redisConsumer,
		eventHandler:  eventHandler,
		otelShutdown:  otelShutdown,
	}

	go func() {
		logger.Logger.Info("http listen", "addr", appCfg.HTTP.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Error("http", "err", err)
		}
	}()

	// ── Wait for shutdown signal ──
	<-ctx.Done()
	app.shutdown()
	return nil
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http shutdown error", "err", err)
	}
	if a.redisConsumer != nil {
		a.redisConsumer.Stop()
	}
	if a.eventHandler != nil {
		a.eventHandler.Stop()
	}
	if a.poolClose != nil {
		a.poolClose()
	}

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer otelCancel()
	if err := a.otelShutdown(otelCtx); err != nil {
		fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
	}
}

// runReindexSchedule drives the optional startup and periodic full
// reindex runs. Both are off by default; requests landing while a run
// is in flight coalesce into it.
func runReindexSchedule(ctx context.Context, engine *usecase.ReindexEngine) {
	defer func() {
		if r := recover(); r != nil {
			logger.Logger.Error("reindex schedule panic", "err", r)
		}
	}()

	if config.ReindexOnStart {
		runReindexOnce(ctx, engine, "startup")
	}

	if config.ReindexInterval <= 0 {
		return
	}

	ticker := time.NewTicker(config.ReindexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runReindexOnce(ctx, engine, "scheduled")
		}
	}
}

func runReindexOnce(ctx context.Context, engine *usecase.ReindexEngine, phase string) {
	start := time.Now()

	task := engine.RequestFullReindex()
	if task == nil {
		logger.Logger.Info("reindex already in flight, skipping", "phase", phase)
		return
	}

	errs := task.Wait()
	recordReindexRun(ctx, phase, len(errs), time.Since(start))

	if len(errs) > 0 {
		logger.Logger.Error("full reindex finished with errors",
			"phase", phase,
			"run_id", task.RunID,
			"error_count", len(errs),
		)
		return
	}
	logger.Logger.Info("full reindex finished",
		"phase", phase,
		"run_id", task.RunID,
		"duration", time.Since(start),
	)
}

// recordReindexRun records run duration and error metrics.
func recordReindexRun(ctx context.Context, phase string, errorCount int, duration time.Duration) {
	m := appOtel.Metrics
	if m == nil {
		return
	}
	attrs := attribute.String("phase", phase)
	m.ReindexDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs))
	if errorCount > 0 {
		m.ErrorsTotal.Add(ctx, int64(errorCount), metric.WithAttributes(attrs))
	}
}
