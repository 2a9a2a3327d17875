package app

import (
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"dtindex/internal/cache"
	"dtindex/internal/config"
	"dtindex/internal/dataprocessing"
	apierrors "dtindex/internal/errors"
	"dtindex/internal/exporter"
	"dtindex/internal/infrastructure"
	customMiddleware "dtindex/internal/middleware"
	"dtindex/internal/scheduler"
	"dtindex/internal/services"
	handlers "dtindex/internal/transport/http"
	ws "dtindex/internal/websocket"
	"dtindex/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	WebSocketHub *ws.Hub
	Scheduler    *scheduler.Scheduler
	Redis        *redis.Client
	QueryCache   *cache.QueryCache
	Services     *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dataset  *services.DatasetService
	Lookup   *services.LookupService
	Explorer *services.ExplorerService
	Health   *services.HealthService
}

// NewApplication loads the configuration and the logger, then builds the
// application from them
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component for cfg. Nothing listens until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("dataset_source", cfg.Dataset.Source))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Observability), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if otelProviders.Meter != nil {
		if app.Metrics, err = infrastructure.CreateBusinessMetrics(otelProviders.Meter); err != nil {
			return nil, fmt.Errorf("failed to create business metrics: %w", err)
		}
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	ctx := context.Background()

	// The query cache is optional; a Redis outage at startup only disables it
	rdb, err := cache.NewRedisClient(ctx, a.Config.Cache, a.Logger)
	if err != nil {
		a.Logger.Warn("Query cache disabled", slog.String("error", err.Error()))
	}
	a.Redis = rdb
	a.QueryCache = cache.NewQueryCache(rdb, a.Config.Cache.TTL, a.Config.Cache.Namespace, a.Metrics)

	hub := ws.NewHub(a.Logger, a.Metrics)
	hub.Start()
	a.WebSocketHub = hub

	datasetCfg := a.Config.Dataset
	dataset := services.NewDatasetService(
		func() (dataprocessing.Source, []string, error) {
			return services.BuildSource(datasetCfg, a.Logger)
		},
		services.DatasetOptions{
			Schema:      services.SchemaFrom(a.Config.Explorer),
			Limits:      services.LimitsFrom(a.Config.Explorer),
			LoadTimeout: datasetCfg.LoadTimeout,
			Cache:       a.QueryCache,
			Metrics:     a.Metrics,
			Publisher:   hub,
			Logger:      a.Logger,
		},
	)

	sched, err := scheduler.New(datasetCfg, dataset, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create reload scheduler: %w", err)
	}
	a.Scheduler = sched

	a.Services = &ServiceContainer{
		Dataset:  dataset,
		Lookup:   services.NewLookupService(dataset, a.Config.Lookup, a.QueryCache, a.Metrics, a.Logger),
		Explorer: services.NewExplorerService(dataset, a.QueryCache, a.Metrics, a.Logger),
		Health: services.NewHealthService(contracts.Version, contracts.BuildTime,
			dataset, hub, a.QueryCache.Enabled(), a.Logger),
	}
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := handlers.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	validator := customMiddleware.NewValidator()

	// Middleware that leaves the ResponseWriter alone so websocket upgrades work
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(errorHandler))
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.SecurityHeaders)
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	upgrader := ws.NewUpgrader(a.Config.WebSocket.ReadBufferSize, a.Config.WebSocket.WriteBufferSize,
		a.Config.Security.AllowedOrigins)
	r.Handle("/ws", handlers.NewWebSocketHandler(a.WebSocketHub, upgrader, a.Logger))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(customMiddleware.Compress(flate.DefaultCompression))
		a.setupAPIRoutes(r, errorHandler, validator)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(a.Config.Observability.MetricsPath, a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler, validator *customMiddleware.Validator) {
	health := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Get("/api/health", health.HealthCheck)
	r.Get("/api/health/ready", health.ReadinessCheck)
	r.Get("/api/health/live", health.LivenessCheck)
	r.Get("/api/version", health.Version)

	var schedule handlers.NextReloader
	if a.Scheduler != nil {
		schedule = a.Scheduler
	}
	dataset := handlers.NewDatasetHandler(a.Services.Dataset, schedule, a.Logger, errorHandler)
	r.Mount("/api/dataset", dataset.Routes(customMiddleware.APIKeyAuth(a.Config.Security.ReloadAPIKey, a.Logger)))

	lookup := handlers.NewLookupHandler(a.Services.Lookup, validator, a.Logger, errorHandler)
	r.Mount("/api/lookup", lookup.Routes())

	explorer := handlers.NewExplorerHandler(a.Services.Explorer,
		exporter.New(config.ExportFilePrefix, a.Logger), validator, a.Logger, errorHandler)
	r.Mount("/api/explorer", explorer.Routes())
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start loads the dataset in the background, starts the reload schedule and
// begins serving. Server errors cancel ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	// Warm the dataset so the first dashboard request does not pay for the load
	go func() {
		loadCtx := infrastructure.EnsureTraceID(context.Background())
		if _, err := a.Services.Dataset.Snapshot(loadCtx); err != nil {
			a.Logger.WarnContext(loadCtx, "Initial dataset load failed", slog.String("error", err.Error()))
		}
	}()

	a.Scheduler.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.Scheduler.Stop(shutdownCtx)
	a.WebSocketHub.Stop()

	if err := a.QueryCache.Close(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing query cache", slog.String("error", err.Error()))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("log file close error: %w", err))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped, shutting down")
	}

	return a.Stop(context.Background())
}
