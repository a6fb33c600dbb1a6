package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"chemviz/internal/config"
	apierrors "chemviz/internal/errors"
	"chemviz/internal/exporter"
	"chemviz/internal/files"
	"chemviz/internal/infrastructure"
	customMiddleware "chemviz/internal/middleware"
	"chemviz/internal/services"
	"chemviz/internal/storage"
	handlers "chemviz/internal/transport/http"
	ws "chemviz/internal/websocket"
)

// Application represents the main application container
type Application struct {
	Config *config.Config
	Router *chi.Mux
	Server *http.Server
	Logger *slog.Logger

	Datasets storage.DatasetStore
	Sources  *files.Manager
	Hub      *ws.Hub

	DatasetService *services.DatasetService
	AuthService    *services.AuthService
	HealthService  *services.HealthService

	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
}

// New wires every component from cfg. The caller owns logger; Stop releases
// everything else.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("storage_driver", cfg.Storage.Driver))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Observability), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := a.initializeServices(ctx); err != nil {
		a.release(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	datasets, err := openDatasetStore(ctx, a.Config.Storage, a.Logger)
	if err != nil {
		return err
	}
	a.Datasets = datasets

	sources, err := files.NewManager(a.Config.Storage.UploadsDir(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open uploads directory: %w", err)
	}
	a.Sources = sources

	a.Hub = ws.NewHub(a.Logger, a.Metrics)
	a.Hub.Start()

	renderers := exporter.NewRegistry(
		exporter.JSONRenderer{},
		exporter.XLSXRenderer{},
		exporter.NewPDFRenderer(a.Config.Report, a.Logger),
	)

	a.DatasetService = services.NewDatasetService(datasets, sources, services.DatasetServiceConfig{
		HistoryLimit: a.Config.Storage.HistoryLimit,
		Renderers:    renderers,
		Publisher:    a.Hub,
		Tracer:       a.OTelProviders.Tracer,
		Metrics:      a.Metrics,
	}, a.Logger)

	a.AuthService = services.NewAuthService(a.Config.Security.Auth, a.Logger)
	a.HealthService = services.NewHealthService(config.AppVersion, datasets, a.Hub, a.Logger)

	return nil
}

// openDatasetStore selects the dataset store for the configured driver.
func openDatasetStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.DatasetStore, error) {
	switch cfg.Driver {
	case "memory":
		return storage.NewMemoryStore(logger), nil
	case "file":
		store, err := storage.OpenFileStore(cfg.DatasetsFile(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset file: %w", err)
		}
		return store, nil
	case "postgres":
		store, err := storage.OpenPostgres(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to migrate postgres schema: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}

// setupRouter configures the HTTP router with all routes.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → Timeout.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// The upgrade needs the raw ResponseWriter, so /ws skips the wrapping middleware.
	r.Handle("/ws", ws.NewHandler(a.Hub, a.Config.WebSocket, a.allowedOrigins(), errorHandler, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(errorHandler))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				errorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r, errorHandler)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	validator := customMiddleware.NewValidator(a.Logger)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	authHandler := handlers.NewAuthHandler(a.AuthService, validator, errorHandler, a.Logger)
	datasetHandler := handlers.NewDatasetHandler(a.DatasetService, validator, errorHandler,
		a.Config.Server.MaxUploadBytes, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler.RegisterRoutes(r)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			if a.AuthService.Enabled() {
				r.Use(customMiddleware.TokenAuth(a.AuthService, errorHandler, a.Logger))
			} else {
				a.Logger.Warn("API authentication disabled")
			}

			r.Post("/logout", authHandler.Logout)
			datasetHandler.RegisterRoutes(r)
		})
	})
}

func (a *Application) allowedOrigins() []string {
	if !a.Config.Security.EnableCORS {
		return nil
	}
	return a.Config.Security.AllowedOrigins
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Server.Addr(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves HTTP until ctx is cancelled or the server fails, then shuts
// everything down.
func (a *Application) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening", slog.String("address", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(ctx, "Shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.Stop(shutdownCtx)
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := a.release(ctx); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// release stops background work and closes stores and telemetry.
func (a *Application) release(ctx context.Context) error {
	var errs []error

	if a.Hub != nil {
		a.Hub.Stop()
	}
	if a.Datasets != nil {
		if err := a.Datasets.Close(); err != nil {
			errs = append(errs, fmt.Errorf("dataset store close: %w", err))
		}
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}
