package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	promclient "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"fishstat/internal/config"
	apperrors "fishstat/internal/errors"
	"fishstat/internal/infrastructure"
	customMiddleware "fishstat/internal/middleware"
	"fishstat/internal/operations"
	"fishstat/internal/services"
	handlers "fishstat/internal/transport/http"
	"fishstat/pkg/contracts"
)

// Application wires the serve command: telemetry, the pipeline
// components, the dataset services and the HTTP server.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Router        *chi.Mux
	Server        *http.Server
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	Components    *operations.Components
	Dataset       *services.DatasetService
	Health        *services.HealthService
	ErrorHandler  *apperrors.ErrorHandler
}

// Option customizes New
type Option func(*options)

type options struct {
	registry *promclient.Registry
}

// WithPrometheusRegistry registers the metrics collector on reg instead
// of the process-wide default registry
func WithPrometheusRegistry(reg *promclient.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// New creates the application. Nothing is loaded or served until Load
// and Run are called.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, apperrors.NewConfigError("configuration is required", nil)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	otelCfg := infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version)
	otelCfg.Registry = o.registry
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	components, err := operations.NewComponents(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	components.Tracer = providers.Tracer

	dataset := services.NewDatasetService(components, logger)

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		Components:    components,
		Dataset:       dataset,
		Health:        services.NewHealthService(contracts.Version, dataset, logger),
		ErrorHandler:  apperrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// Load reads, cleans and reshapes the input table served by the API
func (a *Application) Load(ctx context.Context, input string) error {
	return a.Dataset.Load(ctx, input)
}

// LoadExport serves a long-format CSV written by an earlier run
func (a *Application) LoadExport(ctx context.Context, path string) error {
	return a.Dataset.LoadExport(ctx, path)
}

// setupRouter configures the middleware chain and routes. RequestID
// comes first so every later layer can log the id.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Telemetry(a.OTelProviders.Tracer, a.Metrics))
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(a.ErrorHandler.Recoverer)
	r.Use(customMiddleware.SecurityHeaders)

	if rl := a.Config.Server.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)

	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/health/ready", healthHandler.ReadinessCheck)
	r.Get("/health/live", healthHandler.LivenessCheck)
	r.Get("/version", healthHandler.Version)

	r.Route("/api/"+contracts.APIVersion, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		datasetHandler := handlers.NewDatasetHandler(a.Dataset, a.Logger, a.ErrorHandler)
		r.Mount("/", datasetHandler.Routes())
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	s := a.Config.Server
	a.Server = &http.Server{
		Addr:         net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Handler:      a.Router,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
	}
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives, then shuts the
// server down within the configured shutdown timeout and flushes
// telemetry.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return apperrors.NewIOError("failed to listen", a.Server.Addr, err)
	}
	return a.Serve(ctx, listener)
}

// Serve serves on listener until ctx is done
func (a *Application) Serve(ctx context.Context, listener net.Listener) error {
	a.Logger.InfoContext(ctx, "server starting",
		slog.String("version", contracts.Version),
		slog.String("addr", listener.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()

		a.Logger.InfoContext(shutdownCtx, "server shutting down")
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if shutdownErr := a.OTelProviders.Shutdown(flushCtx); shutdownErr != nil {
		a.Logger.WarnContext(flushCtx, "telemetry shutdown failed",
			slog.String("error", shutdownErr.Error()))
	}

	if err != nil {
		return err
	}
	a.Logger.Info("server stopped")
	return nil
}
