package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"mediapulse/internal/config"
	apierrors "mediapulse/internal/errors"
	"mediapulse/internal/infrastructure"
	"mediapulse/internal/insight"
	customMiddleware "mediapulse/internal/middleware"
	"mediapulse/internal/services"
	handlers "mediapulse/internal/transport/http"
	ws "mediapulse/internal/websocket"
	"mediapulse/pkg/contracts"
)

// AppName is the human readable application name
const AppName = "MediaPulse - Media Intelligence Dashboard"

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.AppMetrics
	WebSocketHub     *ws.Hub
	InsightService   *insight.Service
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	ErrorHandler     *apierrors.ErrorHandler

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// NewApplication wires every component from cfg. The logger is owned by the
// caller.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", cfg.Server.Addr()))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		serveErr:      make(chan error, 1),
	}

	if err := app.initializeServices(); err != nil {
		otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.NewAppMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create application metrics: %w", err)
	}
	a.Metrics = metrics

	hubMetrics, err := ws.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create WebSocket metrics: %w", err)
	}
	hub := ws.NewHub(a.Logger)
	hub.SetMetrics(hubMetrics)
	hub.Start()
	a.WebSocketHub = hub

	insights, err := NewInsightService(a.Config.Insight, a.Logger)
	if err != nil {
		return err
	}
	insights.SetEventSink(hub)
	insights.SetRecorder(metrics)
	a.InsightService = insights

	dashboard := services.NewDashboardService(services.DashboardOptions{
		MaxUploadBytes: a.Config.Upload.MaxBytes,
		DatasetTTL:     a.Config.Upload.DatasetTTL,
	}, insights, a.Logger)
	dashboard.SetEventPublisher(hub)
	dashboard.SetRecorder(metrics)
	a.DashboardService = dashboard

	a.HealthService = services.NewHealthService(contracts.Version, hub, dashboard, insights.Configured(), a.Logger)

	return nil
}

// NewInsightService builds the insight service. Without an API key it is
// created without a generator and every insight is the fallback text.
func NewInsightService(cfg config.InsightConfig, logger *slog.Logger) (*insight.Service, error) {
	opts := insight.Options{
		Timeout:     cfg.Timeout,
		CacheTTL:    cfg.CacheTTL,
		Concurrency: cfg.Concurrency,
	}

	if !cfg.Configured() {
		logger.Warn("Insight API key not set; dashboards will show fallback insights",
			slog.String("env", config.EnvPrefix+"_INSIGHT_API_KEY"),
			slog.String("fallback_env", config.FallbackAPIKeyEnv))
		return insight.NewService(nil, opts, logger), nil
	}

	generator, err := insight.NewOpenAIGenerator(insight.GeneratorConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create insight generator: %w", err)
	}

	logger.Info("Insight generator configured",
		slog.String("base_url", cfg.BaseURL),
		slog.String("model", cfg.Model))
	return insight.NewService(generator, opts, logger), nil
}

// setupRouter builds the middleware chain and mounts every route
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// These don't wrap the ResponseWriter, so they are safe for the WebSocket upgrade
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	upgrader := ws.NewUpgrader(a.Config.WebSocket.ReadBufferSize, a.Config.WebSocket.WriteBufferSize,
		a.Config.Security.AllowedOrigins)
	r.Get("/ws", ws.ServeWS(a.WebSocketHub, upgrader, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → security → CORS → rate limit
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(a.ErrorHandler.Middleware)
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

		a.setupAPIRoutes(r)
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		dashboardHandler := handlers.NewDashboardHandler(
			a.DashboardService,
			customMiddleware.NewValidator(a.Logger),
			a.Config.Upload.MaxBytes,
			a.Logger,
			a.ErrorHandler,
		)
		r.Mount("/datasets", dashboardHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:              a.Config.Server.Addr(),
		Handler:           a.Router,
		ReadTimeout:       a.Config.Server.ReadTimeout,
		ReadHeaderTimeout: a.Config.Server.ReadTimeout,
		WriteTimeout:      a.Config.Server.WriteTimeout,
		IdleTimeout:       a.Config.Server.IdleTimeout,
		MaxHeaderBytes:    a.Config.Server.MaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Start binds the listen address and serves in the background. Bind errors
// are returned; later server errors arrive on Done.
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
		}
		close(a.serveErr)
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", "http://"+ln.Addr().String()),
		slog.Bool("insights_configured", a.InsightService.Configured()),
		slog.Int64("max_upload_bytes", a.Config.Upload.MaxBytes))

	return nil
}

// Addr returns the bound address once started
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return a.Server.Addr
	}
	return a.listener.Addr().String()
}

// Done delivers a server error, or is closed when the server stops cleanly
func (a *Application) Done() <-chan error {
	return a.serveErr
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

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until ctx is cancelled, SIGINT or SIGTERM arrives,
// or the server fails
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Received shutdown signal")
	case serveErr = <-a.serveErr:
	}

	// the parent context is done; give shutdown its own deadline
	stopCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer cancel()
	return errors.Join(serveErr, a.Stop(stopCtx))
}
