package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"statedash/internal/config"
	apierrors "statedash/internal/errors"
	"statedash/internal/infrastructure"
	customMiddleware "statedash/internal/middleware"
	"statedash/internal/render"
	"statedash/internal/services"
	"statedash/internal/sources"
	handlers "statedash/internal/transport/http"
	ws "statedash/internal/websocket"
	"statedash/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.BusinessMetrics
	ErrorHandler     *apierrors.ErrorHandler
	WebSocketHub     *ws.Hub
	DashboardService *services.DashboardService
	HealthService    *services.HealthService

	mu       sync.Mutex
	listener net.Listener
	group    *errgroup.Group
	groupCtx context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	stopErr  error
}

// NewApplication loads configuration and logging and wires every component
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

// New wires an application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("address", cfg.Address()))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		logger.Warn("Business metrics unavailable, continuing without them",
			slog.String("error", err.Error()))
		metrics = infrastructure.NewNoopBusinessMetrics()
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	app.initializeServices()

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() {
	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics)

	a.DashboardService = services.NewDashboardService(
		sources.NewURLFetcher(a.Config.Dataset, a.Logger),
		sources.NewFileReader(a.Config.Dataset, a.Logger),
		a.WebSocketHub,
		a.Metrics,
		render.Options{
			TopBars:   a.Config.Dashboard.TopBars,
			TableRows: a.Config.Dashboard.TableRows,
		},
		a.Logger,
	)

	a.HealthService = services.NewHealthService(
		contracts.Version,
		contracts.BuildTime,
		a.DashboardService,
		a.WebSocketHub,
		a.Logger,
	)
}

// setupRouter builds the chi router. The websocket route sits outside the
// main group so no middleware wraps the hijacked connection.
func (a *Application) setupRouter() error {
	page, err := render.NewPage()
	if err != nil {
		return err
	}

	maxBytes := a.Config.Dataset.MaxBytes
	validator := customMiddleware.NewValidator(a.Logger)
	queryValidator := customMiddleware.NewQueryParamValidator(a.Logger)

	dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, validator, queryValidator, maxBytes, a.Logger, a.ErrorHandler)
	pageHandler := handlers.NewPageHandler(a.DashboardService, page, config.AppName, contracts.Version, maxBytes, a.Logger, a.ErrorHandler)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	wsHandler := handlers.NewWebSocketHandler(
		a.WebSocketHub,
		a.newUpgrader(),
		a.Config.WebSocket,
		a.Logger,
		a.ErrorHandler,
	)

	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Safe for websocket: neither wraps the ResponseWriter
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle(config.WebSocketEndpoint, wsHandler)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Route(config.APIBasePath, func(r chi.Router) {
			r.Mount("/dashboard", dashboardHandler.Routes())
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)
			r.Get("/ws/stats", wsHandler.Stats)
		})

		r.Mount("/", pageHandler.Routes())
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
	return nil
}

func (a *Application) newUpgrader() *websocket.Upgrader {
	return ws.NewUpgrader(a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
}

// getCORSConfig returns CORS configuration for the API and dashboard
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins:   a.Config.Security.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Addr returns the address the server is listening on, or the configured
// address before Start
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.Server.Addr
}

// Start binds the listener and launches the server, the websocket hub and the
// optional startup tasks. It returns once the listener is bound.
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(ctx)

	a.mu.Lock()
	a.listener = ln
	a.cancel = cancel
	a.group = group
	a.groupCtx = groupCtx
	a.mu.Unlock()

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	group.Go(func() error {
		a.WebSocketHub.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if a.Config.Dataset.LoadSampleOnStart {
		group.Go(func() error {
			if _, err := a.DashboardService.LoadSample(groupCtx); err != nil {
				a.Logger.WarnContext(groupCtx, "Failed to load sample dataset on start",
					slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if a.Config.Server.OpenBrowser {
		group.Go(func() error {
			a.openBrowserWhenReady(groupCtx, "http://"+browserAddr(ln.Addr()))
			return nil
		})
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", "http://"+browserAddr(ln.Addr())))
	return nil
}

// Done is closed when the server fails or the context passed to Start ends
func (a *Application) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.groupCtx == nil {
		return nil
	}
	return a.groupCtx.Done()
}

// Stop gracefully stops the application. It is safe to call more than once.
func (a *Application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.stopErr = a.stop(ctx)
	})
	return a.stopErr
}

func (a *Application) stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.mu.Lock()
	stopTasks, group := a.cancel, a.group
	a.mu.Unlock()

	if stopTasks != nil {
		stopTasks()
	}
	a.WebSocketHub.Stop()

	if group != nil {
		if err := group.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run starts the application and blocks until ctx ends, SIGINT or SIGTERM
// arrives, or the server fails
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	<-a.Done()
	if ctx.Err() != nil {
		a.Logger.InfoContext(context.Background(), "Received shutdown signal")
	}

	return a.Stop(context.Background())
}

// openBrowserWhenReady polls the health endpoint and opens the dashboard once it answers
func (a *Application) openBrowserWhenReady(ctx context.Context, url string) {
	client := &http.Client{Timeout: time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for attempt := 1; attempt <= 10; attempt++ {
		select {
		case <-ctx.Done():
			a.Logger.InfoContext(ctx, "Browser opening cancelled - application shutting down")
			return
		case <-ticker.C:
		}

		resp, err := client.Get(url + config.HealthEndpoint)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			continue
		}

		if err := openBrowser(url); err != nil {
			a.Logger.WarnContext(ctx, "Failed to open browser",
				slog.String("error", err.Error()),
				slog.String("url", url))
			fmt.Printf("\n%s is running at %s\n\n", config.AppName, url)
			return
		}
		a.Logger.InfoContext(ctx, "Browser opened successfully",
			slog.String("url", url),
			slog.Int("attempts", attempt))
		return
	}

	a.Logger.ErrorContext(ctx, "Server did not become ready for browser opening",
		slog.String("url", url))
}

func openBrowser(url string) error {
	var name string
	var args []string
	switch runtime.GOOS {
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		name, args = "open", []string{url}
	default:
		name, args = "xdg-open", []string{url}
	}
	return exec.Command(name, args...).Start()
}

// browserAddr replaces an unspecified listen host with localhost
func browserAddr(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
