package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"k8s.io/utils/clock"

	"github.com/kubenetlabs/mlops-console/internal/datasource"
	"github.com/kubenetlabs/mlops-console/internal/deployments"
	"github.com/kubenetlabs/mlops-console/internal/handlers"
	"github.com/kubenetlabs/mlops-console/internal/kserve"
	"github.com/kubenetlabs/mlops-console/internal/kubernetes"
	"github.com/kubenetlabs/mlops-console/internal/metrics"
	"github.com/kubenetlabs/mlops-console/internal/mockbackend"
	"github.com/kubenetlabs/mlops-console/internal/mode"
	"github.com/kubenetlabs/mlops-console/internal/polling"
	prom "github.com/kubenetlabs/mlops-console/internal/prometheus"
)

// Config holds server dependencies.
type Config struct {
	Modes       *mode.Controller
	Source      *datasource.Router
	Store       *deployments.Store
	Coordinator *polling.Coordinator
	// Hub is created by New when nil.
	Hub     *Hub
	Metrics *metrics.Metrics

	// MockBackend, when set, serves the canned endpoint family on this listener.
	MockBackend *mockbackend.Server
	// KServe, when set, serves the live serving endpoint family on this listener.
	KServe       *kserve.Gateway
	Capabilities *kubernetes.Capabilities
	PromClient   *prom.Client

	Clock              clock.PassiveClock
	DefaultNamespace   string
	PodNamespace       string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// Server is the HTTP server of the MLOps console.
type Server struct {
	Router chi.Router
	Config Config
	Hub    *Hub

	unregisterTopics func()
}

// New creates a new Server with all routes and middleware configured.
func New(cfg Config) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(RequestLogger)
	r.Use(CORS(cfg.CORSAllowedOrigins))
	r.Use(chimw.Recoverer)
	r.Use(MaxBodySize(1 << 20)) // 1MB max body size

	hub := cfg.Hub
	if hub == nil {
		hub = NewHub(cfg.CORSAllowedOrigins)
	}
	hub.Start()

	s := &Server{Router: r, Config: cfg, Hub: hub}
	var store DeploymentEvents
	if cfg.Store != nil {
		store = cfg.Store
	}
	var modes ModeEvents
	if cfg.Modes != nil {
		modes = cfg.Modes
	}
	s.unregisterTopics = RegisterTopics(hub, store, modes)
	s.registerRoutes()

	return s
}

// Run starts the HTTP server on the given address with graceful shutdown.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	}

	timeout := s.Config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}

// Close detaches the hub from the core and disconnects all clients.
func (s *Server) Close() {
	s.unregisterTopics()
	s.Hub.Stop()
}

// registerRoutes mounts the dashboard API and the optional backend families.
func (s *Server) registerRoutes() {
	cfg := s.Config

	modeH := &handlers.ModeHandler{Modes: cfg.Modes, Notices: s.Hub}
	cfgH := &handlers.ConfigHandler{
		Modes:            cfg.Modes,
		DefaultNamespace: cfg.DefaultNamespace,
		PodNamespace:     cfg.PodNamespace,
		KServe:           cfg.Capabilities,
		UsageEnabled:     cfg.PromClient != nil,
	}
	depH := &handlers.DeploymentHandler{Store: cfg.Store, Notices: s.Hub, Clock: cfg.Clock}
	if cfg.PromClient != nil {
		depH.Prom = cfg.PromClient
	}
	servingH := &handlers.ServingHandler{View: cfg.Coordinator, Notices: s.Hub}
	catalogH := &handlers.CatalogHandler{Source: cfg.Source, Notices: s.Hub}

	// Health check endpoint (outside /api/v1 for simplicity with probes)
	s.Router.Get("/api/v1/health", handlers.HealthCheck)

	s.Router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", cfgH.GetConfig)

		// Mode
		r.Get("/mode", modeH.Get)
		r.Put("/mode", modeH.Set)
		r.Post("/mode/toggle", modeH.Toggle)

		// Serving page lifecycle
		r.Put("/kserve/view", servingH.Activate)
		r.Delete("/kserve/view", servingH.Deactivate)
		r.Post("/kserve/refresh", servingH.Refresh)

		// Deployments
		r.Route("/deployments", func(r chi.Router) {
			r.Get("/", depH.List)
			r.Post("/", depH.Create)
			r.Get("/selected", depH.Selected)
			r.Post("/{namespace}/{name}/select", depH.Select)
			r.Delete("/{namespace}/{name}", depH.Delete)
			r.Get("/{namespace}/{name}/logs", depH.Logs)
			r.Get("/{namespace}/{name}/usage", depH.Usage)
		})

		// Snapshots
		r.Get("/pods", servingH.Pods)
		r.Get("/serving-runtimes", servingH.ServingRuntimes)

		// Pipelines
		r.Route("/pipelines", func(r chi.Router) {
			r.Get("/", catalogH.Pipelines)
			r.Get("/runs", catalogH.PipelineRuns)
			r.Get("/graph", catalogH.PipelineGraph)
		})

		// Tracking
		r.Get("/experiments", catalogH.Experiments)
		r.Get("/tracking/runs", catalogH.TrackingRuns)
		r.Get("/models", catalogH.Models)
		r.Get("/overview", catalogH.Overview)

		// WebSocket (?topic= query param, all topics when omitted)
		r.Get("/ws", s.Hub.HandleWS)
		for _, topic := range Topics {
			r.Get("/ws/"+topic, s.Hub.ServeWS(topic))
		}
	})

	if cfg.Metrics != nil {
		s.Router.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	if cfg.MockBackend != nil {
		cfg.MockBackend.Routes(s.Router)
	}
	if cfg.KServe != nil {
		(&kserve.Handler{Gateway: cfg.KServe}).Routes(s.Router)
	}
}
