package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/kubenetlabs/mlops-console/internal/backend"
	"github.com/kubenetlabs/mlops-console/internal/config"
	"github.com/kubenetlabs/mlops-console/internal/datasource"
	"github.com/kubenetlabs/mlops-console/internal/deployments"
	"github.com/kubenetlabs/mlops-console/internal/kserve"
	"github.com/kubenetlabs/mlops-console/internal/kubernetes"
	"github.com/kubenetlabs/mlops-console/internal/metrics"
	"github.com/kubenetlabs/mlops-console/internal/mockbackend"
	"github.com/kubenetlabs/mlops-console/internal/mode"
	"github.com/kubenetlabs/mlops-console/internal/polling"
	prom "github.com/kubenetlabs/mlops-console/internal/prometheus"
	"github.com/kubenetlabs/mlops-console/internal/server"
	"github.com/kubenetlabs/mlops-console/pkg/version"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "HTTP server listen port (overrides listenAddr)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides logLevel)")
	mockData := flag.Bool("mock", false, "Start with the canned dataset")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mlops-console %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if *port != 0 {
		cfg.ListenAddr = fmt.Sprintf(":%d", *port)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *mockData {
		cfg.StartInMockMode = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	backendURL := cfg.BackendURL
	if backendURL == "" {
		backendURL = selfURL(cfg.ListenAddr)
	}

	slog.Info("starting MLOps console",
		"addr", cfg.ListenAddr,
		"backend_url", backendURL,
		"mock_data", cfg.StartInMockMode,
		"serve_mock_backend", cfg.ServeMockBackend,
		"kserve", cfg.KServe.Enabled,
		"version", version.Version,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.RealClock{}
	modes := mode.NewController(cfg.StartInMockMode)
	m := metrics.New()
	unsubscribeMetrics := modes.Subscribe(m.ObserveModeChange)
	defer unsubscribeMetrics()

	src := datasource.New(backend.New(backendURL, cfg.RequestTimeout), modes, m)
	lifecycle := deployments.NewLifecycle(clk, cfg.MockTransitionDelay)
	store := deployments.NewStore(src, modes, lifecycle, deployments.Options{
		DefaultNamespace: cfg.DefaultNamespace,
		Observer:         m,
	})

	hub := server.NewHub(cfg.CORSAllowedOrigins)
	coord := polling.New(ctx, src, store, modes, polling.Options{
		PodNamespace: cfg.PodNamespace,
		OnError:      func(err error) { hub.Notice(err.Error()) },
		OnSnapshot:   hub.SnapshotChanged,
		Clock:        clk,
	})

	srvCfg := server.Config{
		Modes:              modes,
		Source:             src,
		Store:              store,
		Coordinator:        coord,
		Hub:                hub,
		Metrics:            m,
		Clock:              clk,
		DefaultNamespace:   cfg.DefaultNamespace,
		PodNamespace:       cfg.PodNamespace,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	if cfg.ServeMockBackend {
		srvCfg.MockBackend = mockbackend.New(clk)
	}

	if cfg.KServe.Enabled {
		k8s, err := kubernetes.New(cfg.KServe.Kubeconfig, cfg.KServe.Context)
		if err != nil {
			slog.Error("failed to create kubernetes client", "error", err)
			os.Exit(1)
		}
		detectCtx, detectCancel := context.WithTimeout(ctx, 10*time.Second)
		caps := k8s.DetectKServe(detectCtx)
		detectCancel()
		if !caps.Installed() {
			slog.Warn("KServe CRDs not found; live deployment requests will fail", "crd", kubernetes.InferenceServiceCRD)
		}
		srvCfg.Capabilities = &caps
		srvCfg.KServe = kserve.NewGateway(k8s, kserve.Options{
			Namespaces:       cfg.KServe.Namespaces,
			DefaultNamespace: cfg.DefaultNamespace,
			PodNamespace:     cfg.PodNamespace,
		})
	}

	if cfg.PrometheusURL != "" {
		pc, err := prom.New(cfg.PrometheusURL)
		if err != nil {
			slog.Error("failed to create prometheus client", "error", err)
			os.Exit(1)
		}
		slog.Info("deployment usage enabled", "prometheus_url", pc.URL())
		srvCfg.PromClient = pc
	}

	srv := server.New(srvCfg)
	runErr := srv.Run(cfg.ListenAddr)

	// Abandon in-flight fetches before waiting for them.
	cancel()
	coord.Close()
	store.Close()
	srv.Close()

	if runErr != nil {
		slog.Error("server failed", "error", runErr)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// selfURL is the base URL of this process's own listener.
func selfURL(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return "http://localhost:8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
