package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/pgnview/pgnview/internal/config"
	"github.com/pgnview/pgnview/internal/engine"
	"github.com/pgnview/pgnview/internal/health"
	"github.com/pgnview/pgnview/internal/logging"
	"github.com/pgnview/pgnview/internal/mcptools"
	"github.com/pgnview/pgnview/internal/metrics"
	"github.com/pgnview/pgnview/internal/ratelimit"
	httpserver "github.com/pgnview/pgnview/internal/server"
	"github.com/pgnview/pgnview/internal/viewer"
)

var (
	// Version information injected at build time.
	GitCommit string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var showVersion bool
	var configPath string
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	if showVersion {
		fmt.Printf("pgnview version 0.1.0\n")
		fmt.Printf("Git commit: %s\n", GitCommit)
		fmt.Printf("Build time: %s\n", BuildTime)
		os.Exit(0)
	}

	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:   cfg.Logging.Level,
		Format:  logging.LogFormat(os.Getenv("PGNVIEW_LOG_FORMAT")),
		Service: cfg.Server.Name,
		Version: cfg.Server.Version,
		Prefix:  cfg.Logging.Prefix,
	})
	logger.Info("Starting pgnview",
		"version", cfg.Server.Version,
		"commit", GitCommit,
		"built", BuildTime,
	)

	// A bare binary name means nothing was configured explicitly, so try
	// to locate a UCI engine on this machine.
	if !filepath.IsAbs(cfg.Engine.BinaryPath) {
		detection, err := engine.DetectEngine()
		if err != nil {
			logger.Error("No UCI engine found", "error", err)
			fmt.Fprintf(os.Stderr, "\n%s\n", engine.GetInstallationInstructions())
			os.Exit(1)
		}
		logger.Info("Detected UCI engine", "binary", detection.BinaryPath, "name", detection.Name)
		for _, warn := range detection.Errors {
			logger.Warn("Engine detection", "detail", warn)
		}
		cfg.Engine.BinaryPath = detection.BinaryPath
	}

	metricsCollector := metrics.NewCollector()
	rateLimiter := ratelimit.NewLimiter(&cfg.RateLimit, logger)

	supervisor := engine.NewSupervisor(&cfg.Engine, logger)

	healthChecker := health.NewChecker(logger, cfg.Server.Name, cfg.Server.Version)
	healthChecker.RegisterCheck("engine", func(ctx context.Context) error {
		eng := supervisor.GetEngine()
		if !eng.IsRunning() {
			// The engine launches lazily; an idle engine is healthy.
			return nil
		}
		return eng.Ping(ctx)
	})

	healthAddr := os.Getenv("PGNVIEW_HEALTH_ADDR")
	if healthAddr == "" {
		healthAddr = cfg.Server.HealthAddr
	}
	httpServer := httpserver.NewHTTPServer(healthAddr, logger, healthChecker)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start health server", "error", err)
		os.Exit(1)
	}
	logger.Info("Health server started", "addr", healthAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := supervisor.Start(ctx); err != nil {
		logger.Error("Failed to start engine supervisor", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Failed to stop health server", "error", err)
		}

		_ = supervisor.Stop()
	}()

	mcpServer := server.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		server.WithLogging(),
	)

	session := viewer.NewSession(logger)
	middleware := mcptools.NewMiddleware(logger, metricsCollector, rateLimiter)
	toolsHandler := mcptools.NewToolsHandler(supervisor, session, cfg, logger)
	toolsHandler.SetMiddleware(middleware)
	toolsHandler.RegisterTools(mcpServer)

	logger.Info("pgnview ready")

	done := make(chan error, 1)
	go func() {
		done <- server.ServeStdio(mcpServer)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Server error", "error", err)
		}
	case <-ctx.Done():
		logger.Info("Server stopped")
	}

	_ = supervisor.Stop()
}
