package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"mediastore-bridge/internal/bridge"
	"mediastore-bridge/internal/filesystem"
	"mediastore-bridge/internal/handlers"
	"mediastore-bridge/internal/logging"
	"mediastore-bridge/internal/memory"
	"mediastore-bridge/internal/metrics"
	"mediastore-bridge/internal/middleware"
	"mediastore-bridge/internal/scanner"
	"mediastore-bridge/internal/startup"
	"mediastore-bridge/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	startTime := time.Now()

	// Set GOMEMLIMIT before anything allocates heavily
	memResult := memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	// Telemetry must be up before any component records metrics
	telStart := time.Now()
	tel, err := telemetry.Bootstrap(telemetry.Options{
		Version:        startup.Version,
		Commit:         startup.Commit,
		GoVersion:      runtime.Version(),
		Channel:        config.Channel.String(),
		Backend:        string(config.Backend),
		Methods:        bridge.MethodNames(),
		Backends:       scanner.BackendNames(),
		MetricsEnabled: config.MetricsEnabled,
		MetricsAddr:    ":" + config.MetricsPort,
	})
	if err != nil {
		startup.LogFatal("Telemetry initialization failed: %v", err)
	}
	startup.LogTelemetryInit(time.Since(telStart), tel.MetricsAddr)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(config.Volumes()))

	// Platform scan action
	ctx := context.Background()
	comps, err := setupScanAction(ctx, config, memResult)
	if err != nil {
		startup.LogFatal("Scan action initialization failed: %v", err)
	}

	dispatcher := bridge.NewDispatcher(comps.action, config.FailurePolicy)

	// Initialize handlers
	opts := handlers.Options{
		Channel:           config.Channel,
		Dispatcher:        dispatcher,
		Backend:           string(config.Backend),
		ScanFileSupported: dispatcher.Supports(bridge.MethodScanFile),
	}
	if comps.db != nil {
		opts.Catalog = comps.db
		opts.Indexer = comps.idx
	}
	h := handlers.New(opts)

	// Setup router
	router := h.NewRouter()
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply authentication middleware
	auth := handlers.NewTokenAuth(config.TokenHash)
	authedRouter := auth.Middleware(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(authedRouter)

	// Apply metrics middleware
	handler := middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)

	// Create server. WriteTimeout stays 0 for long-lived WebSocket sessions.
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	// Start graceful shutdown handler
	shutdownDone := make(chan struct{})
	go handleShutdown(srv, h, comps, shutdownDone)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		Channel:         config.Channel.String(),
		MetricsAddr:     tel.MetricsAddr,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownDone
}

func handleShutdown(srv *http.Server, h *handlers.Handlers, comps *components, done chan<- struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	h.SetDraining()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Closing WebSocket sessions")
	n := h.CloseSessions()
	startup.LogShutdownStepComplete(fmt.Sprintf("WebSocket sessions closed (%d)", n))

	comps.shutdown(ctx)

	startup.LogShutdownStep("Stopping metrics server")
	if err := telemetry.Shutdown(ctx); err != nil {
		logging.Warn("Metrics server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Metrics server stopped")
	}

	comps.closeStorage()

	startup.LogShutdownComplete()
}
