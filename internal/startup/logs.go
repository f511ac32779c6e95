package startup

import (
	"fmt"
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"mediastore-bridge/internal/logging"
	"mediastore-bridge/internal/memory"

	"github.com/gorilla/mux"
)

const rule = "------------------------------------------------------------"

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

func logSection(title string) {
	logging.Info(rule)
	logging.Info("%s", title)
	logging.Info(rule)
}

func printBanner() {
	fmt.Println()
	fmt.Println(rule)
	fmt.Println("  MEDIASTORE BRIDGE")
	fmt.Println(rule)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logSection("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

// LogMemoryConfig logs the outcome of memory.ConfigureFromEnv.
func LogMemoryConfig(result memory.ConfigResult) {
	switch {
	case !result.Configured:
		logging.Debug("  Memory limit: not configured")
	case result.Source == memory.SourceMemoryLimit:
		logging.Info("  Memory limit: %s (%.0f%% of %s)",
			memory.FormatBytes(result.GoMemLimit), result.Ratio*100, memory.FormatBytes(result.ContainerLimit))
	default:
		logging.Info("  Memory limit: %s (from %s)", memory.FormatBytes(result.GoMemLimit), result.Source)
	}
}

// LogTelemetryInit logs the telemetry bootstrap.
func LogTelemetryInit(duration time.Duration, metricsAddr string) {
	logging.Info("")
	logSection("TELEMETRY INITIALIZATION")
	if metricsAddr == "" {
		logging.Info("  [OK] Telemetry initialized in %v (metrics listener disabled)", duration)
		return
	}
	logging.Info("  [OK] Telemetry initialized in %v, metrics on %s", duration, metricsAddr)
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logSection("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogThumbnailInit logs thumbnail generator initialization
func LogThumbnailInit(enabled, vips bool) {
	if !enabled {
		logging.Info("  Thumbnails disabled (cache directory not writable)")
		return
	}
	if vips {
		logging.Info("  [OK] Thumbnails enabled (libvips)")
	} else {
		logging.Info("  [OK] Thumbnails enabled (imaging)")
	}
}

// LogScanActionInit logs which platform scan action is active.
func LogScanActionInit(config *Config) {
	logging.Info("")
	logSection("SCAN ACTION INITIALIZATION")
	logging.Info("  Backend:        %s", config.Backend)
	logging.Info("  Failure policy: %s", config.FailurePolicy)
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted(workers, queueSize int) {
	logging.Info("  [OK] Indexer started (%d workers, queue %d)", workers, queueSize)
}

// GetRoutes flattens a router into one RouteInfo per method. Subrouter
// prefixes, which carry no methods, are reported with method "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tmpl, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: tmpl, Name: route.GetName()})
		}
		return nil
	})
	return routes, err
}

// LogHTTPRoutes logs the access log settings, plus the route table when
// debug logging is on.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logSection("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		logRouteTable(router)
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

func logRouteTable(router *mux.Router) {
	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Debug("  Registered routes (%d total):", len(routes))

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		g := getRouteGroup(route.Path)
		groups[g] = append(groups[g], route)
	}
	for _, g := range slices.Sorted(maps.Keys(groups)) {
		label := g
		if label == "" {
			label = "root"
		}
		logging.Debug("  [%s]", label)
		for _, route := range groups[g] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// getRouteGroup names the group a path belongs to: its first segment, or
// "api/<second>" under /api.
func getRouteGroup(path string) string {
	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "api" && rest != "" {
		second, _, _ := strings.Cut(rest, "/")
		return "api/" + second
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	Channel         string
	MetricsAddr     string
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logSection("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Invoke:        http://0.0.0.0:%s/api/channels/%s/invoke", config.Port, config.Channel)
	logging.Info("    WebSocket:     ws://0.0.0.0:%s/api/channels/%s/ws", config.Port, config.Channel)
	if config.MetricsAddr != "" {
		logging.Info("    Metrics:       http://%s/metrics", config.MetricsAddr)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info(rule)
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logSection(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs the start of a shutdown step at debug level.
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs and exits with status 1.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}
