package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"mediastore-bridge/internal/bridge"
	"mediastore-bridge/internal/indexer"
	"mediastore-bridge/internal/logging"
	"mediastore-bridge/internal/scanner"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	Channel         bridge.Channel
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	Backend       scanner.Backend
	FailurePolicy bridge.FailurePolicy
	QueueSize     int
	Workers       int
	MediaRoots    []string

	DatabaseDir string
	CacheDir    string

	// TokenHash is a bcrypt hash; when set, /api requires a bearer token.
	TokenHash string

	// Derived paths
	DatabasePath string

	// Feature flags based on directory availability
	ThumbnailsEnabled bool
}

// Volumes labels the directories the bridge touches for filesystem metrics.
// Media roots are named "media", or "media-<base>" when there are several.
// Roots sharing a base name get their position appended ("media-photos-2").
func (c *Config) Volumes() map[string]string {
	volumes := make(map[string]string, len(c.MediaRoots)+2)
	if c.DatabaseDir != "" {
		volumes["database"] = c.DatabaseDir
	}
	if c.CacheDir != "" {
		volumes["cache"] = c.CacheDir
	}
	if len(c.MediaRoots) == 1 {
		volumes["media"] = c.MediaRoots[0]
		return volumes
	}
	bases := make(map[string]int, len(c.MediaRoots))
	for _, root := range c.MediaRoots {
		bases[filepath.Base(root)]++
	}
	for i, root := range c.MediaRoots {
		name := "media-" + filepath.Base(root)
		if bases[filepath.Base(root)] > 1 {
			name += "-" + strconv.Itoa(i+1)
		}
		volumes[name] = root
	}
	return volumes
}

// CatalogEnabled reports whether the local catalog backend is selected.
func (c *Config) CatalogEnabled() bool {
	return c.Backend == scanner.BackendCatalog
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logSection("CONFIGURATION")

	namespace := getEnv("CHANNEL_NAMESPACE", bridge.DefaultNamespace)
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	backendName := getEnv("SCAN_BACKEND", string(scanner.BackendCatalog))
	policyName := getEnv("SCAN_FAILURE_POLICY", string(bridge.PolicyReport))
	queueSize := getEnvInt("SCAN_QUEUE_SIZE", indexer.DefaultQueueSize)
	workerCount := getEnvInt("SCAN_WORKERS", 0)
	databaseDir := getEnv("DATABASE_DIR", "/database")
	cacheDir := getEnv("CACHE_DIR", "/cache")
	mediaRoots := splitList(os.Getenv("MEDIA_ROOTS"))
	tokenHash := strings.TrimSpace(os.Getenv("BRIDGE_TOKEN_HASH"))

	logging.Info("  CHANNEL_NAMESPACE:   %s", namespace)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  SCAN_BACKEND:        %s", backendName)
	logging.Info("  SCAN_FAILURE_POLICY: %s", policyName)
	logging.Info("  SCAN_QUEUE_SIZE:     %d", queueSize)
	logging.Info("  SCAN_WORKERS:        %s", workersString(workerCount))
	logging.Info("  DATABASE_DIR:        %s", databaseDir)
	logging.Info("  CACHE_DIR:           %s", cacheDir)
	logging.Info("  MEDIA_ROOTS:         %s", listString(mediaRoots))
	logging.Info("  BRIDGE_TOKEN_HASH:   %s", setString(tokenHash != ""))
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	channel, err := bridge.NewChannel(namespace)
	if err != nil {
		return nil, fmt.Errorf("invalid CHANNEL_NAMESPACE: %w", err)
	}
	backend, err := scanner.ParseBackend(backendName)
	if err != nil {
		return nil, fmt.Errorf("invalid SCAN_BACKEND: %w", err)
	}
	policy, err := bridge.ParseFailurePolicy(policyName)
	if err != nil {
		return nil, fmt.Errorf("invalid SCAN_FAILURE_POLICY: %w", err)
	}
	if queueSize <= 0 {
		return nil, fmt.Errorf("invalid SCAN_QUEUE_SIZE %d: must be positive", queueSize)
	}

	config := &Config{
		Channel:         channel,
		Port:            port,
		MetricsPort:     metricsPort,
		MetricsEnabled:  metricsEnabled,
		LogHealthChecks: logHealthChecks,
		Backend:         backend,
		FailurePolicy:   policy,
		QueueSize:       queueSize,
		Workers:         workerCount,
		MediaRoots:      mediaRoots,
		TokenHash:       tokenHash,
	}

	if config.CatalogEnabled() {
		if err := setupCatalogDirs(config, databaseDir, cacheDir); err != nil {
			return nil, err
		}
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Channel:     %s", config.Channel)
	logging.Info("    Scan action: %s", scanActionString(config.Backend))
	logging.Info("    Catalog:     %s", enabledString(config.CatalogEnabled()))
	logging.Info("    Thumbnails:  %s", enabledString(config.ThumbnailsEnabled))
	logging.Info("    Auth:        %s", enabledString(config.TokenHash != ""))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// setupCatalogDirs resolves and checks the directories the catalog backend
// writes to. The database directory is required; the cache is optional.
func setupCatalogDirs(config *Config, databaseDir, cacheDir string) error {
	logging.Info("")
	logSection("DIRECTORY SETUP")

	databaseDir, err := filepath.Abs(databaseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return fmt.Errorf("database directory is not writable (required for catalog): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	config.DatabaseDir = databaseDir
	config.DatabasePath = filepath.Join(databaseDir, "catalog.db")

	if cacheDir == "" {
		return nil
	}
	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		logging.Warn("  Failed to resolve cache directory path: %v", err)
		return nil
	}
	logging.Info("  Cache directory (absolute): %s", cacheDir)

	config.ThumbnailsEnabled = setupOptionalDir(cacheDir, "thumbnails")
	if config.ThumbnailsEnabled {
		config.CacheDir = cacheDir
	}
	return nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		// Write access was confirmed; a leftover file is harmless.
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func setString(set bool) string {
	if set {
		return "(set)"
	}
	return "(not set)"
}

func workersString(n int) string {
	if n <= 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}

func listString(items []string) string {
	if len(items) == 0 {
		return "(any)"
	}
	return strings.Join(items, ", ")
}

func scanActionString(backend scanner.Backend) string {
	switch backend {
	case scanner.BackendCatalog:
		return "local catalog indexer"
	case scanner.BackendTracker:
		return "Tracker miner over D-Bus"
	default:
		return "none (scanFile answers not implemented)"
	}
}
