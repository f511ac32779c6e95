// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - CHANNEL_NAMESPACE: channel namespace, the channel is "<namespace>/media_store" (default: com.example.mediastore)
//   - PORT: bridge HTTP port (default: 8080)
//   - METRICS_PORT: Prometheus metrics port (default: 9090)
//   - METRICS_ENABLED: serve /metrics (default: true)
//   - SCAN_BACKEND: catalog, tracker or none (default: catalog)
//   - SCAN_FAILURE_POLICY: report or propagate (default: report)
//   - SCAN_QUEUE_SIZE: catalog indexer queue capacity (default: 1024)
//   - SCAN_WORKERS: catalog indexer workers (default: auto)
//   - DATABASE_DIR: catalog database directory (default: /database)
//   - CACHE_DIR: preview cache directory, optional (default: /cache)
//   - MEDIA_ROOTS: comma separated directories scan requests are expected under
//   - BRIDGE_TOKEN_HASH: bcrypt hash of the API bearer token
//   - LOG_HEALTH_CHECKS: log health probe requests (default: true)
//
// Invalid values for the namespace, backend or failure policy are errors.
// Directories are only checked when the catalog backend is selected.
package startup
