// Command mediastore-bridge hosts the <namespace>/media_store channel.
//
// It answers scanFile invocations over HTTP and WebSocket by handing the
// path to a platform scan action selected with SCAN_BACKEND:
//
//	catalog  index into the local SQLite catalog and render previews (default)
//	tracker  ask the desktop search miner over D-Bus to index the file
//	none     no scan action; scanFile answers NotImplemented
//
// Configuration is read from the environment:
//
//	CHANNEL_NAMESPACE    channel namespace (default com.example.mediastore)
//	PORT                 HTTP port (default 8080)
//	METRICS_PORT         Prometheus port (default 9090)
//	METRICS_ENABLED      serve /metrics (default true)
//	SCAN_BACKEND         catalog, tracker or none
//	SCAN_FAILURE_POLICY  report (SCAN_FAILED outcome) or propagate (HTTP 500)
//	SCAN_QUEUE_SIZE      pending catalog submissions (default 1024)
//	SCAN_WORKERS         catalog workers (default: derived from CPU count)
//	MEDIA_ROOTS          comma separated directories scans are expected under
//	DATABASE_DIR         catalog database directory (default /database)
//	CACHE_DIR            preview cache directory (default /cache)
//	BRIDGE_TOKEN_HASH    bcrypt hash; when set /api requires a bearer token
//	MEMORY_LIMIT         container memory limit in bytes, sets GOMEMLIMIT
//	MEMORY_RATIO         share of MEMORY_LIMIT given to the Go heap (default 0.85)
//	LOG_LEVEL            debug, info, warn or error
//	LOG_HEALTH_CHECKS    log probe requests (default true)
//
// On SIGINT or SIGTERM the bridge stops accepting requests, closes
// WebSocket sessions, drains queued scans and closes the catalog.
package main
