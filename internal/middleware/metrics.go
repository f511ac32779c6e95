package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"mediastore-bridge/internal/metrics"
)

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// SkipPaths are paths that should not be recorded
	SkipPaths []string
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics returns a middleware that records Prometheus metrics
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := newResponseWriter(w)
			start := time.Now()
			next.ServeHTTP(wrapped, r)

			path := normalizePath(r.URL.Path)
			status := strconv.Itoa(wrapped.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath keeps the path label bounded. Only registered route
// templates become labels; the client-chosen namespace is replaced by a
// placeholder and everything else collapses to "/other".
func normalizePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(parts) == 5 && parts[0] == "api" && parts[1] == "channels" && parts[3] == "media_store" &&
		channelActions[parts[4]]:
		return "/api/channels/{namespace}/media_store/" + parts[4]
	case len(parts) == 3 && parts[0] == "api" && parts[1] == "catalog" && catalogActions[parts[2]]:
		return "/api/catalog/" + parts[2]
	case len(parts) == 2 && parts[0] == "api" && parts[1] == "thumbnail":
		return "/api/thumbnail"
	case len(parts) == 1 && knownRootPaths[parts[0]]:
		return "/" + parts[0]
	}
	return "/other"
}

var (
	channelActions = map[string]bool{"invoke": true, "ws": true}
	catalogActions = map[string]bool{"file": true, "recent": true, "stats": true}
	knownRootPaths = map[string]bool{"version": true}
)
