package handlers

import (
	"net/http"
	"runtime"
	"time"

	"mediastore-bridge/internal/bridge"
	"mediastore-bridge/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDraining = "draining"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string   `json:"status"`
	Ready    bool     `json:"ready"`
	Version  string   `json:"version"`
	Uptime   string   `json:"uptime"`
	Channel  string   `json:"channel"`
	Backend  string   `json:"backend"`
	Methods  []string `json:"methods"`
	Sessions int      `json:"sessions"`

	// Catalog indexer, when the catalog backend is active
	Indexer *IndexerHealth `json:"indexer,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// IndexerHealth summarizes the catalog indexer.
type IndexerHealth struct {
	Workers       int    `json:"workers"`
	QueueDepth    int    `json:"queueDepth"`
	QueueCapacity int    `json:"queueCapacity"`
	FilesIndexed  int64  `json:"filesIndexed"`
	FilesRemoved  int64  `json:"filesRemoved"`
	Errors        int64  `json:"errors"`
	LastIndexed   string `json:"lastIndexed,omitempty"`
	LastError     string `json:"lastError,omitempty"`
}

func (h *Handlers) ready() bool {
	if h.draining.Load() {
		return false
	}
	return h.indexer == nil || h.indexer.IsReady()
}

// methods lists the bridge methods that have a handler.
func (h *Handlers) methods() []string {
	if !h.scanFileSupported {
		return []string{}
	}
	return []string{string(bridge.MethodScanFile)}
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Ready:        h.ready(),
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Channel:      h.channel.String(),
		Backend:      h.backend,
		Methods:      h.methods(),
		Sessions:     h.sessions.count(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	switch {
	case h.draining.Load():
		response.Status = statusDraining
	case !response.Ready:
		response.Status = statusStarting
	default:
		response.Status = statusHealthy
	}

	if h.indexer != nil {
		status := h.indexer.GetHealthStatus()
		ih := &IndexerHealth{
			Workers:       status.Workers,
			QueueDepth:    status.QueueDepth,
			QueueCapacity: status.QueueCapacity,
			FilesIndexed:  status.FilesIndexed,
			FilesRemoved:  status.FilesRemoved,
			Errors:        status.Errors,
			LastError:     status.LastError,
		}
		if !status.LastIndexed.IsZero() {
			ih.LastIndexed = status.LastIndexed.Format(time.RFC3339)
		}
		response.Indexer = ih
		if response.Ready && status.LastError != "" {
			response.Status = statusDegraded
		}
	}

	// Return 503 only if not ready at all
	if !response.Ready {
		writeJSONStatusCode(w, http.StatusServiceUnavailable, response)
		return
	}
	writeJSONStatusCode(w, http.StatusOK, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.ready() {
		writeJSONStatusCode(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONStatusCode(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
