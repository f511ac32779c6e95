package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers the bridge routes. Catalog routes exist only when a
// catalog is configured.
func (h *Handlers) NewRouter() *mux.Router {
	r := mux.NewRouter()

	// Health check endpoints (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	// Full templates on the root router so a method mismatch answers 405.
	const channel = "/api/channels/{namespace}/media_store"
	r.HandleFunc(channel+"/invoke", h.Invoke).Methods(http.MethodPost)
	r.HandleFunc(channel+"/ws", h.WebSocket).Methods(http.MethodGet)

	if h.catalog != nil {
		r.HandleFunc("/api/catalog/file", h.GetCatalogFile).Methods(http.MethodGet)
		r.HandleFunc("/api/catalog/recent", h.ListRecent).Methods(http.MethodGet)
		r.HandleFunc("/api/catalog/stats", h.GetCatalogStats).Methods(http.MethodGet)
		r.HandleFunc("/api/thumbnail", h.GetThumbnail).Methods(http.MethodGet)
	}

	return r
}
