package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mediastore-bridge/internal/database"
	"mediastore-bridge/internal/mediatypes"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// RecentResponse lists recently indexed files.
type RecentResponse struct {
	Items []database.MediaFile `json:"items"`
	Type  string              `json:"type,omitempty"`
	Limit int                 `json:"limit"`
}

// GetCatalogFile returns the catalog entry for ?path=.
func (h *Handlers) GetCatalogFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	file, err := h.catalog.GetFileByPath(r.Context(), path)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "file not in catalog", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("catalog lookup for %s failed: %v", path, err)
		writeJSONError(w, "catalog lookup failed", http.StatusInternalServerError)
		return
	}

	writeJSONStatusCode(w, http.StatusOK, file)
}

// ListRecent returns the most recently indexed files, optionally
// filtered by ?type= and bounded by ?limit=.
func (h *Handlers) ListRecent(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultRecentLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRecentLimit)
	}

	fileType := mediatypes.FileType(query.Get("type"))
	if fileType != "" && !validFileType(fileType) {
		writeJSONError(w, "unknown type "+string(fileType), http.StatusBadRequest)
		return
	}

	items, err := h.catalog.ListRecent(r.Context(), fileType, limit)
	if err != nil {
		h.log.Error("listing recent files failed: %v", err)
		writeJSONError(w, "catalog query failed", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []database.MediaFile{}
	}

	writeJSONStatusCode(w, http.StatusOK, RecentResponse{Items: items, Type: string(fileType), Limit: limit})
}

// GetCatalogStats returns catalog totals.
func (h *Handlers) GetCatalogStats(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.RefreshStats(r.Context()); err != nil {
		h.log.Warn("refreshing catalog stats failed, serving cached: %v", err)
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatusCode(w, http.StatusOK, h.catalog.GetStats())
}

// GetThumbnail serves the generated preview for ?path=.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	file, err := h.catalog.GetFileByPath(r.Context(), path)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "file not in catalog", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("catalog lookup for %s failed: %v", path, err)
		writeJSONError(w, "catalog lookup failed", http.StatusInternalServerError)
		return
	}
	if !file.HasThumbnail || file.ThumbnailPath == "" {
		writeJSONError(w, "no preview available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, file.ThumbnailPath)
}

func validFileType(t mediatypes.FileType) bool {
	for _, known := range mediatypes.AllFileTypes {
		if t == known {
			return true
		}
	}
	return false
}
