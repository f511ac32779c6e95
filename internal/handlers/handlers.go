package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"mediastore-bridge/internal/bridge"
	"mediastore-bridge/internal/database"
	"mediastore-bridge/internal/indexer"
	"mediastore-bridge/internal/logging"
	"mediastore-bridge/internal/mediatypes"
)

// Dispatcher answers bridge invocations.
type Dispatcher interface {
	Dispatch(ctx context.Context, call bridge.MethodCall) (bridge.Outcome, error)
}

// Catalog is the read side of the media catalog.
type Catalog interface {
	GetFileByPath(ctx context.Context, path string) (*database.MediaFile, error)
	ListRecent(ctx context.Context, fileType mediatypes.FileType, limit int) ([]database.MediaFile, error)
	RefreshStats(ctx context.Context) error
	GetStats() database.CatalogStats
}

// IndexerStatus reports catalog indexer health.
type IndexerStatus interface {
	IsReady() bool
	GetHealthStatus() indexer.HealthStatus
}

// Options wires the handlers to the rest of the bridge. Catalog and Indexer
// are nil unless the catalog backend is active.
type Options struct {
	Channel    bridge.Channel
	Dispatcher Dispatcher
	Backend    string
	// ScanFileSupported is false when no scan action is configured.
	ScanFileSupported bool
	Catalog           Catalog
	Indexer           IndexerStatus
}

// Handlers holds the HTTP and WebSocket handlers of the bridge.
type Handlers struct {
	channel           bridge.Channel
	dispatcher        Dispatcher
	backend           string
	scanFileSupported bool
	catalog           Catalog
	indexer           IndexerStatus
	sessions          *sessionSet
	startTime         time.Time
	draining          atomic.Bool
	log               *logging.Logger
}

// New creates the handlers.
func New(opts Options) *Handlers {
	return &Handlers{
		channel:           opts.Channel,
		dispatcher:        opts.Dispatcher,
		backend:           opts.Backend,
		scanFileSupported: opts.ScanFileSupported,
		catalog:           opts.Catalog,
		indexer:           opts.Indexer,
		sessions:          newSessionSet(),
		startTime:         time.Now(),
		log:               logging.New("http"),
	}
}

// SetDraining marks the bridge as shutting down; readiness then fails so
// load balancers stop routing new invocations here.
func (h *Handlers) SetDraining() {
	h.draining.Store(true)
}

// CloseSessions stops every open WebSocket session from reading new frames,
// waits until their in-flight invocations are answered, then closes each
// with a normal close frame. It returns the number of sessions closed.
func (h *Handlers) CloseSessions() int {
	return h.sessions.closeAll()
}
