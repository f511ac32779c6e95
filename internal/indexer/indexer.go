package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mediastore-bridge/internal/database"
	"mediastore-bridge/internal/filesystem"
	"mediastore-bridge/internal/logging"
	"mediastore-bridge/internal/mediatypes"
	"mediastore-bridge/internal/metrics"
	"mediastore-bridge/internal/playlist"
	"mediastore-bridge/internal/workers"
)

const (
	// DefaultQueueSize is the submission buffer used when none is configured.
	DefaultQueueSize = 1024

	// Upper bound for automatically sized worker pools. SQLite serializes
	// writers, so more workers mostly add lock contention.
	maxAutoWorkers = 8
)

var (
	// ErrQueueFull is returned when a path cannot be queued without blocking.
	ErrQueueFull = errors.New("indexer queue is full")

	// ErrStopped is returned for submissions after Stop.
	ErrStopped = errors.New("indexer stopped")
)

// Thumbnailer renders previews for indexed files.
type Thumbnailer interface {
	Generate(path string, fileType mediatypes.FileType) (string, error)
	Remove(path string)
}

// Throttler reports memory pressure. Preview rendering is skipped while
// ShouldThrottle returns true.
type Throttler interface {
	ShouldThrottle() bool
}

// Config controls queue and worker sizing.
type Config struct {
	// QueueSize bounds pending submissions (0 = DefaultQueueSize).
	QueueSize int
	// Workers is the number of indexing goroutines (0 = auto).
	Workers int
	// MediaRoots lists the directories scan requests are expected under.
	// Paths outside them are still indexed but logged.
	MediaRoots []string
}

// Result describes what happened to a single path.
type Result string

// Possible per-path results.
const (
	ResultIndexed Result = "indexed"
	ResultRemoved Result = "removed"
	ResultSkipped Result = "skipped"
	ResultError   Result = "error"
)

// Indexer applies scan requests to the media catalog. Submissions go into
// a bounded queue and are processed by a fixed pool of workers.
type Indexer struct {
	db         *database.Database
	thumbs     Thumbnailer
	throttle   Throttler
	roots      []string
	numWorkers int
	retry      filesystem.RetryConfig
	startTime  time.Time

	queue chan string
	wg    sync.WaitGroup

	// stateMu guards started/stopped and makes closing the queue safe
	// against concurrent Submit calls.
	stateMu sync.RWMutex
	started bool
	stopped bool

	filesIndexed atomic.Int64
	filesRemoved atomic.Int64
	errorsCount  atomic.Int64
	lastIndexed  atomic.Int64
	lastError    atomic.Value
}

// New creates an Indexer writing into db. Call Start before submitting.
func New(db *database.Database, cfg Config) *Indexer {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	numWorkers := cfg.Workers
	if numWorkers <= 0 {
		numWorkers = workers.ForIO(maxAutoWorkers)
	}

	roots := make([]string, 0, len(cfg.MediaRoots))
	for _, root := range cfg.MediaRoots {
		if root = strings.TrimSpace(root); root != "" {
			roots = append(roots, filepath.Clean(root))
		}
	}

	return &Indexer{
		db:         db,
		roots:      roots,
		numWorkers: numWorkers,
		retry:      filesystem.DefaultRetryConfig(),
		startTime:  time.Now(),
		queue:      make(chan string, queueSize),
	}
}

// SetThumbnailer enables preview rendering for indexed images.
// Must be called before Start.
func (idx *Indexer) SetThumbnailer(t Thumbnailer) {
	idx.thumbs = t
}

// SetThrottler makes preview rendering back off under memory pressure.
// Must be called before Start.
func (idx *Indexer) SetThrottler(t Throttler) {
	idx.throttle = t
}

// Start launches the worker pool.
func (idx *Indexer) Start() error {
	idx.stateMu.Lock()
	defer idx.stateMu.Unlock()

	if idx.stopped {
		return ErrStopped
	}
	if idx.started {
		return nil
	}
	idx.started = true

	metrics.IndexerWorkers.Set(float64(idx.numWorkers))
	metrics.IndexerQueueCapacity.Set(float64(cap(idx.queue)))

	for i := 0; i < idx.numWorkers; i++ {
		idx.wg.Add(1)
		go idx.worker(i)
	}

	logging.Info("Indexer started with %d workers (queue capacity %d)", idx.numWorkers, cap(idx.queue))
	return nil
}

// Stop stops accepting submissions and waits until every queued path has
// been processed.
func (idx *Indexer) Stop() {
	idx.stateMu.Lock()
	if idx.stopped {
		idx.stateMu.Unlock()
		return
	}
	idx.stopped = true
	close(idx.queue)
	started := idx.started
	idx.stateMu.Unlock()

	if !started {
		return
	}

	pending := len(idx.queue)
	if pending > 0 {
		logging.Info("Indexer draining %d pending scan requests", pending)
	}
	idx.wg.Wait()
	metrics.IndexerQueueDepth.Set(0)
	logging.Info("Indexer stopped")
}

// Submit queues path for indexing and returns immediately. It never waits
// for queue space: a full queue yields ErrQueueFull.
func (idx *Indexer) Submit(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idx.stateMu.RLock()
	defer idx.stateMu.RUnlock()

	if idx.stopped {
		return ErrStopped
	}

	select {
	case idx.queue <- path:
		metrics.IndexerQueueDepth.Set(float64(len(idx.queue)))
		return nil
	default:
		return fmt.Errorf("%w (capacity %d)", ErrQueueFull, cap(idx.queue))
	}
}

func (idx *Indexer) worker(id int) {
	defer idx.wg.Done()
	logging.Debug("Indexer worker %d started", id)

	for path := range idx.queue {
		metrics.IndexerQueueDepth.Set(float64(len(idx.queue)))

		start := time.Now()
		result, err := idx.processPath(path)
		metrics.IndexerProcessDuration.Observe(time.Since(start).Seconds())
		metrics.IndexerFilesProcessed.WithLabelValues(string(result)).Inc()

		if err != nil {
			idx.errorsCount.Add(1)
			idx.lastError.Store(err.Error())
			logging.Warn("Indexing %s failed: %v", path, err)
			continue
		}
		// Health reports degraded only until the next scan succeeds.
		idx.lastError.Store("")
		logging.Debug("Indexer worker %d: %s %s", id, result, path)
	}

	logging.Debug("Indexer worker %d stopped", id)
}

// processPath brings the catalog entry for path in line with the file
// system: present files are upserted, missing ones are removed.
func (idx *Indexer) processPath(path string) (Result, error) {
	if !filepath.IsAbs(path) {
		return ResultSkipped, nil
	}
	path = filepath.Clean(path)

	if !idx.underRoots(path) {
		logging.Info("Scan request outside configured media roots: %s", path)
	}

	info, err := filesystem.StatWithRetry(path, idx.retry)
	if errors.Is(err, os.ErrNotExist) {
		return idx.removePath(path)
	}
	if err != nil {
		return ResultError, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		return ResultSkipped, nil
	}

	fileType, mimeType := mediatypes.Classify(path)
	if !mediatypes.IsMediaFile(filepath.Ext(path)) {
		logging.Debug("Cataloguing %s as %s: unrecognized extension", path, fileType)
	}
	file := &database.MediaFile{
		Name:       filepath.Base(path),
		Path:       path,
		ParentPath: filepath.Dir(path),
		Type:       fileType,
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		MimeType:   mimeType,
	}
	if fileType == mediatypes.FileTypePlaylist {
		countPlaylist(file)
	}

	tx, err := idx.db.BeginBatch()
	if err != nil {
		return ResultError, fmt.Errorf("begin transaction: %w", err)
	}
	err = idx.db.UpsertFile(tx, file)
	if err := idx.db.EndBatch(tx, err); err != nil {
		return ResultError, fmt.Errorf("upsert: %w", err)
	}

	idx.filesIndexed.Add(1)
	now := time.Now()
	idx.lastIndexed.Store(now.Unix())
	metrics.IndexerLastIndexedTimestamp.Set(float64(now.Unix()))

	idx.renderThumbnail(path, fileType)
	return ResultIndexed, nil
}

func (idx *Indexer) removePath(path string) (Result, error) {
	removed, err := idx.db.DeleteFile(context.Background(), path)
	if err != nil {
		return ResultError, fmt.Errorf("remove: %w", err)
	}
	if idx.thumbs != nil {
		idx.thumbs.Remove(path)
	}
	if !removed {
		return ResultSkipped, nil
	}
	idx.filesRemoved.Add(1)
	return ResultRemoved, nil
}

// countPlaylist records how many entries a playlist has and how many of
// them are missing. An unreadable playlist is still catalogued.
func countPlaylist(file *database.MediaFile) {
	p, err := playlist.Parse(file.Path)
	if err != nil {
		logging.Debug("Cannot read playlist %s: %v", file.Path, err)
		return
	}
	file.Items = p.Count()
	file.MissingItems = p.Missing()
}

// renderThumbnail failures never fail the scan; the file is already
// catalogued.
func (idx *Indexer) renderThumbnail(path string, fileType mediatypes.FileType) {
	if idx.thumbs == nil {
		return
	}
	if fileType != mediatypes.FileTypeImage && fileType != mediatypes.FileTypeVideo {
		return
	}
	if idx.throttle != nil && idx.throttle.ShouldThrottle() {
		logging.Debug("Skipping preview for %s: memory pressure", path)
		return
	}

	thumbPath, err := idx.thumbs.Generate(path, fileType)
	if err != nil {
		logging.Debug("No preview for %s: %v", path, err)
		return
	}
	if err := idx.db.SetThumbnail(context.Background(), path, thumbPath); err != nil {
		logging.Warn("Failed to record preview for %s: %v", path, err)
	}
}

func (idx *Indexer) underRoots(path string) bool {
	if len(idx.roots) == 0 {
		return true
	}
	for _, root := range idx.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// IsReady reports whether the indexer accepts submissions.
func (idx *Indexer) IsReady() bool {
	idx.stateMu.RLock()
	defer idx.stateMu.RUnlock()
	return idx.started && !idx.stopped
}

// GetStats refreshes and returns catalog counts for the metrics collector.
func (idx *Indexer) GetStats() metrics.Stats {
	if err := idx.db.RefreshStats(context.Background()); err != nil {
		logging.Warn("Failed to refresh catalog stats: %v", err)
	}
	stats := idx.db.GetStats()
	return metrics.Stats{
		TotalFiles:     stats.TotalFiles,
		TotalImages:    stats.ByType[mediatypes.FileTypeImage],
		TotalVideos:    stats.ByType[mediatypes.FileTypeVideo],
		TotalAudio:     stats.ByType[mediatypes.FileTypeAudio],
		TotalPlaylists: stats.ByType[mediatypes.FileTypePlaylist],
		TotalOther:     stats.ByType[mediatypes.FileTypeOther],
	}
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready         bool      `json:"ready"`
	StartTime     time.Time `json:"startTime"`
	Uptime        string    `json:"uptime"`
	LastIndexed   time.Time `json:"lastIndexed,omitempty"`
	Workers       int       `json:"workers"`
	QueueDepth    int       `json:"queueDepth"`
	QueueCapacity int       `json:"queueCapacity"`
	FilesIndexed  int64     `json:"filesIndexed"`
	FilesRemoved  int64     `json:"filesRemoved"`
	Errors        int64     `json:"errors"`
	LastError     string    `json:"lastError,omitempty"`
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	status := HealthStatus{
		Ready:         idx.IsReady(),
		StartTime:     idx.startTime,
		Uptime:        time.Since(idx.startTime).Round(time.Second).String(),
		Workers:       idx.numWorkers,
		QueueDepth:    len(idx.queue),
		QueueCapacity: cap(idx.queue),
		FilesIndexed:  idx.filesIndexed.Load(),
		FilesRemoved:  idx.filesRemoved.Load(),
		Errors:        idx.errorsCount.Load(),
	}
	if ts := idx.lastIndexed.Load(); ts > 0 {
		status.LastIndexed = time.Unix(ts, 0)
	}
	if msg, ok := idx.lastError.Load().(string); ok {
		status.LastError = msg
	}
	return status
}
