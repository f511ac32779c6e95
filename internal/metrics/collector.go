package metrics

import (
	"os"
	"sync"
	"time"

	"mediastore-bridge/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// DBMetricsUpdater refreshes connection-pool gauges.
type DBMetricsUpdater interface {
	UpdateDBMetrics()
}

// Stats holds the current catalog statistics
type Stats struct {
	TotalFiles     int
	TotalImages    int
	TotalVideos    int
	TotalAudio     int
	TotalPlaylists int
	TotalOther     int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	dbUpdater     DBMetricsUpdater
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// SetDatabase configures the database whose file sizes and pool
// statistics are reported on every collection.
func (c *Collector) SetDatabase(path string, updater DBMetricsUpdater) {
	c.dbPath = path
	c.dbUpdater = updater
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectDBSize()

	if c.dbUpdater != nil {
		c.dbUpdater.UpdateDBMetrics()
	}

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CatalogFilesTotal.WithLabelValues("image").Set(float64(stats.TotalImages))
	CatalogFilesTotal.WithLabelValues("video").Set(float64(stats.TotalVideos))
	CatalogFilesTotal.WithLabelValues("audio").Set(float64(stats.TotalAudio))
	CatalogFilesTotal.WithLabelValues("playlist").Set(float64(stats.TotalPlaylists))
	CatalogFilesTotal.WithLabelValues("other").Set(float64(stats.TotalOther))

	logging.Debug("Metrics collected: files=%d, images=%d, videos=%d",
		stats.TotalFiles, stats.TotalImages, stats.TotalVideos)
}

// collectDBSize reports the size of the SQLite main, WAL and SHM files.
func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}

	files := map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	}
	for label, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			DBSizeBytes.WithLabelValues(label).Set(0)
			continue
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
	}
}
