package main

import (
	"context"
	"fmt"
	"time"

	"mediastore-bridge/internal/bridge"
	"mediastore-bridge/internal/database"
	"mediastore-bridge/internal/indexer"
	"mediastore-bridge/internal/logging"
	"mediastore-bridge/internal/memory"
	"mediastore-bridge/internal/metrics"
	"mediastore-bridge/internal/scanner"
	"mediastore-bridge/internal/startup"
	"mediastore-bridge/internal/thumbnail"
)

const metricsCollectInterval = time.Minute

// components holds what the selected scan backend started. Fields not used
// by the backend stay nil.
type components struct {
	action bridge.ScanAction

	db        *database.Database
	idx       *indexer.Indexer
	monitor   *memory.Monitor
	collector *metrics.Collector
	vips      bool

	tracker *scanner.Tracker
}

// setupScanAction builds the platform scan action for config.Backend. The
// "none" backend yields a nil action, so scanFile answers NotImplemented.
func setupScanAction(ctx context.Context, config *startup.Config, mem memory.ConfigResult) (*components, error) {
	startup.LogScanActionInit(config)
	comps := &components{}

	var s scanner.Scanner
	switch config.Backend {
	case scanner.BackendCatalog:
		if err := comps.setupCatalog(ctx, config, mem); err != nil {
			comps.closeStorage()
			return nil, err
		}
		s = scanner.NewCatalog(comps.idx)

	case scanner.BackendTracker:
		tracker, err := scanner.NewTracker()
		if err != nil {
			return nil, fmt.Errorf("tracker backend: %w", err)
		}
		comps.tracker = tracker
		s = tracker

	case scanner.BackendNone:
		logging.Warn("No scan action configured; scanFile will answer NotImplemented")
		return comps, nil

	default:
		return nil, fmt.Errorf("unknown scan backend %q", config.Backend)
	}

	comps.action = scanner.Instrument(config.Backend, s)
	return comps, nil
}

func (c *components) setupCatalog(ctx context.Context, config *startup.Config, mem memory.ConfigResult) error {
	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.db = db
	startup.LogDatabaseInit(time.Since(dbStart))

	var gen *thumbnail.Generator
	if config.ThumbnailsEnabled {
		if err := thumbnail.InitVips(); err != nil {
			logging.Warn("libvips unavailable, previews use the pure Go decoder: %v", err)
		} else {
			c.vips = true
		}
		gen = thumbnail.New(config.CacheDir)
	} else {
		gen = thumbnail.New("")
	}
	startup.LogThumbnailInit(gen.Enabled(), c.vips)

	c.idx = indexer.New(db, indexer.Config{
		QueueSize:  config.QueueSize,
		Workers:    config.Workers,
		MediaRoots: config.MediaRoots,
	})
	c.idx.SetThumbnailer(gen)

	c.monitor = memory.NewMonitor(mem.GoMemLimit, 0, 0)
	c.monitor.Start()
	c.idx.SetThrottler(c.monitor)

	if err := c.idx.Start(); err != nil {
		return fmt.Errorf("failed to start indexer: %w", err)
	}
	status := c.idx.GetHealthStatus()
	startup.LogIndexerStarted(status.Workers, status.QueueCapacity)

	c.collector = metrics.NewCollector(c.idx, metricsCollectInterval)
	c.collector.SetDatabase(db.Path(), db)
	c.collector.Start()
	return nil
}

// shutdown stops the scan action. Queued catalog submissions are indexed
// before it returns.
func (c *components) shutdown(ctx context.Context) {
	if c.idx != nil {
		startup.LogShutdownStep("Stopping indexer")
		done := make(chan struct{})
		go func() {
			c.idx.Stop()
			close(done)
		}()
		select {
		case <-done:
			startup.LogShutdownStepComplete("Indexer drained")
		case <-ctx.Done():
			logging.Warn("Indexer did not drain before the shutdown deadline")
		}
	}
	if c.monitor != nil {
		c.monitor.Stop()
	}
	if c.collector != nil {
		c.collector.Stop()
	}
	if c.tracker != nil {
		if err := c.tracker.Close(); err != nil {
			logging.Warn("Closing session bus: %v", err)
		} else {
			startup.LogShutdownStepComplete("Session bus closed")
		}
	}
}

// closeStorage closes the catalog database and releases libvips.
func (c *components) closeStorage() {
	if c.db != nil {
		startup.LogShutdownStep("Closing database")
		if err := c.db.Close(); err != nil {
			logging.Warn("Database close error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Database closed")
		}
	}
	if c.vips {
		thumbnail.ShutdownVips()
	}
}
