// Package metrics declares the Prometheus collectors exported by the media
// store bridge.
//
// Collectors are registered with the default registry at package init via
// promauto, grouped by subsystem: HTTP, bridge invocations, scan
// submissions, indexer, database, catalog, thumbnails and filesystem
// retries. Call InitializeMetrics once at startup so every label
// combination is present from the first scrape.
//
// The Collector refreshes gauges that are derived from catalog state on a
// fixed interval.
package metrics
