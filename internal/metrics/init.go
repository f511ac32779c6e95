package metrics

// Outcome labels used by BridgeInvocationsTotal.
const (
	OutcomeSuccess        = "success"
	OutcomeError          = "error"
	OutcomeNotImplemented = "not_implemented"
	OutcomeFailure        = "failure"
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics(methods, backends []string) {
	// --- Bridge invocations (per method × outcome) ---
	methods = append(append([]string{}, methods...), "unknown")
	for _, m := range methods {
		for _, o := range []string{OutcomeSuccess, OutcomeError, OutcomeNotImplemented, OutcomeFailure} {
			BridgeInvocationsTotal.WithLabelValues(m, o)
		}
		BridgeInvocationDuration.WithLabelValues(m)
	}

	for _, code := range []string{"INVALID_PATH", "SCAN_FAILED"} {
		BridgeErrorsTotal.WithLabelValues(code)
	}

	// --- Scan submissions (per backend × status) ---
	for _, b := range backends {
		ScanSubmissionsTotal.WithLabelValues(b, "submitted")
		ScanSubmissionsTotal.WithLabelValues(b, "failed")
		ScanSubmissionDuration.WithLabelValues(b)
	}

	for _, r := range []string{"indexed", "removed", "skipped", "error"} {
		IndexerFilesProcessed.WithLabelValues(r)
	}

	for _, t := range []string{"image", "video", "audio", "playlist", "other"} {
		CatalogFilesTotal.WithLabelValues(t)
	}

	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, d := range []string{"vips", "imaging", "ffmpeg"} {
		ThumbnailGenerationsTotal.WithLabelValues(d, "success")
		ThumbnailGenerationsTotal.WithLabelValues(d, "error")
		ThumbnailGenerationDuration.WithLabelValues(d)
	}

	// --- Filesystem retry metrics (per retry-operation × volume) ---
	volumes := []string{"media", "cache", "database", "unknown"}
	for _, op := range []string{"stat", "open"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
