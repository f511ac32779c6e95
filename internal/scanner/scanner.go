package scanner

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"mediastore-bridge/internal/metrics"
)

// Scanner makes a file visible to a media catalog. Scan returns once the
// request has been handed off; it does not wait for indexing to finish and
// does not check that path exists.
type Scanner interface {
	Scan(ctx context.Context, path string) error
}

// Backend names a Scanner implementation.
type Backend string

// Supported backends.
const (
	BackendCatalog Backend = "catalog"
	BackendTracker Backend = "tracker"
	BackendNone    Backend = "none"
)

// Backends lists every supported backend.
var Backends = []Backend{BackendCatalog, BackendTracker, BackendNone}

// BackendNames returns the backends as strings, for metric labels.
func BackendNames() []string {
	names := make([]string, len(Backends))
	for i, b := range Backends {
		names[i] = string(b)
	}
	return names
}

// ParseBackend validates a backend name. Matching is case-insensitive.
func ParseBackend(name string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Backends {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown scan backend %q (want catalog, tracker or none)", name)
}

// FileLocator converts an absolute file path into the file:// URI media
// indexers address files by.
func FileLocator(path string) string {
	return (&url.URL{Scheme: "file", Path: path}).String()
}

// Func adapts a plain function to the Scanner interface.
type Func func(ctx context.Context, path string) error

// Scan calls f.
func (f Func) Scan(ctx context.Context, path string) error {
	return f(ctx, path)
}

type instrumented struct {
	backend string
	next    Scanner
}

// Instrument wraps s so every submission is counted and timed under the
// given backend label.
func Instrument(backend Backend, s Scanner) Scanner {
	return &instrumented{backend: string(backend), next: s}
}

func (i *instrumented) Scan(ctx context.Context, path string) error {
	start := time.Now()
	err := i.next.Scan(ctx, path)

	status := "submitted"
	if err != nil {
		status = "failed"
	}
	metrics.ScanSubmissionsTotal.WithLabelValues(i.backend, status).Inc()
	metrics.ScanSubmissionDuration.WithLabelValues(i.backend).Observe(time.Since(start).Seconds())
	return err
}
