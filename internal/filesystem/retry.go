package filesystem

import (
	"cmp"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"mediastore-bridge/internal/logging"
)

// unknownVolume labels paths outside every configured volume.
const unknownVolume = "unknown"

// VolumeResolver labels paths with the volume that contains them, picking
// the deepest matching directory.
type VolumeResolver struct {
	prefixes []volumePrefix // deepest first
}

type volumePrefix struct {
	dir   string // absolute, always ends in a separator
	label string
}

// NewVolumeResolver builds a resolver from label to directory. Empty
// directories are ignored, so optional volumes can be passed unconditionally.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	prefixes := make([]volumePrefix, 0, len(volumes))
	for label, dir := range volumes {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		if !strings.HasSuffix(dir, string(filepath.Separator)) {
			dir += string(filepath.Separator)
		}
		prefixes = append(prefixes, volumePrefix{dir: dir, label: label})
	}
	slices.SortFunc(prefixes, func(a, b volumePrefix) int {
		return cmp.Compare(len(b.dir), len(a.dir))
	})
	return &VolumeResolver{prefixes: prefixes}
}

// Resolve returns the label of the volume holding path, or "unknown".
// A nil resolver resolves everything to "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return unknownVolume
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return unknownVolume
	}
	abs += string(filepath.Separator)
	for _, p := range vr.prefixes {
		if strings.HasPrefix(abs, p.dir) {
			return p.label
		}
	}
	return unknownVolume
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver installs the resolver used when a RetryConfig
// carries none. It is set once during startup.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver for this operation.
	// If nil, the package-level default is used.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isStaleHandle reports whether err wraps ESTALE, which NFS returns when a
// cached handle outlives the file it pointed at.
func isStaleHandle(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// withRetry runs op until it succeeds, fails with a non-ESTALE error, or
// the retry budget is exhausted.
func withRetry[T any](opName, path string, config RetryConfig, op func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.resolveVolume(path)
	obs := observe()
	backoff := config.InitialBackoff

	finish := func() {
		if obs != nil {
			obs.ObserveRetryDuration(opName, volume, time.Since(start).Seconds())
		}
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err := op()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", opName, attempt, path)
				if obs != nil {
					obs.ObserveRetrySuccess(opName, volume)
				}
			}
			finish()
			return result, nil
		}

		lastErr = err

		// Only retry on NFS stale file handle errors
		if !isStaleHandle(err) {
			finish()
			return zero, err
		}

		if obs != nil {
			obs.ObserveStaleError(opName, volume)
		}

		// Don't sleep after the last attempt
		if attempt < config.MaxRetries {
			if obs != nil {
				obs.ObserveRetryAttempt(opName, volume)
			}
			logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				opName, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", opName, config.MaxRetries, path, lastErr)
	if obs != nil {
		obs.ObserveRetryFailure(opName, volume)
	}
	finish()
	return zero, lastErr
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry performs os.Open with retry logic for NFS stale file handle errors
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}
