package thumbnail

import (
	"bytes"
	"crypto/md5" //nolint:gosec // MD5 used for cache key generation, not security
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mediastore-bridge/internal/logging"
	"mediastore-bridge/internal/mediatypes"
	"mediastore-bridge/internal/metrics"

	"github.com/disintegration/imaging"
)

// Size is the bounding box for generated previews.
const Size = 200

// ErrUnsupported is returned for files that have no preview renderer.
var ErrUnsupported = errors.New("no preview renderer for file type")

// ErrDisabled is returned when the generator has no cache directory.
var ErrDisabled = errors.New("thumbnails disabled")

// Generator renders JPEG previews into a cache directory.
type Generator struct {
	cacheDir string
	enabled  bool
	mu       sync.Mutex
}

// New returns a Generator writing to cacheDir/thumbnails. An empty cacheDir
// disables preview rendering.
func New(cacheDir string) *Generator {
	if cacheDir == "" {
		logging.Debug("Thumbnail generator disabled: no cache directory")
		return &Generator{}
	}

	dir := filepath.Join(cacheDir, "thumbnails")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Warn("Thumbnail generator disabled: cannot create %s: %v", dir, err)
		return &Generator{}
	}

	logging.Debug("Thumbnail generator enabled, cache dir: %s", dir)
	return &Generator{cacheDir: dir, enabled: true}
}

// Enabled reports whether previews are rendered.
func (g *Generator) Enabled() bool {
	return g != nil && g.enabled
}

// CachePath returns where the preview for sourcePath is stored.
func (g *Generator) CachePath(sourcePath string) string {
	hash := md5.Sum([]byte(sourcePath)) //nolint:gosec // cache key only
	return filepath.Join(g.cacheDir, fmt.Sprintf("%x.jpg", hash))
}

// Generate renders the preview for an image or video and returns the
// cache path. Previews are always regenerated, since a scan request means
// the file content may have changed.
func (g *Generator) Generate(sourcePath string, fileType mediatypes.FileType) (string, error) {
	if !g.Enabled() {
		return "", ErrDisabled
	}

	var decodeFn func() (image.Image, string, error)
	switch fileType {
	case mediatypes.FileTypeImage:
		// Reject files whose header no registered decoder understands
		// before paying for a full decode.
		if _, err := ImageDimensions(sourcePath); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		decodeFn = func() (image.Image, string, error) { return g.decode(sourcePath) }
	case mediatypes.FileTypeVideo:
		decodeFn = func() (image.Image, string, error) {
			img, err := timedDecode("ffmpeg", func() (image.Image, error) {
				return extractVideoFrame(sourcePath)
			})
			if err != nil {
				return nil, "ffmpeg", fmt.Errorf("%w: %w", ErrUnsupported, err)
			}
			return img, "ffmpeg", nil
		}
	default:
		return "", ErrUnsupported
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	img, decoder, err := decodeFn()
	if err != nil {
		return "", fmt.Errorf("thumbnail generation failed: %w", err)
	}

	thumb := imaging.Fit(img, Size, Size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	cachePath := g.CachePath(sourcePath)
	if err := writeAtomic(cachePath, buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to cache thumbnail: %w", err)
	}

	logging.Debug("Thumbnail cached via %s: %s", decoder, cachePath)
	return cachePath, nil
}

// decode prefers libvips when it is running and falls back to imaging.
func (g *Generator) decode(path string) (image.Image, string, error) {
	if IsVipsAvailable() {
		img, err := timedDecode("vips", func() (image.Image, error) {
			return loadWithVips(path, Size, Size)
		})
		if err == nil {
			return img, "vips", nil
		}
		logging.Debug("vips decode failed for %s: %v, falling back to imaging", path, err)
	}

	img, err := timedDecode("imaging", func() (image.Image, error) {
		return LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
	})
	return img, "imaging", err
}

func timedDecode(decoder string, fn func() (image.Image, error)) (image.Image, error) {
	start := time.Now()
	img, err := fn()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(decoder, status).Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues(decoder).Observe(time.Since(start).Seconds())
	return img, err
}

// Remove deletes the cached preview for sourcePath, if any.
func (g *Generator) Remove(sourcePath string) {
	if !g.Enabled() {
		return
	}
	if err := os.Remove(g.CachePath(sourcePath)); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove thumbnail for %s: %v", sourcePath, err)
	}
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thumb-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
