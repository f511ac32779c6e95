package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"mediastore-bridge/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// vipsLogSettings maps the application log level onto libvips logging so
// that libvips stays quiet unless the bridge runs at debug level.
func vipsLogSettings(level logging.LogLevel) (func(string, vips.LogLevel, string), vips.LogLevel) {
	switch level {
	case logging.LevelDebug:
		return func(domain string, lvl vips.LogLevel, msg string) {
			switch lvl {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}, vips.LogLevelInfo
	case logging.LevelInfo:
		return func(domain string, lvl vips.LogLevel, msg string) {
			switch lvl {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			}
		}, vips.LogLevelWarning
	default:
		return func(domain string, lvl vips.LogLevel, msg string) {
			if lvl >= vips.LogLevelError {
				logging.Error("[%s] %s", domain, msg)
			}
		}, vips.LogLevelError
	}
}

// InitVips initializes libvips. It is safe to call more than once.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	handler, level := vipsLogSettings(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	// One operation at a time keeps preview rendering from competing with
	// the indexer for memory.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether libvips has been initialized.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// loadWithVips decodes and shrinks an image in one pass, which avoids
// materializing full-resolution camera images.
func loadWithVips(path string, width, height int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	logging.Debug("Vips loaded %s: %dx%d", filepath.Base(path), ref.Width(), ref.Height())

	if err := ref.Thumbnail(width, height, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        90,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
