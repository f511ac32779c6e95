package thumbnail

import (
	"fmt"
	"image"

	"mediastore-bridge/internal/filesystem"
	"mediastore-bridge/internal/logging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension is the largest width or height decoded at full size.
	MaxImageDimension = 4096

	// MaxImagePixels caps the decoded RGBA footprint at roughly 80MB.
	MaxImagePixels = 20_000_000
)

// Dimensions holds image width and height.
type Dimensions struct {
	Width  int
	Height int
}

// ImageDimensions reads the image header without decoding pixel data.
func ImageDimensions(path string) (Dimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return Dimensions{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return Dimensions{}, err
	}
	return Dimensions{Width: config.Width, Height: config.Height}, nil
}

// constrain returns the size an image of width x height is scaled to so it
// stays within maxDimension and maxPixels. ok is false when no scaling is
// needed.
func constrain(width, height, maxDimension, maxPixels int) (int, int, bool) {
	if width <= maxDimension && height <= maxDimension && width*height <= maxPixels {
		return width, height, false
	}

	targetWidth, targetHeight := width, height
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	if pixels := targetWidth * targetHeight; pixels > maxPixels {
		scale := float64(maxPixels) / float64(pixels)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}
	return targetWidth, targetHeight, true
}

// LoadImageConstrained decodes an image with EXIF orientation applied,
// downscaling it when it exceeds maxDimension or maxPixels.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	bounds := img.Bounds()
	width, height, scale := constrain(bounds.Dx(), bounds.Dy(), maxDimension, maxPixels)
	if !scale {
		return img, nil
	}

	logging.Debug("Constraining large image %s from %dx%d to %dx%d", path, bounds.Dx(), bounds.Dy(), width, height)
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}
