package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"time"

	"mediastore-bridge/internal/logging"
)

// videoFrameTimeout bounds a single ffmpeg run.
const videoFrameTimeout = 30 * time.Second

// ErrNoFFmpeg is returned for video previews when ffmpeg is not installed.
var ErrNoFFmpeg = errors.New("ffmpeg not found in PATH")

var lookPath = exec.LookPath

// extractVideoFrame grabs a frame one second in, falling back to the first
// frame for clips shorter than that.
func extractVideoFrame(path string) (image.Image, error) {
	ffmpegPath, err := lookPath("ffmpeg")
	if err != nil {
		return nil, ErrNoFFmpeg
	}

	data, err := runFFmpeg(ffmpegPath, "-ss", "00:00:01", "-i", path)
	if err != nil || len(data) == 0 {
		logging.Debug("ffmpeg seek attempt failed for %s: %v, retrying at first frame", path, err)
		data, err = runFFmpeg(ffmpegPath, "-i", path)
		if err != nil {
			return nil, err
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

func runFFmpeg(ffmpegPath string, input ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), videoFrameTimeout)
	defer cancel()

	args := append([]string{"-hide_banner", "-loglevel", "error"}, input...)
	args = append(args, "-frames:v", "1", "-f", "image2pipe", "-vcodec", "png", "-")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegPath, args...) //nolint:gosec // path is a catalogued file, passed as a single argument
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}
