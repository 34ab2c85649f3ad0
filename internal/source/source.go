// Package source provides frames to the encode driver from video files,
// still images and directories of images.
package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Axisok/qtccv/pkg/types"
)

var (
	ErrNonMonotonic = errors.New("source: frame times must not decrease")
	ErrSizeMismatch = errors.New("source: image size differs from first frame")
	ErrEmpty        = errors.New("source: no frames")
	ErrBadFPS       = errors.New("source: fps must be positive")
)

// Channels is the sample count of video frames and of images without
// straight alpha.
const Channels = 3

// AlphaChannels is the sample count of images decoded with straight
// alpha; the fourth sample is the alpha value.
const AlphaChannels = 4

// DefaultFPS is the frame rate assumed for image sequences.
const DefaultFPS = 30.0

// FrameSource yields frames sampled at increasing times.
type FrameSource interface {
	// Size returns the frame dimensions in pixels.
	Size() (width, height int)

	// Duration returns the playable length in seconds.
	Duration() float64

	// FrameAt returns the frame shown at t seconds. Successive calls must
	// use non-decreasing t. Past the end it returns io.EOF.
	FrameAt(t float64) (*types.RawFrame, error)

	Close() error
}

// Open picks a source for path: directories become image sequences at fps,
// files with an image extension become still images, and anything else is
// opened as a video.
func Open(path string, fps float64) (FrameSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "source: open")
	}
	if info.IsDir() {
		return OpenSequence(path, fps)
	}
	if IsImagePath(path) {
		return OpenImage(path)
	}
	return OpenVideo(path)
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
	".qoi":  true,
}

// IsImagePath reports whether path has an extension OpenImage can decode.
func IsImagePath(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// frameIndex maps a time to the index of the frame shown at that time.
// The small bias keeps t = k/fps from landing on frame k-1 through
// floating point error.
func frameIndex(t, fps float64) int {
	return int(t*fps + 1e-5)
}
