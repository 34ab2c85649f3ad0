package source

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/Axisok/qtccv/pkg/types"
)

// SequenceSource plays the images of a directory, in file name order, at a
// fixed frame rate. Images are decoded on demand.
type SequenceSource struct {
	files  []string
	fps    float64
	width  int
	height int

	index int
	frame *types.RawFrame
}

// OpenSequence lists the images in dir. The first image fixes the frame
// size. A non-positive fps selects DefaultFPS.
func OpenSequence(dir string, fps float64) (*SequenceSource, error) {
	if fps <= 0 {
		fps = DefaultFPS
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "source: read sequence dir")
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsImagePath(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrEmpty, "directory %s", dir)
	}
	sort.Strings(files)

	cfg, err := decodeConfig(files[0])
	if err != nil {
		return nil, err
	}

	return &SequenceSource{
		files:  files,
		fps:    fps,
		width:  cfg.Width,
		height: cfg.Height,
		index:  -1,
	}, nil
}

func (s *SequenceSource) Size() (int, int) { return s.width, s.height }

func (s *SequenceSource) Duration() float64 {
	return float64(len(s.files)) / s.fps
}

// Len returns the number of images.
func (s *SequenceSource) Len() int { return len(s.files) }

// FrameAt returns the image shown at t. The frame owns its samples, so
// callers may modify it without affecting later calls.
func (s *SequenceSource) FrameAt(t float64) (*types.RawFrame, error) {
	idx := frameIndex(t, s.fps)
	if idx < s.index {
		return nil, errors.Wrapf(ErrNonMonotonic, "frame %d after %d", idx, s.index)
	}
	if idx >= len(s.files) {
		return nil, io.EOF
	}

	if idx != s.index {
		img, _, err := decodeFile(s.files[idx])
		if err != nil {
			return nil, err
		}
		frame := FromImage(img)
		if frame.Width != s.width || frame.Height != s.height {
			return nil, errors.Wrapf(ErrSizeMismatch, "%s is %dx%d, want %dx%d",
				s.files[idx], frame.Width, frame.Height, s.width, s.height)
		}
		frame.Index = uint64(idx)
		s.frame = frame
		s.index = idx
	}

	f := *s.frame
	f.Pix = append([]byte(nil), s.frame.Pix...)
	f.Time = time.Duration(t * float64(time.Second))
	return &f, nil
}

func (s *SequenceSource) Close() error {
	s.frame = nil
	return nil
}
