package source

import (
	"io"
	"time"

	vidio "github.com/AlexEidt/Vidio"
	"github.com/pkg/errors"

	"github.com/Axisok/qtccv/pkg/types"
)

// frameReader is the part of vidio.Video the source needs.
type frameReader interface {
	Width() int
	Height() int
	Depth() int
	FPS() float64
	Duration() float64
	Read() bool
	FrameBuffer() []byte
	Close()
}

var _ frameReader = (*vidio.Video)(nil)

var openReader = func(path string) (frameReader, error) {
	v, err := vidio.NewVideo(path)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// VideoSource decodes a video file through ffmpeg and samples it by time.
// Frames are only read forward.
type VideoSource struct {
	path string
	r    frameReader

	width  int
	height int
	fps    float64

	index int // index of the frame in buf, -1 before the first read
	buf   *types.RawFrame
}

// OpenVideo starts decoding the video at path.
func OpenVideo(path string) (*VideoSource, error) {
	r, err := openReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "source: open video %s", path)
	}
	if r.FPS() <= 0 {
		r.Close()
		return nil, errors.Wrapf(ErrBadFPS, "video %s", path)
	}
	if r.Width() <= 0 || r.Height() <= 0 {
		r.Close()
		return nil, errors.Wrapf(ErrEmpty, "video %s", path)
	}

	return &VideoSource{
		path:   path,
		r:      r,
		width:  r.Width(),
		height: r.Height(),
		fps:    r.FPS(),
		index:  -1,
		buf:    types.NewRawFrame(r.Width(), r.Height(), Channels),
	}, nil
}

func (s *VideoSource) Size() (int, int) { return s.width, s.height }

func (s *VideoSource) Duration() float64 { return s.r.Duration() }

// FPS returns the container frame rate.
func (s *VideoSource) FPS() float64 { return s.fps }

// FrameAt reads forward to frame floor(t*fps). The returned frame is
// reused by the next call.
func (s *VideoSource) FrameAt(t float64) (*types.RawFrame, error) {
	target := frameIndex(t, s.fps)
	if target < s.index {
		return nil, errors.Wrapf(ErrNonMonotonic, "frame %d after %d", target, s.index)
	}

	for s.index < target {
		if !s.r.Read() {
			return nil, io.EOF
		}
		s.index++
		if s.index == target {
			s.convert(s.r.FrameBuffer(), s.r.Depth())
		}
	}

	s.buf.Index = uint64(s.index)
	s.buf.Time = time.Duration(t * float64(time.Second))
	return s.buf, nil
}

// convert copies the first three channels of each pixel of a decoded
// buffer with depth channels per pixel.
func (s *VideoSource) convert(src []byte, depth int) {
	if depth <= 0 {
		depth = 4
	}
	n := s.width * s.height
	if depth == Channels {
		copy(s.buf.Pix, src[:n*Channels])
		return
	}
	dst := s.buf.Pix
	for i := 0; i < n; i++ {
		for c := 0; c < Channels; c++ {
			if c < depth {
				dst[i*Channels+c] = src[i*depth+c]
			} else {
				dst[i*Channels+c] = src[i*depth]
			}
		}
	}
}

func (s *VideoSource) Close() error {
	s.r.Close()
	return nil
}
