// Package quadtree implements the differential quadtree encoder for
// two-color video.
//
// Each frame is reduced to a binary grid, XORed against the previous grid,
// and the bounding box of the changed pixels is written as a region
// quadtree: a leaf is '0' followed by its color bit, a split is '1'
// followed by its NW, NE, SW and SE children.
package quadtree

import (
	"errors"
	"fmt"

	"github.com/Axisok/qtccv/pkg/types"
)

var (
	ErrNoChannels = errors.New("quadtree: frame has no channels")
	ErrFrameSize  = errors.New("quadtree: frame size mismatch")
	ErrDimensions = errors.New("quadtree: width and height must be positive")
	ErrTooLarge   = errors.New("quadtree: video dimensions need more than 16 bits")
)

// Grid is a height×width matrix of single-bit values, row-major.
type Grid struct {
	Width  int
	Height int
	Pix    []bool
}

// NewGrid returns an all-zero grid.
func NewGrid(width, height int) Grid {
	return Grid{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At returns the value at column x, row y.
func (g Grid) At(x, y int) bool {
	return g.Pix[y*g.Width+x]
}

// Set stores v at column x, row y.
func (g Grid) Set(x, y int, v bool) {
	g.Pix[y*g.Width+x] = v
}

// Count returns the number of set cells.
func (g Grid) Count() int {
	n := 0
	for _, v := range g.Pix {
		if v {
			n++
		}
	}
	return n
}

// Equal reports whether both grids have the same size and contents.
func (g Grid) Equal(o Grid) bool {
	if g.Width != o.Width || g.Height != o.Height || len(g.Pix) != len(o.Pix) {
		return false
	}
	for i := range g.Pix {
		if g.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// Binarize thresholds each pixel to round(mean(channels)/255).
//
// Rounding is half-to-even, so a mean of exactly 127.5 (reachable only
// with an even channel count) becomes 0. In integers: a pixel is 1 iff
// 2*sum > 255*channels.
func Binarize(frame *types.RawFrame) (Grid, error) {
	if frame.Channels < 1 {
		return Grid{}, ErrNoChannels
	}
	if frame.Width < 0 || frame.Height < 0 || len(frame.Pix) != frame.Width*frame.Height*frame.Channels {
		return Grid{}, fmt.Errorf("%w: %dx%dx%d with %d samples",
			ErrFrameSize, frame.Width, frame.Height, frame.Channels, len(frame.Pix))
	}

	g := NewGrid(frame.Width, frame.Height)
	threshold := 255 * frame.Channels
	ch := frame.Channels
	for i := range g.Pix {
		sum := 0
		for _, s := range frame.Pix[i*ch : (i+1)*ch] {
			sum += int(s)
		}
		g.Pix[i] = 2*sum > threshold
	}
	return g, nil
}

// Diff returns the element-wise XOR of two equally sized grids.
func Diff(cur, prev Grid) Grid {
	d := NewGrid(cur.Width, cur.Height)
	for i := range d.Pix {
		d.Pix[i] = cur.Pix[i] != prev.Pix[i]
	}
	return d
}
