package quadtree

import (
	"fmt"

	"github.com/Axisok/qtccv/internal/bitstream"
	"github.com/Axisok/qtccv/pkg/types"
)

// MaxFieldBits is the widest coordinate field the stream format allows.
const MaxFieldBits = bitstream.MaxNumberBits

// FrameStats describes the last encoded frame.
type FrameStats struct {
	Box    Box // Bounding box of the change; Box.W == 0 when unchanged
	Nodes  int // Quadtree nodes written
	Leaves int // Leaf nodes written
	Splits int // Split nodes written
	Depth  int // Deepest level reached, 0 for the box itself
	Bits   int // Bits written for the frame, box fields included
}

// Unchanged reports whether the frame matched its predecessor.
func (s FrameStats) Unchanged() bool {
	return s.Box.Empty()
}

// Encoder writes frames as quadtrees of their difference to the previous
// frame. It keeps the previous binary grid between calls, so frames must
// be submitted in presentation order. An Encoder is not safe for
// concurrent use.
type Encoder struct {
	width      int
	height     int
	widthBits  int
	heightBits int

	out   *bitstream.Writer
	prev  Grid
	table areaTable

	frames uint64
	last   FrameStats
}

// NewEncoder prepares an encoder for width×height frames writing to out.
// It fails when either dimension needs more than 16 bits to address.
func NewEncoder(width, height int, out *bitstream.Writer) (*Encoder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}

	wb, hb := MinBits(width), MinBits(height)
	if wb > MaxFieldBits || hb > MaxFieldBits {
		return nil, fmt.Errorf("%w: %dx%d needs %d/%d bits", ErrTooLarge, width, height, wb, hb)
	}

	return &Encoder{
		width:      width,
		height:     height,
		widthBits:  wb,
		heightBits: hb,
		out:        out,
		prev:       NewGrid(width, height),
	}, nil
}

// WidthBits returns the fixed width of the x field.
func (e *Encoder) WidthBits() int { return e.widthBits }

// HeightBits returns the fixed width of the y field.
func (e *Encoder) HeightBits() int { return e.heightBits }

// Frames returns the number of frames encoded so far.
func (e *Encoder) Frames() uint64 { return e.frames }

// LastFrame returns statistics for the most recent EncodeFrame call.
func (e *Encoder) LastFrame() FrameStats { return e.last }

// Previous returns the binary grid the next frame will be diffed against.
func (e *Encoder) Previous() Grid { return e.prev }

// EncodeFrame binarizes frame, diffs it against the previous frame and
// writes the changed region.
//
// Layout per frame: x (WidthBits), y (HeightBits), w (MinBits(width-x)).
// When w is zero the frame is unchanged and nothing else follows;
// otherwise h (MinBits(height-y)) and the quadtree of the box follow.
func (e *Encoder) EncodeFrame(frame *types.RawFrame) error {
	if frame.Width != e.width || frame.Height != e.height {
		return fmt.Errorf("%w: got %dx%d, encoder is %dx%d",
			ErrFrameSize, frame.Width, frame.Height, e.width, e.height)
	}

	cur, err := Binarize(frame)
	if err != nil {
		return err
	}

	diff := Diff(cur, e.prev)
	box := FindBoundingBox(diff)
	start := e.out.BitsWritten()

	e.last = FrameStats{Box: box}

	if err := e.out.WriteNumber(box.X, e.widthBits); err != nil {
		return fmt.Errorf("quadtree: write x: %w", err)
	}
	if err := e.out.WriteNumber(box.Y, e.heightBits); err != nil {
		return fmt.Errorf("quadtree: write y: %w", err)
	}
	if err := e.out.WriteNumber(box.W, MinBits(e.width-box.X)); err != nil {
		return fmt.Errorf("quadtree: write w: %w", err)
	}

	if !box.Empty() {
		if err := e.out.WriteNumber(box.H, MinBits(e.height-box.Y)); err != nil {
			return fmt.Errorf("quadtree: write h: %w", err)
		}
		e.table.build(diff)
		e.encodeQuad(Region{X: box.X, Y: box.Y, W: box.W, H: box.H}, 0)
	}

	e.last.Bits = e.out.BitsWritten() - start
	e.prev = cur
	e.frames++
	return nil
}

// encodeQuad writes r and its descendants in preorder. Empty regions are
// skipped; the decoder derives the same skip from the split arithmetic.
func (e *Encoder) encodeQuad(r Region, depth int) {
	if r.Area() == 0 {
		return
	}

	e.last.Nodes++
	if depth > e.last.Depth {
		e.last.Depth = depth
	}

	if uniform, color := e.table.uniform(r); uniform {
		e.last.Leaves++
		e.out.AddBits(false, color)
		return
	}

	e.last.Splits++
	e.out.AddBit(true)
	for _, q := range Split(r) {
		e.encodeQuad(q, depth+1)
	}
}
