package quadtree

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Axisok/qtccv/internal/bitstream"
	"github.com/Axisok/qtccv/pkg/types"
)

var errShortStream = errors.New("stream ended early")

// frameFromRows builds an RGB frame where '#' is white and anything else
// is black.
func frameFromRows(t *testing.T, rows ...string) *types.RawFrame {
	t.Helper()
	if len(rows) == 0 {
		t.Fatalf("frameFromRows: no rows")
	}
	f := types.NewRawFrame(len(rows[0]), len(rows), 3)
	for y, row := range rows {
		if len(row) != f.Width {
			t.Fatalf("frameFromRows: row %d has %d columns, want %d", y, len(row), f.Width)
		}
		for x, c := range row {
			if c == '#' {
				f.SetRGB(x, y, 255, 255, 255)
			}
		}
	}
	return f
}

func gridFromRows(t *testing.T, rows ...string) Grid {
	t.Helper()
	g, err := Binarize(frameFromRows(t, rows...))
	if err != nil {
		t.Fatalf("Binarize: %v", err)
	}
	return g
}

// quadBits encodes region r of mask on its own and returns the bits as a
// string of '0' and '1'.
func quadBits(t *testing.T, mask Grid, r Region) string {
	t.Helper()
	var mirror bytes.Buffer
	bw := bitstream.NewWriter()
	bw.SetDebug(&mirror)

	enc, err := NewEncoder(mask.Width, mask.Height, bw)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	enc.table.build(mask)
	enc.encodeQuad(r, 0)
	return mirror.String()
}

// naiveQuadBits is the direct scan the summed-area table replaces.
func naiveQuadBits(mask Grid, r Region, out *bytes.Buffer) {
	if r.Area() == 0 {
		return
	}
	first := mask.At(r.X, r.Y)
	uniform := true
	for y := r.Y; y < r.Y+r.H && uniform; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			if mask.At(x, y) != first {
				uniform = false
				break
			}
		}
	}
	if uniform {
		out.WriteByte('0')
		if first {
			out.WriteByte('1')
		} else {
			out.WriteByte('0')
		}
		return
	}
	out.WriteByte('1')
	for _, q := range Split(r) {
		naiveQuadBits(mask, q, out)
	}
}

type bitReader struct {
	data []byte
	pos  int
}

func (r *bitReader) bit() (bool, error) {
	if r.pos >= len(r.data)*8 {
		return false, errShortStream
	}
	b := r.data[r.pos/8]>>(7-uint(r.pos%8))&1 != 0
	r.pos++
	return b, nil
}

func (r *bitReader) number(n int) (int, error) {
	v := 0
	for i := 0; i < n; i++ {
		b, err := r.bit()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v, nil
}

// streamDecoder inverts the frame grammar written by Encoder.
type streamDecoder struct {
	r      *bitReader
	width  int
	height int
	grid   Grid
}

func newStreamDecoder(data []byte, width, height int) *streamDecoder {
	return &streamDecoder{
		r:      &bitReader{data: data},
		width:  width,
		height: height,
		grid:   NewGrid(width, height),
	}
}

func (d *streamDecoder) next() (Grid, error) {
	x, err := d.r.number(MinBits(d.width))
	if err != nil {
		return Grid{}, err
	}
	y, err := d.r.number(MinBits(d.height))
	if err != nil {
		return Grid{}, err
	}
	w, err := d.r.number(MinBits(d.width - x))
	if err != nil {
		return Grid{}, err
	}

	if w != 0 {
		h, err := d.r.number(MinBits(d.height - y))
		if err != nil {
			return Grid{}, err
		}
		diff := NewGrid(d.width, d.height)
		if err := d.quad(diff, Region{X: x, Y: y, W: w, H: h}); err != nil {
			return Grid{}, err
		}
		d.grid = Diff(d.grid, diff)
	}

	out := NewGrid(d.width, d.height)
	copy(out.Pix, d.grid.Pix)
	return out, nil
}

func (d *streamDecoder) quad(diff Grid, r Region) error {
	if r.Area() == 0 {
		return nil
	}
	split, err := d.r.bit()
	if err != nil {
		return err
	}
	if !split {
		color, err := d.r.bit()
		if err != nil {
			return err
		}
		for y := r.Y; y < r.Y+r.H; y++ {
			for x := r.X; x < r.X+r.W; x++ {
				diff.Set(x, y, color)
			}
		}
		return nil
	}
	for _, q := range Split(r) {
		if err := d.quad(diff, q); err != nil {
			return err
		}
	}
	return nil
}
