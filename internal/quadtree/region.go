package quadtree

// Region is a rectangle of the diff mask visited by the quadtree.
type Region struct {
	X, Y, W, H int
}

// Area returns W*H.
func (r Region) Area() int {
	return r.W * r.H
}

// Split divides r into NW, NE, SW and SE children. The top and left halves
// take the ceiling of odd dimensions, so the children always tile r
// exactly. Children of a one-pixel-wide or -tall region may be empty.
func Split(r Region) [4]Region {
	cw, ch := (r.W+1)/2, (r.H+1)/2
	fw, fh := r.W/2, r.H/2

	return [4]Region{
		{X: r.X, Y: r.Y, W: cw, H: ch},           // NW
		{X: r.X + cw, Y: r.Y, W: fw, H: ch},      // NE
		{X: r.X, Y: r.Y + ch, W: cw, H: fh},      // SW
		{X: r.X + cw, Y: r.Y + ch, W: fw, H: fh}, // SE
	}
}

// areaTable is a summed-area table over a grid: sum[(y)*(w+1)+x] holds the
// count of set cells in the rectangle [0,x)×[0,y).
type areaTable struct {
	stride int
	sum    []int
}

func (t *areaTable) build(g Grid) {
	t.stride = g.Width + 1
	n := t.stride * (g.Height + 1)
	if cap(t.sum) < n {
		t.sum = make([]int, n)
	} else {
		t.sum = t.sum[:n]
		clear(t.sum[:t.stride])
	}

	for y := 1; y <= g.Height; y++ {
		row := y * t.stride
		t.sum[row] = 0
		run := 0
		for x := 1; x <= g.Width; x++ {
			if g.Pix[(y-1)*g.Width+x-1] {
				run++
			}
			t.sum[row+x] = t.sum[row-t.stride+x] + run
		}
	}
}

// count returns the number of set cells inside r.
func (t *areaTable) count(r Region) int {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.W, r.Y+r.H
	s := t.sum
	return s[y1*t.stride+x1] - s[y0*t.stride+x1] - s[y1*t.stride+x0] + s[y0*t.stride+x0]
}

// uniform reports whether every cell of r holds the same value, and that
// value. r must be non-empty.
func (t *areaTable) uniform(r Region) (bool, bool) {
	n := t.count(r)
	switch n {
	case 0:
		return true, false
	case r.Area():
		return true, true
	default:
		return false, true
	}
}
