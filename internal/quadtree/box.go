package quadtree

import "math/bits"

// Box is the minimal rectangle around the changed cells of a diff mask.
// W == 0 means nothing changed; the other fields are then zero.
type Box struct {
	X, Y, W, H int
}

// Empty reports whether the box encloses no change.
func (b Box) Empty() bool {
	return b.W == 0
}

// FindBoundingBox returns the tightest box containing every set cell.
func FindBoundingBox(mask Grid) Box {
	minX, minY := mask.Width, mask.Height
	maxX, maxY := -1, -1

	for y := 0; y < mask.Height; y++ {
		row := mask.Pix[y*mask.Width : (y+1)*mask.Width]
		for x, v := range row {
			if !v {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			maxY = y
		}
	}

	if maxX < 0 {
		return Box{}
	}
	return Box{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
}

// MinBits returns the smallest b with 2^b > v. MinBits(0) is 0.
func MinBits(v int) int {
	if v <= 0 {
		return 0
	}
	return bits.Len(uint(v))
}
