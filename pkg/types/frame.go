package types

import "time"

// RawFrame is one decoded video frame as a height×width×channels array of
// 8-bit samples, stored row-major: Pix[(y*Width+x)*Channels+c].
type RawFrame struct {
	Pix      []uint8       // Interleaved samples
	Width    int           // Frame width in pixels
	Height   int           // Frame height in pixels
	Channels int           // Samples per pixel (3 for RGB)
	Index    uint64        // Sequential frame number within the source
	Time     time.Duration // Presentation time the frame was sampled at
}

// NewRawFrame allocates a zeroed frame.
func NewRawFrame(width, height, channels int) *RawFrame {
	return &RawFrame{
		Pix:      make([]uint8, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

// Offset returns the index of the first sample of pixel (x, y).
func (f *RawFrame) Offset(x, y int) int {
	return (y*f.Width + x) * f.Channels
}

// SetRGB writes the first three channels of pixel (x, y). Extra channels
// are left untouched; frames with fewer channels take the leading values.
func (f *RawFrame) SetRGB(x, y int, r, g, b uint8) {
	off := f.Offset(x, y)
	rgb := [3]uint8{r, g, b}
	for c := 0; c < f.Channels && c < 3; c++ {
		f.Pix[off+c] = rgb[c]
	}
}

// Fill sets every sample to v.
func (f *RawFrame) Fill(v uint8) {
	for i := range f.Pix {
		f.Pix[i] = v
	}
}
