package driver

import (
	"errors"
	"fmt"

	"github.com/Axisok/qtccv/internal/bitstream"
)

// Header field widths. Each field stores value-1.
const (
	SleepTickBits = 5
	WidthBits     = 10
	HeightBits    = 9
	HeaderBits    = SleepTickBits + WidthBits + HeightBits

	MaxSleepTicks = 16
	MaxWidth      = 1 << WidthBits
	MaxHeight     = 1 << HeightBits
)

var ErrHeaderOverflow = errors.New("driver: value does not fit the stream header")

// StreamHeader opens every video stream.
type StreamHeader struct {
	SleepTicks int
	Width      int
	Height     int
}

// Validate checks every field fits its slot.
func (h StreamHeader) Validate() error {
	switch {
	case h.SleepTicks < 1 || h.SleepTicks > MaxSleepTicks:
		return fmt.Errorf("%w: sleep ticks %d not in [1,%d]", ErrHeaderOverflow, h.SleepTicks, MaxSleepTicks)
	case h.Width < 1 || h.Width > MaxWidth:
		return fmt.Errorf("%w: width %d not in [1,%d]", ErrHeaderOverflow, h.Width, MaxWidth)
	case h.Height < 1 || h.Height > MaxHeight:
		return fmt.Errorf("%w: height %d not in [1,%d]", ErrHeaderOverflow, h.Height, MaxHeight)
	}
	return nil
}

// Write appends the 24 header bits to w.
func (h StreamHeader) Write(w *bitstream.Writer) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if err := w.WriteNumber(h.SleepTicks-1, SleepTickBits); err != nil {
		return err
	}
	if err := w.WriteNumber(h.Width-1, WidthBits); err != nil {
		return err
	}
	return w.WriteNumber(h.Height-1, HeightBits)
}
