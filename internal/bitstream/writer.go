// Package bitstream packs individual bits into bytes, MSB first.
//
// A Writer owns its partial byte and its output buffer; two writers never
// share state, so independent encoders can run side by side in one process.
package bitstream

import (
	"errors"
	"fmt"
	"io"
)

// MaxNumberBits is the widest field AddNumber and WriteNumber accept.
const MaxNumberBits = 16

var (
	ErrBitWidth       = errors.New("bitstream: bit width out of range [1,16]")
	ErrNumberOverflow = errors.New("bitstream: value does not fit bit width")
	ErrClosed         = errors.New("bitstream: writer already closed")
)

// Writer accumulates bits into an append-only byte stream.
type Writer struct {
	buf    []byte // completed bytes
	acc    byte   // partial byte, bits packed from the MSB down
	nbit   uint8  // bits held in acc (0-8)
	total  int    // bits written since creation, padding excluded
	closed bool
	err    error

	debug io.Writer
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// SetDebug mirrors every written bit to w as an ASCII '0' or '1'.
// A nil w turns mirroring off.
func (bw *Writer) SetDebug(w io.Writer) {
	bw.debug = w
}

// AddBit appends one bit. The accumulator is flushed once it holds 8 bits.
func (bw *Writer) AddBit(bit bool) {
	if bw.closed {
		if bw.err == nil {
			bw.err = ErrClosed
		}
		return
	}
	if bw.debug != nil {
		c := byte('0')
		if bit {
			c = '1'
		}
		_, _ = bw.debug.Write([]byte{c})
	}

	if bit {
		bw.acc |= 1 << (7 - bw.nbit)
	}
	bw.nbit++
	bw.total++
	if bw.nbit == 8 {
		bw.flush()
	}
}

// AddBits appends each bit in order.
func (bw *Writer) AddBits(bits ...bool) {
	for _, b := range bits {
		bw.AddBit(b)
	}
}

// AddNumber writes the low n bits of a 16-bit view of value, most
// significant first.
//
// An n outside [1,16] is silently ignored and bits of value above n are
// silently dropped. Both quirks are part of the format's reference
// behavior; use WriteNumber when the caller wants them reported.
func (bw *Writer) AddNumber(value int, n int) {
	if n < 1 || n > MaxNumberBits {
		return
	}
	v := uint16(value)
	for i := n - 1; i >= 0; i-- {
		bw.AddBit((v>>uint(i))&1 != 0)
	}
}

// WriteNumber is AddNumber with the range checks made explicit. Nothing is
// written when it returns an error.
func (bw *Writer) WriteNumber(value int, n int) error {
	if n < 1 || n > MaxNumberBits {
		return fmt.Errorf("%w: n=%d", ErrBitWidth, n)
	}
	if value < 0 || value >= 1<<uint(n) {
		return fmt.Errorf("%w: %d in %d bits", ErrNumberOverflow, value, n)
	}
	if bw.closed {
		return ErrClosed
	}
	bw.AddNumber(value, n)
	return nil
}

// Close pads the partial byte with zero bits and flushes it. The byte is
// appended even when no bits are pending, so a stream that ends on a byte
// boundary still gains a trailing zero byte.
func (bw *Writer) Close() error {
	if bw.closed {
		return ErrClosed
	}
	bw.flush()
	bw.closed = true
	return nil
}

func (bw *Writer) flush() {
	bw.buf = append(bw.buf, bw.acc)
	bw.acc = 0
	bw.nbit = 0
}

// Closed reports whether Close has been called.
func (bw *Writer) Closed() bool {
	return bw.closed
}

// Err returns the first misuse recorded by the writer, such as bits added
// after Close.
func (bw *Writer) Err() error {
	return bw.err
}

// Len returns the number of completed bytes.
func (bw *Writer) Len() int {
	return len(bw.buf)
}

// BitsWritten returns the number of data bits written, excluding the
// padding added by Close.
func (bw *Writer) BitsWritten() int {
	return bw.total
}

// Pending returns the number of bits waiting in the partial byte.
func (bw *Writer) Pending() int {
	return int(bw.nbit)
}

// Bytes returns a copy of the completed bytes.
func (bw *Writer) Bytes() []byte {
	out := make([]byte, len(bw.buf))
	copy(out, bw.buf)
	return out
}
