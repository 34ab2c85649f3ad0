package bitstream

import (
	"bytes"
	"errors"
	"testing"
)

func TestAddBitMSBFirst(t *testing.T) {
	bw := NewWriter()
	bw.AddBits(true, false, true, false, true, false, true, false)

	if bw.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", bw.Len())
	}
	if got := bw.Bytes()[0]; got != 0xAA {
		t.Fatalf("byte = 0x%02X, want 0xAA", got)
	}
	if bw.Pending() != 0 {
		t.Fatalf("Pending() = %d after a full byte", bw.Pending())
	}
}

func TestAddNumber(t *testing.T) {
	tests := []struct {
		name  string
		value int
		n     int
		want  []byte
	}{
		{name: "byte", value: 0xAB, n: 8, want: []byte{0xAB, 0x00}},
		{name: "sixteen bits", value: 0x1234, n: 16, want: []byte{0x12, 0x34, 0x00}},
		{name: "five bits padded", value: 0x1F, n: 5, want: []byte{0xF8}},
		{name: "truncated to low bits", value: 0x1FF, n: 4, want: []byte{0xF0}},
		{name: "beyond 16-bit view", value: 0x10003, n: 2, want: []byte{0xC0}},
		{name: "zero width ignored", value: 7, n: 0, want: []byte{0x00}},
		{name: "seventeen bits ignored", value: 7, n: 17, want: []byte{0x00}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bw := NewWriter()
			bw.AddNumber(tc.value, tc.n)
			if err := bw.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if got := bw.Bytes(); !bytes.Equal(got, tc.want) {
				t.Fatalf("bytes = %X, want %X", got, tc.want)
			}
		})
	}
}

func TestWriteNumberChecks(t *testing.T) {
	bw := NewWriter()

	if err := bw.WriteNumber(1, 0); !errors.Is(err, ErrBitWidth) {
		t.Fatalf("n=0: err = %v, want ErrBitWidth", err)
	}
	if err := bw.WriteNumber(1, 17); !errors.Is(err, ErrBitWidth) {
		t.Fatalf("n=17: err = %v, want ErrBitWidth", err)
	}
	if err := bw.WriteNumber(16, 4); !errors.Is(err, ErrNumberOverflow) {
		t.Fatalf("16 in 4 bits: err = %v, want ErrNumberOverflow", err)
	}
	if err := bw.WriteNumber(-1, 4); !errors.Is(err, ErrNumberOverflow) {
		t.Fatalf("-1: err = %v, want ErrNumberOverflow", err)
	}
	if bw.BitsWritten() != 0 {
		t.Fatalf("failed writes emitted %d bits", bw.BitsWritten())
	}

	if err := bw.WriteNumber(15, 4); err != nil {
		t.Fatalf("15 in 4 bits: %v", err)
	}
	if bw.BitsWritten() != 4 {
		t.Fatalf("BitsWritten() = %d, want 4", bw.BitsWritten())
	}
}

func TestCloseAlwaysAppendsByte(t *testing.T) {
	bw := NewWriter()
	bw.AddNumber(0xFF, 8)
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := bw.Bytes(); !bytes.Equal(got, []byte{0xFF, 0x00}) {
		t.Fatalf("bytes = %X, want FF00", got)
	}

	empty := NewWriter()
	if err := empty.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := empty.Bytes(); !bytes.Equal(got, []byte{0x00}) {
		t.Fatalf("empty stream bytes = %X, want 00", got)
	}
}

func TestCloseTwice(t *testing.T) {
	bw := NewWriter()
	if err := bw.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := bw.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second Close: err = %v, want ErrClosed", err)
	}

	bw.AddBit(true)
	if !errors.Is(bw.Err(), ErrClosed) {
		t.Fatalf("Err() = %v after write past close", bw.Err())
	}
	if bw.Len() != 1 {
		t.Fatalf("Len() = %d, closed stream grew", bw.Len())
	}
}

func TestDebugMirror(t *testing.T) {
	var mirror bytes.Buffer
	bw := NewWriter()
	bw.SetDebug(&mirror)
	bw.AddNumber(5, 3)
	bw.AddBit(false)

	if mirror.String() != "1010" {
		t.Fatalf("mirror = %q, want %q", mirror.String(), "1010")
	}
}

func TestWritersAreIndependent(t *testing.T) {
	a := NewWriter()
	b := NewWriter()
	a.AddBits(true, true, true)
	b.AddBits(false)
	_ = a.Close()
	_ = b.Close()

	if got := a.Bytes(); !bytes.Equal(got, []byte{0xE0}) {
		t.Fatalf("a = %X, want E0", got)
	}
	if got := b.Bytes(); !bytes.Equal(got, []byte{0x00}) {
		t.Fatalf("b = %X, want 00", got)
	}
}
