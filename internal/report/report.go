// Package report describes a finished encode and writes it as JSON or as
// a protobuf wire message.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrMalformed = errors.New("report: malformed wire message")

// Summary is the outcome of one encode run.
type Summary struct {
	Codec      string  `json:"codec"`
	Input      string  `json:"input"`
	Output     string  `json:"output,omitempty"`
	Container  string  `json:"container,omitempty"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	SleepTicks int     `json:"sleep_ticks"`
	StartTime  float64 `json:"start_time"`
	Duration   float64 `json:"duration"` // seconds of source encoded
	Lossiness  float64 `json:"lossiness"`

	Frames          uint64 `json:"frames"`
	UnchangedFrames uint64 `json:"unchanged_frames"`
	Bytes           int    `json:"bytes"`
	StoredBytes     int    `json:"stored_bytes,omitempty"`
	Uncompressed    int    `json:"uncompressed_bytes"`

	Elapsed  time.Duration `json:"elapsed_ns"`
	Canceled bool          `json:"canceled,omitempty"`
}

// Ratio returns Bytes/Uncompressed as a percentage.
func (s Summary) Ratio() float64 {
	if s.Uncompressed == 0 {
		return 0
	}
	return float64(s.Bytes) / float64(s.Uncompressed) * 100
}

// MarshalJSON adds the derived ratio to the encoded object.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return json.Marshal(struct {
		plain
		Ratio float64 `json:"ratio_percent"`
	}{plain(s), math.Round(s.Ratio()*100) / 100})
}

// Wire field numbers.
const (
	fieldCodec protowire.Number = iota + 1
	fieldInput
	fieldOutput
	fieldContainer
	fieldWidth
	fieldHeight
	fieldSleepTicks
	fieldStartTime
	fieldDuration
	fieldLossiness
	fieldFrames
	fieldUnchanged
	fieldBytes
	fieldStoredBytes
	fieldUncompressed
	fieldElapsedNs
	fieldCanceled
)

// MarshalWire encodes s in protobuf wire format. Zero values are omitted,
// as proto3 does.
func (s Summary) MarshalWire() []byte {
	var b []byte
	str := func(n protowire.Number, v string) {
		if v != "" {
			b = protowire.AppendTag(b, n, protowire.BytesType)
			b = protowire.AppendString(b, v)
		}
	}
	varint := func(n protowire.Number, v uint64) {
		if v != 0 {
			b = protowire.AppendTag(b, n, protowire.VarintType)
			b = protowire.AppendVarint(b, v)
		}
	}
	double := func(n protowire.Number, v float64) {
		if v != 0 {
			b = protowire.AppendTag(b, n, protowire.Fixed64Type)
			b = protowire.AppendFixed64(b, math.Float64bits(v))
		}
	}

	str(fieldCodec, s.Codec)
	str(fieldInput, s.Input)
	str(fieldOutput, s.Output)
	str(fieldContainer, s.Container)
	varint(fieldWidth, uint64(s.Width))
	varint(fieldHeight, uint64(s.Height))
	varint(fieldSleepTicks, uint64(s.SleepTicks))
	double(fieldStartTime, s.StartTime)
	double(fieldDuration, s.Duration)
	double(fieldLossiness, s.Lossiness)
	varint(fieldFrames, s.Frames)
	varint(fieldUnchanged, s.UnchangedFrames)
	varint(fieldBytes, uint64(s.Bytes))
	varint(fieldStoredBytes, uint64(s.StoredBytes))
	varint(fieldUncompressed, uint64(s.Uncompressed))
	varint(fieldElapsedNs, uint64(s.Elapsed))
	if s.Canceled {
		varint(fieldCanceled, 1)
	}
	return b
}

// UnmarshalWire decodes a message produced by MarshalWire. Unknown fields
// are skipped.
func UnmarshalWire(b []byte) (Summary, error) {
	var s Summary
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Summary{}, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Summary{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldCodec:
				s.Codec = v
			case fieldInput:
				s.Input = v
			case fieldOutput:
				s.Output = v
			case fieldContainer:
				s.Container = v
			}
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Summary{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldWidth:
				s.Width = int(v)
			case fieldHeight:
				s.Height = int(v)
			case fieldSleepTicks:
				s.SleepTicks = int(v)
			case fieldFrames:
				s.Frames = v
			case fieldUnchanged:
				s.UnchangedFrames = v
			case fieldBytes:
				s.Bytes = int(v)
			case fieldStoredBytes:
				s.StoredBytes = int(v)
			case fieldUncompressed:
				s.Uncompressed = int(v)
			case fieldElapsedNs:
				s.Elapsed = time.Duration(v)
			case fieldCanceled:
				s.Canceled = v != 0
			}
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return Summary{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			f := math.Float64frombits(v)
			switch num {
			case fieldStartTime:
				s.StartTime = f
			case fieldDuration:
				s.Duration = f
			case fieldLossiness:
				s.Lossiness = f
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Summary{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return s, nil
}

// WriteFile stores s at path. Paths ending in .pb or .bin get the wire
// format; anything else gets indented JSON.
func WriteFile(path string, s Summary) error {
	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pb", ".bin":
		data = s.MarshalWire()
	default:
		var err error
		data, err = json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("report: encode json: %w", err)
		}
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
