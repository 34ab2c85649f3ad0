package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

func sampleSummary() Summary {
	return Summary{
		Codec:           "quadtree",
		Input:           "bad_apple.mp4",
		Output:          "converted_file.qtv",
		Container:       "zstd",
		Width:           160,
		Height:          120,
		SleepTicks:      2,
		StartTime:       1.5,
		Duration:        219.3,
		Frames:          2193,
		UnchangedFrames: 41,
		Bytes:           1_234_567,
		StoredBytes:     900_000,
		Uncompressed:    5_263_200,
		Elapsed:         42 * time.Second,
		Canceled:        true,
	}
}

func TestWireRoundTrip(t *testing.T) {
	want := sampleSummary()
	got, err := UnmarshalWire(want.MarshalWire())
	if err != nil {
		t.Fatalf("UnmarshalWire: %v", err)
	}
	if got != want {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
}

func TestWireFieldNumbers(t *testing.T) {
	b := Summary{Width: 160}.MarshalWire()
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 || num != 5 || typ != protowire.VarintType {
		t.Fatalf("first tag = %d/%d (n=%d), want field 5 varint", num, typ, n)
	}
	v, m := protowire.ConsumeVarint(b[n:])
	if m < 0 || v != 160 || n+m != len(b) {
		t.Fatalf("width value = %d (n=%d, len=%d)", v, m, len(b))
	}
}

func TestWireSkipsUnknownFields(t *testing.T) {
	b := protowire.AppendTag(nil, 99, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))
	b = append(b, Summary{Codec: "qtb"}.MarshalWire()...)

	got, err := UnmarshalWire(b)
	if err != nil {
		t.Fatalf("UnmarshalWire: %v", err)
	}
	if got.Codec != "qtb" {
		t.Fatalf("Codec = %q", got.Codec)
	}
}

func TestWireTruncated(t *testing.T) {
	b := sampleSummary().MarshalWire()
	if _, err := UnmarshalWire(b[:len(b)-1]); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestJSONIncludesRatio(t *testing.T) {
	s := Summary{Bytes: 25, Uncompressed: 100}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m["ratio_percent"] != 25.0 {
		t.Fatalf("ratio_percent = %v, want 25", m["ratio_percent"])
	}
	if _, ok := m["output"]; ok {
		t.Fatalf("empty output not omitted: %s", data)
	}
}

func TestWriteFileByExtension(t *testing.T) {
	dir := t.TempDir()
	s := sampleSummary()

	pb := filepath.Join(dir, "run.pb")
	if err := WriteFile(pb, s); err != nil {
		t.Fatalf("WriteFile pb: %v", err)
	}
	raw, err := os.ReadFile(pb)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got, err := UnmarshalWire(raw); err != nil || got != s {
		t.Fatalf("pb file decoded to %+v, %v", got, err)
	}

	js := filepath.Join(dir, "run.json")
	if err := WriteFile(js, s); err != nil {
		t.Fatalf("WriteFile json: %v", err)
	}
	raw, err = os.ReadFile(js)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var back Summary
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if back.Frames != s.Frames || back.Codec != s.Codec {
		t.Fatalf("json decoded to %+v", back)
	}
}
