// Package recorder persists a finished bitstream to disk exactly once.
package recorder

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	ContainerRaw  = "raw"
	ContainerZstd = "zstd"
)

var (
	ErrAlreadySaved     = errors.New("recorder: stream already saved")
	ErrUnknownContainer = errors.New("recorder: unknown container")
)

// zstd frame magic, little endian 0xFD2FB528.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Options control how the stream is stored.
type Options struct {
	// Container is "raw" (default) or "zstd". Either way the payload is
	// the unchanged bitstream.
	Container string

	// Level is the zstd level used for the zstd container.
	Level zstd.EncoderLevel
}

// Recorder writes one stream to one path.
type Recorder struct {
	mu     sync.Mutex
	path   string
	opts   Options
	saved  bool
	status Status
}

// New validates opts and returns a recorder for path. Nothing is written
// until Save.
func New(path string, opts Options) (*Recorder, error) {
	switch opts.Container {
	case "":
		opts.Container = ContainerRaw
	case ContainerRaw, ContainerZstd:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContainer, opts.Container)
	}
	if opts.Level == 0 {
		opts.Level = zstd.SpeedBetterCompression
	}
	return &Recorder{path: path, opts: opts}, nil
}

// Save writes data to a temporary file next to the target, syncs it and
// renames it into place. A second call returns ErrAlreadySaved.
func (r *Recorder) Save(data []byte) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saved {
		return r.status, ErrAlreadySaved
	}
	start := time.Now()

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*")
	if err != nil {
		return Status{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	counter := &countingWriter{w: tmp}
	if err := r.encode(counter, data); err != nil {
		return Status{}, err
	}
	if err := tmp.Sync(); err != nil {
		return Status{}, fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Status{}, fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return Status{}, fmt.Errorf("failed to chmod file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return Status{}, fmt.Errorf("failed to rename into %s: %w", r.path, err)
	}
	committed = true

	r.saved = true
	r.status = Status{
		Filename:     r.path,
		Container:    r.opts.Container,
		PayloadBytes: uint64(len(data)),
		BytesWritten: counter.n,
		Duration:     time.Since(start),
		SavedAt:      time.Now(),
	}
	return r.status, nil
}

func (r *Recorder) encode(w io.Writer, data []byte) error {
	if r.opts.Container == ContainerRaw {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write stream: %w", err)
		}
		return nil
	}

	bw := bufio.NewWriter(w)
	enc, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(r.opts.Level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return fmt.Errorf("failed to compress stream: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish zstd frame: %w", err)
	}
	return bw.Flush()
}

// Saved reports whether Save has succeeded.
func (r *Recorder) Saved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved
}

// GetStatus returns the status of the completed save, or the zero Status.
func (r *Recorder) GetStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// ReadStream loads a stream written by Save, unwrapping the zstd
// container when the file starts with a zstd frame.
func ReadStream(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}

	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	plain, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	return plain, nil
}

// Status describes a completed save.
type Status struct {
	Filename     string        `json:"filename"`
	Container    string        `json:"container"`
	PayloadBytes uint64        `json:"payload_bytes"`
	BytesWritten uint64        `json:"bytes_written"`
	Duration     time.Duration `json:"duration_ms"`
	SavedAt      time.Time     `json:"saved_at"`
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}
