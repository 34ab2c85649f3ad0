// Package codec holds the registry of frame encoders the driver can pick
// by name.
package codec

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Axisok/qtccv/internal/bitstream"
	"github.com/Axisok/qtccv/pkg/types"
)

var ErrUnknownCodec = errors.New("codec: unknown codec")

// Options are passed to Factory.New.
type Options struct {
	// Lossiness is clamped to >= 0 by the driver. No registered codec
	// applies it yet.
	Lossiness float64

	// Module is the logger tag the encoder logs under.
	Module string
}

// FrameEncoder consumes frames in presentation order and writes them to
// the sink it was created with.
type FrameEncoder interface {
	EncodeFrame(frame *types.RawFrame) error
}

// FrameStats is a codec-neutral view of the last encoded frame.
type FrameStats struct {
	Changed bool
	Nodes   int
	Leaves  int
	Bits    int
}

// StatsReporter is implemented by encoders that can describe their last
// frame. The driver feeds it into metrics when present.
type StatsReporter interface {
	Stats() FrameStats
}

// Factory creates encoders for one codec.
type Factory interface {
	Name() string
	Help() string
	New(width, height int, sink *bitstream.Writer, opts Options) (FrameEncoder, error)
}

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
	aliases   = make(map[string]string)
)

// Register makes f available under f.Name(). It panics if the name is
// already taken.
func Register(f Factory) {
	mu.Lock()
	defer mu.Unlock()

	name := f.Name()
	if _, dup := factories[name]; dup {
		panic("codec: Register called twice for " + name)
	}
	if _, dup := aliases[name]; dup {
		panic("codec: Register name " + name + " is already an alias")
	}
	factories[name] = f
}

// RegisterAlias adds another lookup name for a registered codec.
func RegisterAlias(alias, name string) {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := factories[name]; !ok {
		panic("codec: alias " + alias + " for unregistered codec " + name)
	}
	if _, dup := factories[alias]; dup {
		panic("codec: alias " + alias + " shadows a codec")
	}
	if _, dup := aliases[alias]; dup {
		panic("codec: RegisterAlias called twice for " + alias)
	}
	aliases[alias] = name
}

// Lookup returns the factory registered under name or one of its aliases.
func Lookup(name string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()

	if f, ok := factories[name]; ok {
		return f, nil
	}
	if target, ok := aliases[name]; ok {
		return factories[target], nil
	}
	return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownCodec, name, namesLocked())
}

// Names returns the registered codec names in sorted order. Aliases are
// not included.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
