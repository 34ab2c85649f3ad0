package driver

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/Axisok/qtccv/internal/bitstream"
	"github.com/Axisok/qtccv/internal/codec"
	"github.com/Axisok/qtccv/internal/logger"
	"github.com/Axisok/qtccv/internal/report"
	"github.com/Axisok/qtccv/internal/source"
)

// RunImage encodes the first frame of src opts.Repeats times without a
// stream header, mirroring every bit to debug as '0'/'1'. It is a debugging
// aid: the returned stream is not saved and has no header, so players
// cannot read it.
func RunImage(src source.FrameSource, factory codec.Factory, opts Options, debug io.Writer) (report.Summary, []byte, error) {
	opts.Normalize()
	started := time.Now()

	width, height := src.Size()
	sink := bitstream.NewWriter()
	if debug != nil {
		sink.SetDebug(debug)
	}

	enc, err := factory.New(width, height, sink, codec.Options{Lossiness: opts.Lossiness, Module: "Encoder"})
	if err != nil {
		return report.Summary{}, nil, fmt.Errorf("create %s encoder: %w", factory.Name(), err)
	}

	frame, err := src.FrameAt(0)
	if err != nil {
		return report.Summary{}, nil, fmt.Errorf("read image: %w", err)
	}

	sum := report.Summary{
		Codec:     factory.Name(),
		Input:     opts.Input,
		Width:     width,
		Height:    height,
		Lossiness: opts.Lossiness,
	}
	for i := 0; i < opts.Repeats; i++ {
		if err := enc.EncodeFrame(frame); err != nil {
			return sum, nil, fmt.Errorf("encode image pass %d: %w", i+1, err)
		}
		sum.Frames++
		if r, ok := enc.(codec.StatsReporter); ok && !r.Stats().Changed {
			sum.UnchangedFrames++
		}
	}

	if err := sink.Close(); err != nil {
		return sum, nil, err
	}
	data := sink.Bytes()

	sum.Bytes = len(data)
	sum.Uncompressed = int(math.Ceil(float64(width*height)/8)) * opts.Repeats
	sum.Elapsed = time.Since(started)

	logger.Info("Driver", "Encoded image %d times: %d bytes of ~%d uncompressed, ratio %.2f%%, %.2fs",
		opts.Repeats, sum.Bytes, sum.Uncompressed, sum.Ratio(), sum.Elapsed.Seconds())
	return sum, data, nil
}
