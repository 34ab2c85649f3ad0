// Package driver runs a codec over a frame source and hands the finished
// stream to a recorder.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/Axisok/qtccv/internal/bitstream"
	"github.com/Axisok/qtccv/internal/codec"
	"github.com/Axisok/qtccv/internal/logger"
	"github.com/Axisok/qtccv/internal/metrics"
	"github.com/Axisok/qtccv/internal/recorder"
	"github.com/Axisok/qtccv/internal/report"
	"github.com/Axisok/qtccv/internal/source"
)

const progressEvery = 20

// Saver persists a closed stream.
type Saver interface {
	Save(data []byte) (recorder.Status, error)
}

// Run encodes src with a codec from factory and saves the result through
// rec. Frames are sampled every opts.Step() seconds from opts.StartTime
// while inside both the source and the requested duration.
//
// If ctx is canceled the loop stops between frames; the stream is still
// closed and saved, and the summary is marked canceled. m and rec may be
// nil.
func Run(ctx context.Context, src source.FrameSource, factory codec.Factory, opts Options, rec Saver, m *metrics.Metrics) (report.Summary, error) {
	opts.Normalize()
	started := time.Now()

	width, height := src.Size()
	hdr := StreamHeader{SleepTicks: opts.SleepTicks, Width: width, Height: height}
	if err := hdr.Validate(); err != nil {
		return report.Summary{}, err
	}

	sink := bitstream.NewWriter()
	enc, err := factory.New(width, height, sink, codec.Options{Lossiness: opts.Lossiness, Module: "Encoder"})
	if err != nil {
		return report.Summary{}, fmt.Errorf("create %s encoder: %w", factory.Name(), err)
	}
	if err := hdr.Write(sink); err != nil {
		return report.Summary{}, err
	}

	srcDuration := src.Duration()
	span := math.Min(opts.Duration, srcDuration)
	end := opts.StartTime + opts.Duration

	logger.Info("Driver", "Encoding '%s' with %s: %dx%d, sleep ticks %d, %.2fs from %.2fs",
		opts.Input, factory.Name(), width, height, opts.SleepTicks, span, opts.StartTime)

	sum := report.Summary{
		Codec:      factory.Name(),
		Input:      opts.Input,
		Output:     opts.Output,
		Container:  opts.Container,
		Width:      width,
		Height:     height,
		SleepTicks: opts.SleepTicks,
		StartTime:  opts.StartTime,
		Lossiness:  opts.Lossiness,
	}

	reporter, _ := enc.(codec.StatsReporter)
	step := opts.Step()
	t := opts.StartTime

	for t < srcDuration && t < end {
		if ctx.Err() != nil {
			sum.Canceled = true
			logger.EndProgress()
			logger.Warn("Driver", "Canceled at %.2fs, closing stream", t)
			break
		}

		frame, err := src.FrameAt(t)
		if errors.Is(err, io.EOF) {
			logger.EndProgress()
			logger.Debug("Driver", "Source ended at %.2fs", t)
			break
		}
		if err != nil {
			if m != nil {
				m.SourceErrors.Add(1)
			}
			logger.EndProgress()
			return sum, fmt.Errorf("read frame at %.2fs: %w", t, err)
		}

		begin := time.Now()
		if err := enc.EncodeFrame(frame); err != nil {
			if m != nil {
				m.EncodeErrors.Add(1)
			}
			logger.EndProgress()
			return sum, fmt.Errorf("encode frame at %.2fs: %w", t, err)
		}
		took := time.Since(begin)

		sum.Frames++
		if reporter != nil {
			st := reporter.Stats()
			if !st.Changed {
				sum.UnchangedFrames++
			}
			if m != nil {
				m.ObserveFrame(st.Changed, st.Nodes, st.Leaves, st.Bits, took)
			}
		} else if m != nil {
			m.FramesEncoded.Add(1)
		}
		if m != nil {
			m.BytesWritten.Store(uint64(sink.Len()))
			m.StreamPositionMs.Store(uint64(t * 1000))
		}

		if (sum.Frames-1)%progressEvery == 0 {
			logProgress(sink.Len(), width, height, t-opts.StartTime, span, opts.SleepTicks, time.Since(started))
		}

		t += step
	}
	logger.EndProgress()

	sum.Duration = float64(sum.Frames) * step
	sum.Uncompressed = uncompressedSize(width, height, span, opts.SleepTicks)

	if err := sink.Close(); err != nil {
		return sum, fmt.Errorf("close stream: %w", err)
	}
	data := sink.Bytes()
	sum.Bytes = len(data)
	if m != nil {
		m.BytesWritten.Store(uint64(len(data)))
	}

	if rec != nil {
		st, err := rec.Save(data)
		if err != nil {
			return sum, fmt.Errorf("save stream: %w", err)
		}
		sum.StoredBytes = int(st.BytesWritten)
	}

	sum.Elapsed = time.Since(started)
	logger.Info("Driver", "Encoded %d frames (%d unchanged): %.2fkB of ~%.2fkB uncompressed, ratio %.2f%%, %.2fs",
		sum.Frames, sum.UnchangedFrames, float64(sum.Bytes)/1000, float64(sum.Uncompressed)/1000,
		sum.Ratio(), sum.Elapsed.Seconds())
	return sum, nil
}

// uncompressedSize estimates the bytes the sampled frames would take at
// one bit per pixel.
func uncompressedSize(width, height int, seconds float64, sleepTicks int) int {
	return int(math.Ceil(float64(width*height) / 8 * seconds * TicksPerSecond / float64(sleepTicks)))
}

func logProgress(size, width, height int, elapsed, span float64, sleepTicks int, wall time.Duration) {
	ori := uncompressedSize(width, height, elapsed, sleepTicks)
	if ori < 1 {
		ori = 1
	}
	done := 0.0
	if span > 0 {
		done = elapsed / span
	}
	eta := wall.Seconds()/math.Max(done, 0.00001) - wall.Seconds()

	logger.Progress("progress %.2f%%  eta %.2fs  size %.2fkB  ratio %.2f%%",
		done*100, eta, float64(size)/1000, float64(size)/float64(ori)*100)
}
