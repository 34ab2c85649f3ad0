package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Axisok/qtccv/internal/codec"
	"github.com/Axisok/qtccv/internal/driver"
	"github.com/Axisok/qtccv/internal/logger"
	"github.com/Axisok/qtccv/internal/metrics"
	"github.com/Axisok/qtccv/internal/recorder"
	"github.com/Axisok/qtccv/internal/report"
	"github.com/Axisok/qtccv/internal/source"
)

const guide = `
Call with "-c <codec> -i <path>" to encode a video with the given codec.
The output file is set with -o <path>.

How the stream is laid out depends on the codec. Run "qtencode -c <codec>"
without an input to read about one.
`

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: qtencode -c <codec> -i <path> [options]\n\nOptions:\n")
	flag.PrintDefaults()
	fmt.Fprintf(out, "\nCodecs: %s\n", strings.Join(codec.Names(), ", "))
}

func main() {
	opts := driver.DefaultOptions()

	var (
		imagePath   string
		fps         float64
		reportPath  string
		metricsAddr string
		logLevel    string
		logColor    bool
		showGuide   bool
	)

	flag.StringVar(&opts.Codec, "c", "", "Codec name (required)")
	flag.StringVar(&opts.Codec, "codec", "", "Codec name (required)")
	flag.StringVar(&opts.Input, "i", "", "Video file, image or image directory to encode")
	flag.StringVar(&opts.Input, "input", "", "Video file, image or image directory to encode")
	flag.StringVar(&imagePath, "image", "", "Encode one image and print its bits (debugging)")
	flag.StringVar(&opts.Output, "o", opts.Output, "Output file")
	flag.StringVar(&opts.Output, "output", opts.Output, "Output file")
	flag.Float64Var(&opts.Duration, "d", opts.Duration, "Seconds of video to encode")
	flag.Float64Var(&opts.Duration, "duration", opts.Duration, "Seconds of video to encode")
	flag.Float64Var(&opts.StartTime, "t", opts.StartTime, "Second to start encoding from")
	flag.Float64Var(&opts.StartTime, "time", opts.StartTime, "Second to start encoding from")
	flag.IntVar(&opts.SleepTicks, "s", opts.SleepTicks, "Ticks (1/20 s) between frames, 1-16")
	flag.IntVar(&opts.SleepTicks, "sleepticks", opts.SleepTicks, "Ticks (1/20 s) between frames, 1-16")
	flag.Float64Var(&opts.Lossiness, "l", opts.Lossiness, "Lossiness (recorded, not applied)")
	flag.Float64Var(&opts.Lossiness, "lossiness", opts.Lossiness, "Lossiness (recorded, not applied)")
	flag.IntVar(&opts.Repeats, "repeats", opts.Repeats, "Times -image is encoded")
	flag.Float64Var(&fps, "fps", source.DefaultFPS, "Frame rate of image directories")
	flag.StringVar(&opts.Container, "container", opts.Container, "Output container (raw, zstd)")
	flag.StringVar(&reportPath, "report", "", "Write a run report (.json, or .pb for protobuf wire format)")
	flag.StringVar(&metricsAddr, "metrics", "", "Serve Prometheus metrics on this address (empty = off)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error, silent)")
	flag.BoolVar(&logColor, "log-color", true, "Enable colored log output")
	flag.BoolVar(&showGuide, "guide", false, "Print a short guide and exit")
	flag.Usage = usage
	flag.Parse()

	if showGuide {
		usage()
		fmt.Fprint(flag.CommandLine.Output(), guide)
		return
	}

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.Init(level, os.Stderr, logColor)

	if opts.Codec == "" {
		fmt.Fprintln(os.Stderr, "You must specify a codec.")
		usage()
		os.Exit(2)
	}
	factory, err := codec.Lookup(opts.Codec)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if opts.Input == "" && imagePath == "" {
		fmt.Fprintln(os.Stderr, factory.Help())
		os.Exit(2)
	}
	if imagePath == "" && source.IsImagePath(opts.Input) {
		imagePath = opts.Input
	}
	opts.Normalize()

	if imagePath != "" {
		runImage(imagePath, factory, opts, reportPath)
		return
	}

	var m *metrics.Metrics
	if metricsAddr != "" {
		m = metrics.New()
		go func() {
			logger.Info("Main", "Metrics on %s/metrics", metricsAddr)
			if err := m.StartServer(metricsAddr); err != nil {
				logger.Error("Main", "Metrics server: %v", err)
			}
		}()
	}

	src, err := source.Open(opts.Input, fps)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer src.Close()

	rec, err := recorder.New(opts.Output, recorder.Options{Container: opts.Container})
	if err != nil {
		log.Fatalf("Failed to prepare output: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logger.Info("Main", "Interrupted, finishing stream...")
			cancel()
		case <-ctx.Done():
		}
	}()

	sum, err := driver.Run(ctx, src, factory, opts, rec, m)
	if err != nil {
		log.Fatalf("Encoding failed: %v", err)
	}
	st := rec.GetStatus()
	logger.Info("Main", "Wrote %s (%s, %d bytes)", st.Filename, st.Container, st.BytesWritten)

	writeReport(reportPath, sum)
}

func runImage(path string, factory codec.Factory, opts driver.Options, reportPath string) {
	src, err := source.OpenImage(path)
	if err != nil {
		log.Fatalf("Failed to open image: %v", err)
	}
	defer src.Close()

	opts.Input = path
	logger.Info("Main", "Compressing image %s", path)
	sum, _, err := driver.RunImage(src, factory, opts, os.Stdout)
	fmt.Println()
	if err != nil {
		log.Fatalf("Encoding failed: %v", err)
	}
	writeReport(reportPath, sum)
}

func writeReport(path string, sum report.Summary) {
	if path == "" {
		return
	}
	if err := report.WriteFile(path, sum); err != nil {
		logger.Error("Main", "Report: %v", err)
		return
	}
	logger.Info("Main", "Report written to %s", path)
}
