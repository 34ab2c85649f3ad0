package driver

// TicksPerSecond is the playback clock the sleep ticks count in.
const TicksPerSecond = 20

// Options configure one encode run.
type Options struct {
	Codec     string // codec name, as looked up
	Input     string // source path, for logs and the report
	Output    string // output path
	Container string // recorder container, for the report

	StartTime  float64 // seconds into the source
	Duration   float64 // seconds to encode
	SleepTicks int     // ticks between sampled frames
	Lossiness  float64 // accepted and recorded only

	Repeats int // image debug path: times the image is encoded
}

// DefaultOptions returns the defaults the command line starts from.
func DefaultOptions() Options {
	return Options{
		Output:     "converted_file.qtv",
		Container:  "raw",
		Duration:   100000,
		SleepTicks: 1,
		Repeats:    1,
	}
}

// Normalize clamps out of range values in place.
func (o *Options) Normalize() {
	if o.SleepTicks < 1 {
		o.SleepTicks = 1
	} else if o.SleepTicks > MaxSleepTicks {
		o.SleepTicks = MaxSleepTicks
	}
	if o.StartTime < 0 {
		o.StartTime = 0
	}
	if o.Duration < 0 {
		o.Duration = 0
	}
	if o.Lossiness < 0 {
		o.Lossiness = 0
	}
	if o.Repeats < 1 {
		o.Repeats = 1
	}
}

// Step returns the source time between sampled frames.
func (o Options) Step() float64 {
	return float64(o.SleepTicks) / TicksPerSecond
}
