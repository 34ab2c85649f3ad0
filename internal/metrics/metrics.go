package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds encoder counters. Fields are updated by the encode loop
// and read by the Prometheus collectors.
type Metrics struct {
	// Frame counters
	FramesEncoded   atomic.Uint64
	FramesUnchanged atomic.Uint64

	// Output size
	BitsWritten  atomic.Uint64
	BytesWritten atomic.Uint64

	// Quadtree shape
	QuadNodes  atomic.Uint64
	QuadLeaves atomic.Uint64

	// Errors
	EncodeErrors atomic.Uint64
	SourceErrors atomic.Uint64

	// Latency of the last frame, microseconds
	FrameLatencyUs atomic.Uint64

	// Stream position in milliseconds of source time
	StreamPositionMs atomic.Uint64

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) gauge(name, help string, v *atomic.Uint64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: name, Help: help},
		func() float64 { return float64(v.Load()) },
	))
}

func (m *Metrics) registerPrometheusMetrics() {
	m.gauge("qtencode_frames_encoded_total", "Total frames encoded", &m.FramesEncoded)
	m.gauge("qtencode_frames_unchanged_total", "Frames identical to their predecessor", &m.FramesUnchanged)

	m.gauge("qtencode_bits_written_total", "Total bits written to the stream", &m.BitsWritten)
	m.gauge("qtencode_bytes_written_total", "Completed stream bytes", &m.BytesWritten)

	m.gauge("qtencode_quad_nodes_total", "Quadtree nodes written", &m.QuadNodes)
	m.gauge("qtencode_quad_leaves_total", "Quadtree leaves written", &m.QuadLeaves)

	m.gauge("qtencode_encode_errors_total", "Frames the encoder rejected", &m.EncodeErrors)
	m.gauge("qtencode_source_errors_total", "Frame source read errors", &m.SourceErrors)

	m.gauge("qtencode_frame_latency_us", "Encode time of the last frame in microseconds", &m.FrameLatencyUs)
	m.gauge("qtencode_stream_position_ms", "Source time of the last encoded frame in milliseconds", &m.StreamPositionMs)
}

// ObserveFrame records one encoded frame.
func (m *Metrics) ObserveFrame(changed bool, nodes, leaves, bits int, took time.Duration) {
	m.FramesEncoded.Add(1)
	if !changed {
		m.FramesUnchanged.Add(1)
	}
	m.QuadNodes.Add(uint64(nodes))
	m.QuadLeaves.Add(uint64(leaves))
	m.BitsWritten.Add(uint64(bits))
	m.FrameLatencyUs.Store(uint64(took.Microseconds()))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Mux routes /metrics and the JSON status endpoints.
func (m *Metrics) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/api/status", m.handleStatus)
	mux.HandleFunc("/api/status/stream", m.handleStatusStream)
	return mux
}

// StartServer serves Mux on addr. It blocks.
func (m *Metrics) StartServer(addr string) error {
	return http.ListenAndServe(addr, m.Mux())
}
