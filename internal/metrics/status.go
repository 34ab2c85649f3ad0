package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StatusInterval is how often /api/status/stream pushes a snapshot.
var StatusInterval = time.Second

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	FramesEncoded   uint64  `json:"frames_encoded"`
	FramesUnchanged uint64  `json:"frames_unchanged"`
	BitsWritten     uint64  `json:"bits_written"`
	BytesWritten    uint64  `json:"bytes_written"`
	QuadNodes       uint64  `json:"quad_nodes"`
	QuadLeaves      uint64  `json:"quad_leaves"`
	EncodeErrors    uint64  `json:"encode_errors"`
	SourceErrors    uint64  `json:"source_errors"`
	FrameLatencyUs  uint64  `json:"frame_latency_us"`
	PositionSeconds float64 `json:"position_seconds"`
	Timestamp       float64 `json:"timestamp"`
}

// Snapshot reads every counter.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		FramesEncoded:   m.FramesEncoded.Load(),
		FramesUnchanged: m.FramesUnchanged.Load(),
		BitsWritten:     m.BitsWritten.Load(),
		BytesWritten:    m.BytesWritten.Load(),
		QuadNodes:       m.QuadNodes.Load(),
		QuadLeaves:      m.QuadLeaves.Load(),
		EncodeErrors:    m.EncodeErrors.Load(),
		SourceErrors:    m.SourceErrors.Load(),
		FrameLatencyUs:  m.FrameLatencyUs.Load(),
		PositionSeconds: float64(m.StreamPositionMs.Load()) / 1000,
		Timestamp:       float64(time.Now().Unix()),
	}
}

func (m *Metrics) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, m.Snapshot())
}

// handleStatusStream pushes snapshots as server-sent events until the
// client goes away.
func (m *Metrics) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(StatusInterval)
	defer ticker.Stop()

	for {
		data, err := json.Marshal(m.Snapshot())
		if err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_, _ = fmt.Fprintf(w, `{"error":"%s"}`, err.Error())
	}
}
