// Package trace records playback snapshots for inspection after a run.
// It stores pure data and depends only on the playback snapshot types.
package trace

import (
	"sync"

	"github.com/inference-sim/prompt-cache-sim/sim/playback"
)

// TraceLevel controls how much of a run is retained.
type TraceLevel string

const (
	// TraceLevelNone keeps nothing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelFinal keeps only the latest snapshot of the current run.
	TraceLevelFinal TraceLevel = "final"
	// TraceLevelTicks keeps every snapshot of the current run.
	TraceLevelTicks TraceLevel = "ticks"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelFinal: true,
	TraceLevelTicks: true,
	"":              true, // empty defaults to ticks
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// Recorder is a playback.Sink that keeps the snapshots of the most recent run.
// A snapshot from a new run discards the previous run's records.
type Recorder struct {
	level TraceLevel

	mu        sync.Mutex
	run       uint64
	snapshots []playback.Snapshot
}

// NewRecorder creates a Recorder at the given level.
func NewRecorder(level TraceLevel) *Recorder {
	if level == "" {
		level = TraceLevelTicks
	}
	return &Recorder{level: level, snapshots: make([]playback.Snapshot, 0)}
}

// Render implements playback.Sink.
func (r *Recorder) Render(s playback.Snapshot) {
	if r.level == TraceLevelNone {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Run != r.run {
		r.run = s.Run
		r.snapshots = r.snapshots[:0]
	}
	if r.level == TraceLevelFinal {
		r.snapshots = append(r.snapshots[:0], s)
		return
	}
	r.snapshots = append(r.snapshots, s)
}

// Snapshots returns a copy of the recorded snapshots.
func (r *Recorder) Snapshots() []playback.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]playback.Snapshot(nil), r.snapshots...)
}

// Last returns the most recent snapshot, if any.
func (r *Recorder) Last() (playback.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return playback.Snapshot{}, false
	}
	return r.snapshots[len(r.snapshots)-1], true
}
