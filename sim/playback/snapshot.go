package playback

import (
	"fmt"

	"github.com/inference-sim/prompt-cache-sim/sim/ttl"
)

// State is the lifecycle of a Player.
type State int

const (
	Idle State = iota
	Running
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LaneSnapshot is the state of one lane at a tick.
type LaneSnapshot struct {
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
	Total    float64 `json:"total"`
	Percent  float64 `json:"percent"`
	Cost     float64 `json:"cost"`
	Done     bool    `json:"done"`
}

// Snapshot is emitted to the Sink once at start and once per tick.
type Snapshot struct {
	Run        uint64           `json:"run"`  // identifies the Start call that produced it
	Tick       int              `json:"tick"` // 0 for the initial snapshot
	Elapsed    float64          `json:"elapsed"`
	State      State            `json:"state"`
	Lanes      []LaneSnapshot   `json:"lanes"`
	Events     []ttl.CacheEvent `json:"events,omitempty"`
	CacheAlive bool             `json:"cache_alive"`
}

// Lane returns the lane snapshot with the given name.
func (s Snapshot) Lane(name string) (LaneSnapshot, bool) {
	for _, l := range s.Lanes {
		if l.Name == name {
			return l, true
		}
	}
	return LaneSnapshot{}, false
}

// Sink receives snapshots. Render is called from the player's tick goroutine and must
// not call Start or Reset on the same player.
type Sink interface {
	Render(Snapshot)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Snapshot)

// Render calls f(s).
func (f SinkFunc) Render(s Snapshot) { f(s) }

// MultiSink fans a snapshot out to several sinks in order.
type MultiSink []Sink

// Render forwards s to every sink.
func (m MultiSink) Render(s Snapshot) {
	for _, sink := range m {
		sink.Render(s)
	}
}
