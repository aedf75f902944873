package playback

import (
	"math"

	"github.com/inference-sim/prompt-cache-sim/sim/throughput"
	"github.com/inference-sim/prompt-cache-sim/sim/ttl"
)

// Lane is one independently progressing timeline. Progress and Cost must be
// non-decreasing in elapsed; a lane is done once elapsed reaches Duration.
type Lane interface {
	Name() string
	Total() float64
	Duration() float64
	Progress(elapsed float64) float64
	Cost(elapsed float64) float64
}

// EventSource is implemented by lanes that carry classified cache events.
type EventSource interface {
	EventsUntil(elapsed float64) []ttl.CacheEvent
	Alive(elapsed float64) bool
}

type pathLane struct {
	model *throughput.Model
	path  throughput.Path
}

// ThroughputLane plays one path of a throughput model.
func ThroughputLane(m *throughput.Model, p throughput.Path) Lane {
	return &pathLane{model: m, path: p}
}

// ThroughputLanes returns the cold and warm lanes of m.
func ThroughputLanes(m *throughput.Model) []Lane {
	return []Lane{ThroughputLane(m, throughput.Cold), ThroughputLane(m, throughput.Warm)}
}

func (l *pathLane) Name() string                     { return l.path.String() }
func (l *pathLane) Total() float64                   { return l.model.Total() }
func (l *pathLane) Duration() float64                { return l.model.Duration(l.path) }
func (l *pathLane) Progress(elapsed float64) float64 { return l.model.Progress(l.path, elapsed) }
func (l *pathLane) Cost(elapsed float64) float64     { return l.model.Cost(l.path, elapsed) }

// timelineLane plays a TTL run; progress is simulated time along the timeline.
type timelineLane struct {
	run *ttl.Run
}

// TimelineLane plays the request timeline of a TTL run.
func TimelineLane(r *ttl.Run) Lane {
	return &timelineLane{run: r}
}

func (l *timelineLane) Name() string      { return "timeline" }
func (l *timelineLane) Total() float64    { return l.run.Timeline() }
func (l *timelineLane) Duration() float64 { return l.run.Timeline() }

func (l *timelineLane) Progress(elapsed float64) float64 {
	return math.Max(0, math.Min(elapsed, l.run.Timeline()))
}

// Cost counts cache (re)creations observed so far.
func (l *timelineLane) Cost(elapsed float64) float64 {
	n := 0
	for _, ev := range ttl.EventsUntil(l.run.Events, elapsed) {
		if ev.Kind.OpensCache() {
			n++
		}
	}
	return float64(n)
}

func (l *timelineLane) EventsUntil(elapsed float64) []ttl.CacheEvent {
	return ttl.EventsUntil(l.run.Events, elapsed)
}

func (l *timelineLane) Alive(elapsed float64) bool {
	return l.run.Alive(elapsed)
}
