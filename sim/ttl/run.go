package ttl

import "github.com/sirupsen/logrus"

// Run holds the derived, immutable outputs of one validated config.
type Run struct {
	Config    Config
	Events    []CacheEvent
	Intervals []AliveInterval
}

// NewRun validates cfg and derives its events and alive intervals.
func NewRun(cfg Config) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	requests := append([]float64(nil), cfg.Requests...)
	cfg.Requests = requests
	events := DeriveEvents(requests, cfg.TTL)
	r := &Run{
		Config:    cfg,
		Events:    events,
		Intervals: DeriveAliveIntervals(events),
	}
	logrus.Infof("[ttl] derived %d events and %d alive intervals (ttl=%g, timeline=%g)",
		len(r.Events), len(r.Intervals), cfg.TTL, r.Timeline())
	return r, nil
}

// Timeline returns the rendered timeline length of the run.
func (r *Run) Timeline() float64 {
	return r.Config.TimelineLength()
}

// Alive reports cache state at t.
func (r *Run) Alive(t float64) bool {
	return AliveAt(r.Intervals, t)
}

// ClippedIntervals returns the alive intervals limited to the run's timeline.
func (r *Run) ClippedIntervals() []AliveInterval {
	return ClipIntervals(r.Intervals, r.Timeline())
}

// Summary aggregates the run over its timeline.
func (r *Run) Summary() Summary {
	return Summarize(r.Events, r.Intervals, r.Timeline())
}
