package playback

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

// Config controls the tick loop.
type Config struct {
	TickInterval time.Duration // wall-clock time between ticks (must be > 0)
	Step         float64       // simulated time advanced per tick (must be > 0)
	RunLength    float64       // simulated time at which the run is done (0 = longest lane)
	Clock        clock.Clock   // nil = wall clock
}

// DefaultConfig returns a 50ms tick advancing one simulated unit per tick.
func DefaultConfig() Config {
	return Config{TickInterval: 50 * time.Millisecond, Step: 1}
}

// Player advances simulated time on a fixed tick and emits snapshots of its lanes.
// Each Player owns at most one tick loop at a time.
type Player struct {
	cfg       Config
	clock     clock.Clock
	lanes     []Lane
	sink      Sink
	runLength float64

	// ctl serializes Start and Reset.
	ctl sync.Mutex

	mu    sync.Mutex
	state State
	run   uint64
	tick  int
	stop  chan struct{}
	done  chan struct{}
}

// NewPlayer validates cfg and returns an Idle player.
func NewPlayer(cfg Config, sink Sink, lanes ...Lane) (*Player, error) {
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %v", cfg.TickInterval)
	}
	if math.IsNaN(cfg.Step) || math.IsInf(cfg.Step, 0) || cfg.Step <= 0 {
		return nil, fmt.Errorf("step must be a finite positive number, got %v", cfg.Step)
	}
	if math.IsNaN(cfg.RunLength) || math.IsInf(cfg.RunLength, 0) || cfg.RunLength < 0 {
		return nil, fmt.Errorf("run length must be a finite non-negative number, got %v", cfg.RunLength)
	}
	if sink == nil {
		return nil, errors.New("sink is required")
	}
	if len(lanes) == 0 {
		return nil, errors.New("at least one lane is required")
	}
	runLength := cfg.RunLength
	if runLength == 0 {
		for _, l := range lanes {
			runLength = math.Max(runLength, l.Duration())
		}
	}
	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	done := make(chan struct{})
	close(done)
	return &Player{
		cfg:       cfg,
		clock:     c,
		lanes:     lanes,
		sink:      sink,
		runLength: runLength,
		state:     Idle,
		done:      done,
	}, nil
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// RunLength returns the simulated time at which a run is done.
func (p *Player) RunLength() float64 {
	return p.runLength
}

// Done returns a channel closed when the current tick loop exits, either because the
// run reached Done or because it was Reset.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Start begins a fresh run from Idle or Done. It is a no-op while Running and reports
// whether a new run was started.
func (p *Player) Start() bool {
	p.ctl.Lock()
	defer p.ctl.Unlock()

	p.mu.Lock()
	if p.state == Running {
		logrus.Debugf("[playback] start ignored: run %d already running", p.run)
		p.mu.Unlock()
		return false
	}
	p.mu.Unlock()

	// A Done run may still be returning from its final Render.
	p.halt()

	p.mu.Lock()
	p.run++
	p.tick = 0
	p.state = Running
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	run, stop, done := p.run, p.stop, p.done
	// The ticker is created before Start returns so a mock clock advanced right
	// after Start is observed by this run.
	ticker := p.clock.Ticker(p.cfg.TickInterval)
	initial := p.snapshotLocked(0)
	p.mu.Unlock()

	logrus.Infof("[playback] run %d started (run length %g, step %g every %v)", run, p.runLength, p.cfg.Step, p.cfg.TickInterval)
	go p.loop(run, ticker, stop, done, initial)
	return true
}

// Reset cancels any pending ticks and returns to Idle. When Reset returns, no
// snapshot from the cancelled run will be emitted.
func (p *Player) Reset() {
	p.ctl.Lock()
	defer p.ctl.Unlock()

	p.halt()

	p.mu.Lock()
	p.tick = 0
	p.state = Idle
	p.mu.Unlock()
	logrus.Infof("[playback] reset")
}

// halt stops the current loop, if any, and waits for it to exit. Must hold ctl.
func (p *Player) halt() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop = nil
	if stop != nil {
		// Invalidate the run so a tick already past select is dropped.
		p.run++
		close(stop)
	}
	p.mu.Unlock()
	<-done
}

func (p *Player) loop(run uint64, ticker *clock.Ticker, stop <-chan struct{}, done chan<- struct{}, initial Snapshot) {
	defer close(done)
	defer ticker.Stop()

	if !p.current(run) {
		return
	}
	p.sink.Render(initial)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		snap, ok := p.advance(run)
		if !ok {
			return
		}
		p.sink.Render(snap)
		if snap.State == Done {
			logrus.Infof("[playback] run %d done after %d ticks at %g", run, snap.Tick, snap.Elapsed)
			return
		}
	}
}

func (p *Player) current(run uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.run == run
}

// advance moves the run forward one tick. It returns false if the run was cancelled.
func (p *Player) advance(run uint64) (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.run != run || p.state != Running {
		return Snapshot{}, false
	}
	p.tick++
	elapsed := math.Min(float64(p.tick)*p.cfg.Step, p.runLength)
	if elapsed >= p.runLength {
		p.state = Done
	}
	logrus.Debugf("[tick %07d] run %d elapsed %g", p.tick, run, elapsed)
	return p.snapshotLocked(elapsed), true
}

func (p *Player) snapshotLocked(elapsed float64) Snapshot {
	snap := Snapshot{
		Run:     p.run,
		Tick:    p.tick,
		Elapsed: elapsed,
		State:   p.state,
		Lanes:   make([]LaneSnapshot, 0, len(p.lanes)),
	}
	sawEvents := false
	for _, l := range p.lanes {
		total := l.Total()
		progress := math.Max(0, math.Min(l.Progress(elapsed), total))
		ls := LaneSnapshot{
			Name:     l.Name(),
			Progress: progress,
			Total:    total,
			Cost:     l.Cost(elapsed),
			Done:     elapsed >= l.Duration(),
		}
		switch {
		case total > 0:
			ls.Percent = 100 * progress / total
		case ls.Done:
			ls.Percent = 100
		}
		snap.Lanes = append(snap.Lanes, ls)

		if src, ok := l.(EventSource); ok {
			snap.Events = append(snap.Events, src.EventsUntil(elapsed)...)
			if !sawEvents {
				snap.CacheAlive = src.Alive(elapsed)
				sawEvents = true
			}
		}
	}
	return snap
}
