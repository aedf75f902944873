package playback

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/prompt-cache-sim/sim/throughput"
	"github.com/inference-sim/prompt-cache-sim/sim/ttl"
)

const tickInterval = 10 * time.Millisecond

// chanSink buffers snapshots so the tick goroutine never blocks on the test.
type chanSink chan Snapshot

func (c chanSink) Render(s Snapshot) { c <- s }

func (c chanSink) next(t *testing.T) Snapshot {
	t.Helper()
	select {
	case s := <-c:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func (c chanSink) drain() []Snapshot {
	var out []Snapshot
	for {
		select {
		case s := <-c:
			out = append(out, s)
		default:
			return out
		}
	}
}

func prefillModel(t *testing.T, total, cached float64) *throughput.Model {
	t.Helper()
	m, err := throughput.NewModel(throughput.Config{
		TotalUnits:          total,
		CachedUnits:         cached,
		ColdRate:            1200.0 / 850,
		WarmCachedRate:      20,
		WarmNewRate:         200.0 / 95,
		CostPerCachedUnit:   0.1,
		CostPerUncachedUnit: 1,
	})
	require.NoError(t, err)
	return m
}

func newTestPlayer(t *testing.T, step float64, lanes ...Lane) (*Player, *clock.Mock, chanSink) {
	t.Helper()
	mock := clock.NewMock()
	sink := make(chanSink, 4096)
	p, err := NewPlayer(Config{TickInterval: tickInterval, Step: step, Clock: mock}, sink, lanes...)
	require.NoError(t, err)
	return p, mock, sink
}

// runToDone ticks until a Done snapshot arrives and returns every snapshot seen,
// including the initial one.
func runToDone(t *testing.T, mock *clock.Mock, sink chanSink, maxTicks int) []Snapshot {
	t.Helper()
	snaps := []Snapshot{sink.next(t)}
	for i := 0; i < maxTicks; i++ {
		mock.Add(tickInterval)
		s := sink.next(t)
		snaps = append(snaps, s)
		if s.State == Done {
			return snaps
		}
	}
	t.Fatalf("run not done after %d ticks", maxTicks)
	return nil
}

func TestPlayer_ThroughputRun_MonotonicAndLanesFinishIndependently(t *testing.T) {
	// GIVEN cold and warm lanes stepped 10ms per tick
	m := prefillModel(t, 1200, 1000)
	p, mock, sink := newTestPlayer(t, 10, ThroughputLanes(m)...)
	assert.Equal(t, Idle, p.State())

	// WHEN the run plays to completion
	require.True(t, p.Start())
	assert.Equal(t, Running, p.State())
	snaps := runToDone(t, mock, sink, 200)
	<-p.Done()

	// THEN the first snapshot is at zero and the last is Done at the cold duration
	assert.Equal(t, 0.0, snaps[0].Elapsed)
	assert.Equal(t, Running, snaps[0].State)
	last := snaps[len(snaps)-1]
	assert.Equal(t, Done, last.State)
	assert.InDelta(t, m.ColdDuration(), last.Elapsed, 1e-9)
	assert.Equal(t, Done, p.State())

	// THEN per-lane progress never decreases nor exceeds its total
	prev := map[string]float64{}
	var warmDoneAt, coldDoneAt float64 = -1, -1
	for i, s := range snaps {
		if i > 0 {
			assert.GreaterOrEqual(t, s.Elapsed, snaps[i-1].Elapsed)
			assert.Equal(t, snaps[i-1].Tick+1, s.Tick)
		}
		for _, l := range s.Lanes {
			assert.GreaterOrEqual(t, l.Progress, prev[l.Name], "lane %s tick %d", l.Name, s.Tick)
			assert.LessOrEqual(t, l.Progress, l.Total)
			prev[l.Name] = l.Progress
			if l.Done && l.Name == "warm" && warmDoneAt < 0 {
				warmDoneAt = s.Elapsed
			}
			if l.Done && l.Name == "cold" && coldDoneAt < 0 {
				coldDoneAt = s.Elapsed
			}
		}
	}

	// THEN the warm lane finishes well before the cold lane
	assert.Equal(t, 150.0, warmDoneAt)
	assert.InDelta(t, m.ColdDuration(), coldDoneAt, 1e-9)
	warm, ok := last.Lane("warm")
	require.True(t, ok)
	cold, _ := last.Lane("cold")
	assert.Equal(t, 100.0, warm.Percent)
	assert.InDelta(t, 300, warm.Cost, 1e-9)
	assert.InDelta(t, 1200, cold.Cost, 1e-9)

	// THEN nothing is emitted after Done
	mock.Add(10 * tickInterval)
	assert.Empty(t, sink.drain())
}

func TestPlayer_StartWhileRunning_IsNoop(t *testing.T) {
	m := prefillModel(t, 1200, 1000)
	p, mock, sink := newTestPlayer(t, 10, ThroughputLanes(m)...)

	require.True(t, p.Start())
	first := sink.next(t)
	mock.Add(tickInterval)
	second := sink.next(t)

	// WHEN Start is called again mid-run
	assert.False(t, p.Start())

	// THEN the same run keeps ticking
	mock.Add(tickInterval)
	third := sink.next(t)
	assert.Equal(t, first.Run, third.Run)
	assert.Equal(t, second.Tick+1, third.Tick)
	assert.Equal(t, Running, p.State())
	p.Reset()
}

func TestPlayer_ResetThenStart_NoStaleSnapshots(t *testing.T) {
	m := prefillModel(t, 1200, 1000)
	p, mock, sink := newTestPlayer(t, 10, ThroughputLanes(m)...)

	require.True(t, p.Start())
	old := sink.next(t)
	for i := 0; i < 5; i++ {
		mock.Add(tickInterval)
		sink.next(t)
	}

	// WHEN reset mid-run and restarted immediately
	p.Reset()
	assert.Equal(t, Idle, p.State())
	for _, s := range sink.drain() {
		assert.Equal(t, old.Run, s.Run)
	}
	require.True(t, p.Start())

	// THEN the first snapshot belongs to the new run at elapsed zero
	fresh := sink.next(t)
	assert.NotEqual(t, old.Run, fresh.Run)
	assert.Equal(t, 0, fresh.Tick)
	assert.Equal(t, 0.0, fresh.Elapsed)
	for _, l := range fresh.Lanes {
		assert.Equal(t, 0.0, l.Progress)
	}

	// THEN every later snapshot belongs to the new run
	for i := 0; i < 5; i++ {
		mock.Add(tickInterval)
		s := sink.next(t)
		assert.Equal(t, fresh.Run, s.Run)
		assert.Equal(t, i+1, s.Tick)
	}
	p.Reset()
	for _, s := range sink.drain() {
		assert.Equal(t, fresh.Run, s.Run)
	}
}

func TestPlayer_ResetFromIdle_IsSafe(t *testing.T) {
	m := prefillModel(t, 1200, 1000)
	p, _, sink := newTestPlayer(t, 10, ThroughputLanes(m)...)

	p.Reset()
	p.Reset()

	assert.Equal(t, Idle, p.State())
	assert.Empty(t, sink.drain())
}

func TestPlayer_RestartFromDone_ClearsProgress(t *testing.T) {
	m := prefillModel(t, 1200, 1000)
	p, mock, sink := newTestPlayer(t, 50, ThroughputLanes(m)...)

	require.True(t, p.Start())
	first := runToDone(t, mock, sink, 100)
	<-p.Done()

	require.True(t, p.Start())
	second := runToDone(t, mock, sink, 100)

	assert.Equal(t, 0.0, second[0].Elapsed)
	assert.Len(t, second, len(first))
	assert.NotEqual(t, first[0].Run, second[0].Run)
}

func TestPlayer_ZeroUnits_DoneInOneTick(t *testing.T) {
	m := prefillModel(t, 0, 0)
	p, mock, sink := newTestPlayer(t, 10, ThroughputLanes(m)...)

	require.True(t, p.Start())
	snaps := runToDone(t, mock, sink, 1)

	require.Len(t, snaps, 2)
	last := snaps[1]
	assert.Equal(t, 1, last.Tick)
	assert.Equal(t, 0.0, last.Elapsed)
	for _, l := range last.Lanes {
		assert.True(t, l.Done)
		assert.Equal(t, 0.0, l.Cost)
		assert.Equal(t, 100.0, l.Percent)
	}
}

func TestPlayer_TimelineLane_EmitsEventsAsTimePasses(t *testing.T) {
	// GIVEN the W=5 sliding window run stepped one minute per tick
	run, err := ttl.NewRun(ttl.Config{TTL: 5, Requests: []float64{0, 1, 2, 3, 4, 8, 9, 14}})
	require.NoError(t, err)
	p, mock, sink := newTestPlayer(t, 1, TimelineLane(run))
	assert.Equal(t, 19.0, p.RunLength())

	require.True(t, p.Start())
	snaps := runToDone(t, mock, sink, 40)

	// THEN events accumulate with elapsed time and the cache is alive until 19
	require.Len(t, snaps, 20)
	assert.Len(t, snaps[0].Events, 1)
	assert.True(t, snaps[0].CacheAlive)
	assert.Len(t, snaps[8].Events, 6)
	assert.Len(t, snaps[14].Events, 8)
	assert.Equal(t, ttl.MissExpired, snaps[14].Events[7].Kind)
	assert.True(t, snaps[18].CacheAlive)
	assert.False(t, snaps[19].CacheAlive)

	timeline, ok := snaps[19].Lane("timeline")
	require.True(t, ok)
	assert.Equal(t, 100.0, timeline.Percent)
	assert.Equal(t, 2.0, timeline.Cost)
}

func TestPlayer_ExplicitRunLength_OverridesLanes(t *testing.T) {
	m := prefillModel(t, 1200, 1000)
	mock := clock.NewMock()
	sink := make(chanSink, 64)
	p, err := NewPlayer(Config{TickInterval: tickInterval, Step: 50, RunLength: 200, Clock: mock}, sink, ThroughputLanes(m)...)
	require.NoError(t, err)

	require.True(t, p.Start())
	snaps := runToDone(t, mock, sink, 10)

	last := snaps[len(snaps)-1]
	assert.Equal(t, 200.0, last.Elapsed)
	cold, _ := last.Lane("cold")
	assert.False(t, cold.Done)
	warm, _ := last.Lane("warm")
	assert.True(t, warm.Done)
}

func TestNewPlayer_InvalidConfig(t *testing.T) {
	m := prefillModel(t, 1200, 1000)
	lanes := ThroughputLanes(m)
	sink := SinkFunc(func(Snapshot) {})
	tests := []struct {
		name    string
		cfg     Config
		sink    Sink
		lanes   []Lane
		wantMsg string
	}{
		{"zero tick", Config{Step: 1}, sink, lanes, "tick interval"},
		{"zero step", Config{TickInterval: time.Millisecond}, sink, lanes, "step"},
		{"negative run length", Config{TickInterval: time.Millisecond, Step: 1, RunLength: -1}, sink, lanes, "run length"},
		{"nil sink", DefaultConfig(), nil, lanes, "sink"},
		{"no lanes", DefaultConfig(), sink, nil, "lane"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlayer(tt.cfg, tt.sink, tt.lanes...)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestMultiSink_ForwardsInOrder(t *testing.T) {
	var got []string
	ms := MultiSink{
		SinkFunc(func(Snapshot) { got = append(got, "a") }),
		SinkFunc(func(Snapshot) { got = append(got, "b") }),
	}
	ms.Render(Snapshot{})
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "done", Done.String())
}
