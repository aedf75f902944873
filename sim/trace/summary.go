package trace

import "github.com/inference-sim/prompt-cache-sim/sim/playback"

// LaneSummary describes how one lane finished.
type LaneSummary struct {
	Name       string
	FinishedAt float64 // elapsed time of the first snapshot with the lane done; -1 if never
	FinishTick int     // tick of that snapshot; -1 if never
	Progress   float64 // final progress
	Total      float64
	Cost       float64 // final cost
}

// TraceSummary aggregates statistics from recorded snapshots.
type TraceSummary struct {
	Run       uint64
	Snapshots int
	Ticks     int
	Elapsed   float64
	Completed bool // the last snapshot is Done
	Events    int  // classified cache events observed by the end
	Lanes     []LaneSummary
}

// Summarize computes aggregate statistics from snapshots of a single run, in
// emission order. Safe for nil or empty input (returns zero-value fields).
func Summarize(snaps []playback.Snapshot) *TraceSummary {
	summary := &TraceSummary{Lanes: make([]LaneSummary, 0)}
	if len(snaps) == 0 {
		return summary
	}

	last := snaps[len(snaps)-1]
	summary.Run = last.Run
	summary.Snapshots = len(snaps)
	summary.Ticks = last.Tick
	summary.Elapsed = last.Elapsed
	summary.Completed = last.State == playback.Done
	summary.Events = len(last.Events)

	index := make(map[string]int, len(last.Lanes))
	for _, l := range last.Lanes {
		index[l.Name] = len(summary.Lanes)
		summary.Lanes = append(summary.Lanes, LaneSummary{
			Name:       l.Name,
			FinishedAt: -1,
			FinishTick: -1,
			Progress:   l.Progress,
			Total:      l.Total,
			Cost:       l.Cost,
		})
	}
	for _, s := range snaps {
		for _, l := range s.Lanes {
			i, ok := index[l.Name]
			if !ok || !l.Done || summary.Lanes[i].FinishTick >= 0 {
				continue
			}
			summary.Lanes[i].FinishedAt = s.Elapsed
			summary.Lanes[i].FinishTick = s.Tick
		}
	}
	return summary
}

// Summary summarizes the recorder's current run.
func (r *Recorder) Summary() *TraceSummary {
	return Summarize(r.Snapshots())
}
