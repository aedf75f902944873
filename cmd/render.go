package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/inference-sim/prompt-cache-sim/sim/playback"
	"github.com/inference-sim/prompt-cache-sim/sim/throughput"
	"github.com/inference-sim/prompt-cache-sim/sim/trace"
	"github.com/inference-sim/prompt-cache-sim/sim/ttl"
)

const (
	formatTable = "table"
	formatJSON  = "json"

	barWidth = 24
)

// progressSink draws one status line per snapshot: a bar per lane, and for cache
// timelines the alive flag and the latest classified event.
type progressSink struct {
	w io.Writer
}

func (s *progressSink) Render(snap playback.Snapshot) {
	var b strings.Builder
	fmt.Fprintf(&b, "[tick %04d] t=%-8.2f", snap.Tick, snap.Elapsed)
	for _, l := range snap.Lanes {
		fmt.Fprintf(&b, " %-8s %s %5.1f%%", l.Name, bar(l.Percent), l.Percent)
	}
	if len(snap.Events) > 0 {
		state := "expired"
		if snap.CacheAlive {
			state = "alive"
		}
		fmt.Fprintf(&b, "  cache %-7s %s", state, snap.Events[len(snap.Events)-1].Label)
	}
	if snap.State == playback.Done {
		b.WriteString("  done")
	}
	fmt.Fprintln(s.w, b.String())
}

func bar(percent float64) string {
	filled := int(percent / 100 * barWidth)
	filled = max(0, min(barWidth, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

// jsonSink writes one JSON object per snapshot.
type jsonSink struct {
	enc *json.Encoder
}

func newJSONSink(w io.Writer) *jsonSink {
	return &jsonSink{enc: json.NewEncoder(w)}
}

func (s *jsonSink) Render(snap playback.Snapshot) {
	_ = s.enc.Encode(snap)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderEvents renders the classification of every request.
func renderEvents(run *ttl.Run) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Time", "Kind", "Expires At", "Label"})
	for i, ev := range run.Events {
		t.AppendRow(table.Row{i, ev.Time, ev.Kind.String(), ev.ExpiresAt, ev.Label})
	}
	s := run.Summary()
	t.AppendFooter(table.Row{
		"",
		"",
		fmt.Sprintf("%d hits / %d requests", s.Hits, s.Requests),
		fmt.Sprintf("%d caches", s.Caches),
		fmt.Sprintf("hit ratio %.2f", s.HitRatio),
	})
	return t.Render()
}

// renderIntervals renders alive intervals clipped to the timeline.
func renderIntervals(run *ttl.Run) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Start", "End", "Length"})
	for _, iv := range run.ClippedIntervals() {
		t.AppendRow(table.Row{iv.Start, iv.End, iv.Length()})
	}
	s := run.Summary()
	t.AppendFooter(table.Row{"", fmt.Sprintf("alive %g of %g", s.AliveTime, s.Timeline), ""})
	return t.Render()
}

// renderThroughput renders the cold vs warm comparison.
func renderThroughput(s throughput.Summary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Path", "Cached Phase (ms)", "New Phase (ms)", "Total (ms)", "Cost"})
	t.AppendRow(table.Row{"cold", "-", fmt.Sprintf("%.1f", s.ColdDuration), fmt.Sprintf("%.1f", s.ColdDuration), fmt.Sprintf("%.2f", s.ColdCost)})
	t.AppendRow(table.Row{"warm", fmt.Sprintf("%.1f", s.WarmCachedDuration), fmt.Sprintf("%.1f", s.WarmNewDuration),
		fmt.Sprintf("%.1f", s.WarmDuration), fmt.Sprintf("%.2f", s.WarmCost)})
	t.AppendFooter(table.Row{
		"saved",
		"",
		fmt.Sprintf("%.2fx faster", s.Speedup),
		fmt.Sprintf("%.1f (%.1f%%)", s.TimeSaved, s.TimeSavedPct),
		fmt.Sprintf("%.2f (%.1f%%)", s.CostSaved, s.CostSavedPct),
	})
	return t.Render()
}

// renderPlayback renders per-lane completion of a played run.
func renderPlayback(s *trace.TraceSummary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Lane", "Finished At", "Tick", "Progress", "Cost"})
	for _, l := range s.Lanes {
		finished := "-"
		if l.FinishTick >= 0 {
			finished = fmt.Sprintf("%g", l.FinishedAt)
		}
		t.AppendRow(table.Row{l.Name, finished, l.FinishTick, fmt.Sprintf("%g/%g", l.Progress, l.Total), fmt.Sprintf("%.2f", l.Cost)})
	}
	status := "cancelled"
	if s.Completed {
		status = "completed"
	}
	t.AppendFooter(table.Row{status, fmt.Sprintf("%g", s.Elapsed), s.Ticks, "", ""})
	return t.Render()
}
