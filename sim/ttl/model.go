package ttl

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// noCache marks the state before the first request of a run.
var noCache = math.Inf(-1)

// DeriveEvents classifies each request under a sliding-expiration TTL of width ttl.
// Requests must be sorted in non-decreasing order; they are not re-sorted.
//
// A hit always refreshes expiry from the hit time. A request at exactly the expiry
// instant is a miss, and a miss immediately opens a new cache at the request time.
func DeriveEvents(requests []float64, ttl float64) []CacheEvent {
	events := make([]CacheEvent, 0, len(requests))
	expiresAt := noCache
	for _, t := range requests {
		var kind EventKind
		switch {
		case expiresAt == noCache:
			kind = Create
		case t < expiresAt:
			kind = HitRefresh
		default:
			kind = MissExpired
		}
		// Every kind leaves a cache alive until t + ttl.
		expiresAt = t + ttl
		events = append(events, CacheEvent{
			Time:      t,
			Kind:      kind,
			Label:     eventLabel(kind, t, expiresAt),
			ExpiresAt: expiresAt,
		})
		logrus.Debugf("[ttl] request at %g classified %s, expires at %g", t, kind, expiresAt)
	}
	return events
}

// DeriveAliveIntervals merges events into the half-open spans during which a cache is
// alive. Create and MissExpired open a new interval; HitRefresh extends the current one.
// End values are not clipped; use ClipIntervals for rendering.
func DeriveAliveIntervals(events []CacheEvent) []AliveInterval {
	intervals := make([]AliveInterval, 0)
	for _, ev := range events {
		if ev.Kind.OpensCache() || len(intervals) == 0 {
			intervals = append(intervals, AliveInterval{Start: ev.Time, End: ev.ExpiresAt})
			continue
		}
		intervals[len(intervals)-1].End = ev.ExpiresAt
	}
	return intervals
}

// AliveFromEvents reconstructs cache state at t directly from the event log: the cache
// is alive iff the most recent event at or before t has not yet expired.
func AliveFromEvents(events []CacheEvent, ttl float64, t float64) bool {
	idx := sort.Search(len(events), func(i int) bool { return events[i].Time > t }) - 1
	if idx < 0 {
		return false
	}
	return t < events[idx].Time+ttl
}

// AliveAt reports whether t falls inside any of the given intervals.
// Intervals must be sorted and non-overlapping, as returned by DeriveAliveIntervals.
func AliveAt(intervals []AliveInterval, t float64) bool {
	idx := sort.Search(len(intervals), func(i int) bool { return intervals[i].Start > t }) - 1
	if idx < 0 {
		return false
	}
	return intervals[idx].Contains(t)
}

// ClipIntervals returns a copy of intervals limited to [0, length) for rendering.
// Intervals starting at or after length are dropped.
func ClipIntervals(intervals []AliveInterval, length float64) []AliveInterval {
	clipped := make([]AliveInterval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Start >= length {
			break
		}
		clipped = append(clipped, AliveInterval{Start: iv.Start, End: math.Min(iv.End, length)})
	}
	return clipped
}

// EventsUntil returns the prefix of events with Time <= t.
func EventsUntil(events []CacheEvent, t float64) []CacheEvent {
	n := sort.Search(len(events), func(i int) bool { return events[i].Time > t })
	return events[:n]
}
