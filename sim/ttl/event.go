package ttl

import "fmt"

// EventKind classifies a single request against the cache state at its arrival time.
type EventKind int

const (
	// Create opens the first cache of the run.
	Create EventKind = iota
	// HitRefresh finds a live cache and slides its expiry to request time + TTL.
	HitRefresh
	// MissExpired finds the previous cache expired. The same request immediately
	// opens a new cache, so a miss also behaves as a creation for state purposes.
	MissExpired
)

// String returns the stable name used in logs and JSON output.
func (k EventKind) String() string {
	switch k {
	case Create:
		return "create"
	case HitRefresh:
		return "hit-refresh"
	case MissExpired:
		return "miss-expired"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// OpensCache reports whether an event of this kind starts a new alive interval.
func (k EventKind) OpensCache() bool {
	return k == Create || k == MissExpired
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// CacheEvent is the derived classification of one request. Events are computed once
// per run and never mutated afterward.
type CacheEvent struct {
	Time      float64   `json:"time"`       // request time (simulated minutes)
	Kind      EventKind `json:"kind"`       // classification
	Label     string    `json:"label"`      // human-readable description for render sinks
	ExpiresAt float64   `json:"expires_at"` // cache expiry after this event was applied
}

// AliveInterval is a half-open span [Start, End) during which a cache is alive.
type AliveInterval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Contains reports whether t falls inside the half-open interval.
func (iv AliveInterval) Contains(t float64) bool {
	return iv.Start <= t && t < iv.End
}

// Length returns End - Start.
func (iv AliveInterval) Length() float64 {
	return iv.End - iv.Start
}

func eventLabel(kind EventKind, t, expiresAt float64) string {
	switch kind {
	case Create:
		return fmt.Sprintf("t=%g create, expires at %g", t, expiresAt)
	case HitRefresh:
		return fmt.Sprintf("t=%g hit, refreshed to %g", t, expiresAt)
	default:
		return fmt.Sprintf("t=%g miss (expired), recreated until %g", t, expiresAt)
	}
}
