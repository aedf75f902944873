package ttl

// Summary aggregates classification counts and cache residency for a run.
type Summary struct {
	Requests  int     `json:"requests"`
	Creates   int     `json:"creates"`
	Hits      int     `json:"hits"`
	Misses    int     `json:"misses"`
	HitRatio  float64 `json:"hit_ratio"`  // hits / requests, 0 when there are no requests
	AliveTime float64 `json:"alive_time"` // total alive time within the timeline
	Timeline  float64 `json:"timeline"`
	Caches    int     `json:"caches"` // number of caches opened (creates + misses)
}

// Summarize computes a Summary. Alive time is measured on intervals clipped to timeline.
// Safe for empty inputs.
func Summarize(events []CacheEvent, intervals []AliveInterval, timeline float64) Summary {
	s := Summary{Requests: len(events), Timeline: timeline}
	for _, ev := range events {
		switch ev.Kind {
		case Create:
			s.Creates++
		case HitRefresh:
			s.Hits++
		case MissExpired:
			s.Misses++
		}
	}
	s.Caches = s.Creates + s.Misses
	if s.Requests > 0 {
		s.HitRatio = float64(s.Hits) / float64(s.Requests)
	}
	for _, iv := range ClipIntervals(intervals, timeline) {
		s.AliveTime += iv.Length()
	}
	return s
}
