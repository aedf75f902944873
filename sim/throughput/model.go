package throughput

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Path selects one of the two compared timelines.
type Path int

const (
	// Cold processes every unit at ColdRate.
	Cold Path = iota
	// Warm processes cached units at WarmCachedRate, then new units at WarmNewRate.
	Warm
)

// String returns "cold" or "warm".
func (p Path) String() string {
	if p == Warm {
		return "warm"
	}
	return "cold"
}

// Model derives progress and cost curves for both paths. All methods are pure
// functions of elapsed simulated time.
type Model struct {
	cfg Config

	coldDuration   float64
	cachedDuration float64
	newDuration    float64
	warmNewRate    float64
}

// NewModel validates cfg and precomputes phase durations.
func NewModel(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Model{cfg: cfg, warmNewRate: cfg.WarmNewRate}
	// Nothing is cached, so the warm path is a cold request.
	if cfg.CachedUnits == 0 {
		m.warmNewRate = cfg.ColdRate
	}
	m.coldDuration = cfg.TotalUnits / cfg.ColdRate
	m.cachedDuration = cfg.CachedUnits / cfg.WarmCachedRate
	m.newDuration = cfg.NewUnits() / m.warmNewRate
	logrus.Infof("[throughput] cold %.1f ms, warm %.1f ms (cached %.1f + new %.1f)",
		m.coldDuration, m.WarmDuration(), m.cachedDuration, m.newDuration)
	return m, nil
}

// Config returns the validated config.
func (m *Model) Config() Config {
	return m.cfg
}

// ColdDuration is the simulated time for the cold path to finish.
func (m *Model) ColdDuration() float64 {
	return m.coldDuration
}

// CachedPhaseDuration is the simulated time of the warm path's cached segment.
func (m *Model) CachedPhaseDuration() float64 {
	return m.cachedDuration
}

// WarmDuration is the simulated time for the warm path to finish.
func (m *Model) WarmDuration() float64 {
	return m.cachedDuration + m.newDuration
}

// Duration returns the completion time of path p.
func (m *Model) Duration(p Path) float64 {
	if p == Warm {
		return m.WarmDuration()
	}
	return m.ColdDuration()
}

// Total returns the unit count both paths converge to.
func (m *Model) Total() float64 {
	return m.cfg.TotalUnits
}

// ColdProgress returns units processed on the cold path after d.
func (m *Model) ColdProgress(d float64) float64 {
	if d <= 0 {
		return 0
	}
	if d >= m.coldDuration {
		return m.cfg.TotalUnits
	}
	return math.Min(m.cfg.TotalUnits, d*m.cfg.ColdRate)
}

// WarmProgress returns units processed on the warm path after d.
func (m *Model) WarmProgress(d float64) float64 {
	if d <= 0 {
		return 0
	}
	if d < m.cachedDuration {
		return math.Min(m.cfg.CachedUnits, d*m.cfg.WarmCachedRate)
	}
	if d >= m.WarmDuration() {
		return m.cfg.TotalUnits
	}
	newUnits := m.cfg.NewUnits()
	return m.cfg.CachedUnits + math.Min(newUnits, (d-m.cachedDuration)*m.warmNewRate)
}

// Progress returns units processed on path p after d.
func (m *Model) Progress(p Path, d float64) float64 {
	if p == Warm {
		return m.WarmProgress(d)
	}
	return m.ColdProgress(d)
}

// ColdCost returns the cost accrued on the cold path after d.
func (m *Model) ColdCost(d float64) float64 {
	return m.ColdProgress(d) * m.cfg.CostPerUncachedUnit
}

// WarmCost returns the cost accrued on the warm path after d. Units up to CachedUnits
// are billed at the cached price.
func (m *Model) WarmCost(d float64) float64 {
	done := m.WarmProgress(d)
	cached := math.Min(done, m.cfg.CachedUnits)
	return cached*m.cfg.CostPerCachedUnit + (done-cached)*m.cfg.CostPerUncachedUnit
}

// Cost returns the cost accrued on path p after d.
func (m *Model) Cost(p Path, d float64) float64 {
	if p == Warm {
		return m.WarmCost(d)
	}
	return m.ColdCost(d)
}

// Summary compares final totals of both paths.
func (m *Model) Summary() Summary {
	s := Summary{
		ColdDuration:       m.ColdDuration(),
		WarmCachedDuration: m.CachedPhaseDuration(),
		WarmNewDuration:    m.newDuration,
		WarmDuration:       m.WarmDuration(),
		ColdCost:           m.ColdCost(m.ColdDuration()),
		WarmCost:           m.WarmCost(m.WarmDuration()),
		CachedUnitDiscount: 1 - m.cfg.CostPerCachedUnit/m.cfg.CostPerUncachedUnit,
	}
	s.TimeSaved = s.ColdDuration - s.WarmDuration
	s.CostSaved = s.ColdCost - s.WarmCost
	if s.ColdDuration > 0 {
		s.TimeSavedPct = 100 * s.TimeSaved / s.ColdDuration
	}
	if s.ColdCost > 0 {
		s.CostSavedPct = 100 * s.CostSaved / s.ColdCost
	}
	if s.WarmDuration > 0 {
		s.Speedup = s.ColdDuration / s.WarmDuration
	} else {
		s.Speedup = 1
	}
	return s
}

// Summary holds the final comparison of cold and warm paths.
type Summary struct {
	ColdDuration       float64 `json:"cold_duration_ms"`
	WarmCachedDuration float64 `json:"warm_cached_duration_ms"`
	WarmNewDuration    float64 `json:"warm_new_duration_ms"`
	WarmDuration       float64 `json:"warm_duration_ms"`
	TimeSaved          float64 `json:"time_saved_ms"`
	TimeSavedPct       float64 `json:"time_saved_pct"`
	Speedup            float64 `json:"speedup"`
	ColdCost           float64 `json:"cold_cost"`
	WarmCost           float64 `json:"warm_cost"`
	CostSaved          float64 `json:"cost_saved"`
	CostSavedPct       float64 `json:"cost_saved_pct"`
	CachedUnitDiscount float64 `json:"cached_unit_discount"` // 1 - cached/uncached unit price
}
