package throughput

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every validation failure returned from NewModel.
var ErrInvalidConfig = errors.New("invalid throughput config")

// Config describes a cold-vs-warm comparison for one prompt.
// Rates are units per simulated millisecond; costs are per unit.
type Config struct {
	TotalUnits          float64 `yaml:"total_units" json:"total_units"`                       // all prompt tokens
	CachedUnits         float64 `yaml:"cached_units" json:"cached_units"`                     // prefix served from cache on the warm path (<= TotalUnits)
	ColdRate            float64 `yaml:"cold_rate" json:"cold_rate"`                           // cold path, all units
	WarmCachedRate      float64 `yaml:"warm_cached_rate" json:"warm_cached_rate"`             // warm path, cached segment
	WarmNewRate         float64 `yaml:"warm_new_rate" json:"warm_new_rate"`                   // warm path, new segment
	CostPerCachedUnit   float64 `yaml:"cost_per_cached_unit" json:"cost_per_cached_unit"`     // must be strictly below CostPerUncachedUnit
	CostPerUncachedUnit float64 `yaml:"cost_per_uncached_unit" json:"cost_per_uncached_unit"` // cold units and warm new units
}

// NewUnits returns TotalUnits - CachedUnits.
func (c Config) NewUnits() float64 {
	return c.TotalUnits - c.CachedUnits
}

// Validate checks the config, naming the first offending field.
func (c Config) Validate() error {
	if err := finiteNonNegative("total_units", c.TotalUnits); err != nil {
		return err
	}
	if err := finiteNonNegative("cached_units", c.CachedUnits); err != nil {
		return err
	}
	if c.CachedUnits > c.TotalUnits {
		return fmt.Errorf("%w: cached_units (%v) must not exceed total_units (%v)", ErrInvalidConfig, c.CachedUnits, c.TotalUnits)
	}
	for _, r := range []struct {
		name string
		val  float64
	}{
		{"cold_rate", c.ColdRate},
		{"warm_cached_rate", c.WarmCachedRate},
		{"warm_new_rate", c.WarmNewRate},
	} {
		if err := finitePositive(r.name, r.val); err != nil {
			return err
		}
	}
	if c.WarmNewRate < c.ColdRate {
		return fmt.Errorf("%w: warm_new_rate (%v) must not be below cold_rate (%v)", ErrInvalidConfig, c.WarmNewRate, c.ColdRate)
	}
	if err := finiteNonNegative("cost_per_cached_unit", c.CostPerCachedUnit); err != nil {
		return err
	}
	if err := finiteNonNegative("cost_per_uncached_unit", c.CostPerUncachedUnit); err != nil {
		return err
	}
	if c.CostPerCachedUnit >= c.CostPerUncachedUnit {
		return fmt.Errorf("%w: cost_per_cached_unit (%v) must be below cost_per_uncached_unit (%v)",
			ErrInvalidConfig, c.CostPerCachedUnit, c.CostPerUncachedUnit)
	}
	return nil
}

func finiteNonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %s must be a finite number, got %v", ErrInvalidConfig, name, val)
	}
	if val < 0 {
		return fmt.Errorf("%w: %s must be non-negative, got %v", ErrInvalidConfig, name, val)
	}
	return nil
}

func finitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %s must be a finite number, got %v", ErrInvalidConfig, name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, name, val)
	}
	return nil
}
