package ttl

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every validation failure returned from NewRun.
var ErrInvalidConfig = errors.New("invalid ttl config")

// Config describes one sliding-expiration run.
type Config struct {
	TTL      float64   `yaml:"ttl" json:"ttl"`                               // cache window W (simulated minutes, must be > 0)
	Requests []float64 `yaml:"requests" json:"requests"`                     // request times, sorted non-decreasing, each >= 0
	Timeline float64   `yaml:"timeline,omitempty" json:"timeline,omitempty"` // rendered timeline length (0 = last request + TTL)
}

// Validate checks the config, naming the first offending field.
func (c Config) Validate() error {
	if math.IsNaN(c.TTL) || math.IsInf(c.TTL, 0) {
		return fmt.Errorf("%w: ttl must be a finite number, got %v", ErrInvalidConfig, c.TTL)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("%w: ttl must be positive, got %v", ErrInvalidConfig, c.TTL)
	}
	if math.IsNaN(c.Timeline) || math.IsInf(c.Timeline, 0) || c.Timeline < 0 {
		return fmt.Errorf("%w: timeline must be a finite non-negative number, got %v", ErrInvalidConfig, c.Timeline)
	}
	for i, t := range c.Requests {
		if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			return fmt.Errorf("%w: requests[%d] must be a finite non-negative number, got %v", ErrInvalidConfig, i, t)
		}
		if i > 0 && t < c.Requests[i-1] {
			return fmt.Errorf("%w: requests[%d]=%v is before requests[%d]=%v; requests must be sorted",
				ErrInvalidConfig, i, t, i-1, c.Requests[i-1])
		}
	}
	return nil
}

// TimelineLength returns the configured timeline, or last request + TTL when unset.
func (c Config) TimelineLength() float64 {
	if c.Timeline > 0 {
		return c.Timeline
	}
	if len(c.Requests) == 0 {
		return c.TTL
	}
	return c.Requests[len(c.Requests)-1] + c.TTL
}
