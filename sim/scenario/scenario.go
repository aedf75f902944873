// Package scenario loads playback scenarios from YAML and provides built-in presets.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/prompt-cache-sim/sim/playback"
	"github.com/inference-sim/prompt-cache-sim/sim/throughput"
	"github.com/inference-sim/prompt-cache-sim/sim/ttl"
)

// ErrUnknownPreset is returned by Preset for unregistered names.
var ErrUnknownPreset = errors.New("unknown preset")

// Scenario is the top-level scenario file. At least one of TTL and Throughput is set.
type Scenario struct {
	Name               string             `yaml:"name"`
	Description        string             `yaml:"description,omitempty"`
	TTL                *ttl.Config        `yaml:"ttl,omitempty"`
	Throughput         *throughput.Config `yaml:"throughput,omitempty"`
	TTLPlayback        PlaybackSpec       `yaml:"ttl_playback,omitempty"`
	ThroughputPlayback PlaybackSpec       `yaml:"throughput_playback,omitempty"`
}

// PlaybackSpec configures a tick loop. Zero fields fall back to the given defaults.
type PlaybackSpec struct {
	Tick      time.Duration `yaml:"tick,omitempty"`
	Step      float64       `yaml:"step,omitempty"`
	RunLength float64       `yaml:"run_length,omitempty"`
}

// PlayerConfig overlays the non-zero playback settings on defaults.
func (p PlaybackSpec) PlayerConfig(defaults playback.Config) playback.Config {
	cfg := defaults
	if p.Tick > 0 {
		cfg.TickInterval = p.Tick
	}
	if p.Step > 0 {
		cfg.Step = p.Step
	}
	if p.RunLength > 0 {
		cfg.RunLength = p.RunLength
	}
	return cfg
}

func (p PlaybackSpec) validate(prefix string) error {
	if p.Tick < 0 {
		return fmt.Errorf("%s.tick must be non-negative, got %v", prefix, p.Tick)
	}
	if math.IsNaN(p.Step) || math.IsInf(p.Step, 0) || p.Step < 0 {
		return fmt.Errorf("%s.step must be a finite non-negative number, got %v", prefix, p.Step)
	}
	if math.IsNaN(p.RunLength) || math.IsInf(p.RunLength, 0) || p.RunLength < 0 {
		return fmt.Errorf("%s.run_length must be a finite non-negative number, got %v", prefix, p.RunLength)
	}
	return nil
}

// Load reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML scenario with strict field checking and validates it.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that all sections are valid.
func (s *Scenario) Validate() error {
	if s.TTL == nil && s.Throughput == nil {
		return fmt.Errorf("scenario %q: at least one of ttl or throughput is required", s.Name)
	}
	if s.TTL != nil {
		if err := s.TTL.Validate(); err != nil {
			return fmt.Errorf("scenario %q: %w", s.Name, err)
		}
	}
	if s.Throughput != nil {
		if err := s.Throughput.Validate(); err != nil {
			return fmt.Errorf("scenario %q: %w", s.Name, err)
		}
	}
	if err := s.TTLPlayback.validate("ttl_playback"); err != nil {
		return fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	if err := s.ThroughputPlayback.validate("throughput_playback"); err != nil {
		return fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return nil
}

// Marshal encodes the scenario as YAML.
func (s *Scenario) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encoding scenario: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding scenario: %w", err)
	}
	return buf.Bytes(), nil
}

// presets are the built-in scenarios, keyed by name.
var presets = map[string]func() *Scenario{
	"prompt-cache-5m": func() *Scenario {
		return &Scenario{
			Name:        "prompt-cache-5m",
			Description: "5-minute sliding TTL: a burst of hits, a pause inside the window, then a request exactly at expiry",
			TTL:         &ttl.Config{TTL: 5, Requests: []float64{0, 1, 2, 3, 4, 8, 9, 14}},
			TTLPlayback: PlaybackSpec{Tick: 200 * time.Millisecond, Step: 0.5},
		}
	},
	"prefill-1200": func() *Scenario {
		return &Scenario{
			Name:               "prefill-1200",
			Description:        "1200-token prompt with a 1000-token cached prefix; cached tokens billed at 10%",
			Throughput:         PrefillConfig(),
			ThroughputPlayback: PlaybackSpec{Tick: 10 * time.Millisecond, Step: 5},
		}
	},
}

// PrefillConfig is the throughput config of the prefill-1200 preset:
// ~850ms cold, ~50ms cached phase plus ~95ms new phase warm.
func PrefillConfig() *throughput.Config {
	return &throughput.Config{
		TotalUnits:          1200,
		CachedUnits:         1000,
		ColdRate:            1200.0 / 850,
		WarmCachedRate:      1000.0 / 50,
		WarmNewRate:         200.0 / 95,
		CostPerCachedUnit:   0.1,
		CostPerUncachedUnit: 1.0,
	}
}

// Preset returns a fresh copy of a built-in scenario.
func Preset(name string) (*Scenario, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownPreset, name, PresetNames())
	}
	return build(), nil
}

// PresetNames returns the built-in scenario names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
