package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/prompt-cache-sim/sim/playback"
	"github.com/inference-sim/prompt-cache-sim/sim/throughput"
	"github.com/inference-sim/prompt-cache-sim/sim/ttl"
)

func TestLoad_ValidYAML_LoadsCorrectly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	yaml := `
name: custom
ttl:
  ttl: 5
  requests: [0, 1, 2, 3, 4, 8, 9, 14]
  timeline: 20
throughput:
  total_units: 1200
  cached_units: 1000
  cold_rate: 1.5
  warm_cached_rate: 20
  warm_new_rate: 2
  cost_per_cached_unit: 0.1
  cost_per_uncached_unit: 1
ttl_playback:
  tick: 100ms
  step: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "custom", s.Name)
	require.NotNil(t, s.TTL)
	assert.Equal(t, 5.0, s.TTL.TTL)
	assert.Len(t, s.TTL.Requests, 8)
	assert.Equal(t, 20.0, s.TTL.Timeline)
	require.NotNil(t, s.Throughput)
	assert.Equal(t, 1000.0, s.Throughput.CachedUnits)
	assert.Equal(t, 100*time.Millisecond, s.TTLPlayback.Tick)
	assert.Equal(t, 0.25, s.TTLPlayback.Step)
}

func TestParse_UnknownField_Rejected(t *testing.T) {
	_, err := Parse([]byte("name: typo\nttl:\n  ttl: 5\n  requets: [1]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requets")
}

func TestParse_InvalidSection_NamesField(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
		wantMsg string
	}{
		{"negative ttl", "name: bad\nttl:\n  ttl: -1\n", ttl.ErrInvalidConfig, "ttl must be positive"},
		{"cached above total", "name: bad\nthroughput:\n  total_units: 10\n  cached_units: 20\n  cold_rate: 1\n  warm_cached_rate: 1\n  warm_new_rate: 1\n  cost_per_uncached_unit: 1\n",
			throughput.ErrInvalidConfig, "cached_units (20) must not exceed total_units (10)"},
		{"empty scenario", "name: empty\n", nil, "at least one of ttl or throughput"},
		{"negative step", "name: bad\nttl:\n  ttl: 5\nttl_playback:\n  step: -1\n", nil, "ttl_playback.step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading scenario")
}

func TestPreset_AllPresetsValidate(t *testing.T) {
	names := PresetNames()
	assert.Equal(t, []string{"prefill-1200", "prompt-cache-5m"}, names)
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			s, err := Preset(name)
			require.NoError(t, err)
			assert.NoError(t, s.Validate())
		})
	}
}

func TestPreset_ReturnsFreshCopy(t *testing.T) {
	a, err := Preset("prompt-cache-5m")
	require.NoError(t, err)
	a.TTL.Requests[0] = 42

	b, err := Preset("prompt-cache-5m")
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.TTL.Requests[0])
}

func TestPreset_Unknown(t *testing.T) {
	_, err := Preset("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownPreset))
	assert.Contains(t, err.Error(), "prefill-1200")
}

func TestMarshal_ParsesBack(t *testing.T) {
	s, err := Preset("prefill-1200")
	require.NoError(t, err)

	data, err := s.Marshal()
	require.NoError(t, err)
	back, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, s, back)
}

func TestPlaybackSpec_PlayerConfig_FallsBackToDefaults(t *testing.T) {
	defaults := playback.DefaultConfig()

	cfg := PlaybackSpec{Step: 5}.PlayerConfig(defaults)

	assert.Equal(t, defaults.TickInterval, cfg.TickInterval)
	assert.Equal(t, 5.0, cfg.Step)
	assert.Equal(t, 0.0, cfg.RunLength)
}
