// SPDX-License-Identifier: EPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/pcmdl/hw"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 64, cfg.AlignmentBytes)
	assert.Equal(t, 256, cfg.PrefetchBytes)
	assert.Equal(t, int64(13_000_000), cfg.TickHz)
	assert.Equal(t, uint32(0x11221000), cfg.FastPool.Base)
	assert.True(t, cfg.SupportsRate(44100))
	assert.False(t, cfg.SupportsRate(96000))
	assert.True(t, cfg.SupportsWidth(32))
	assert.False(t, cfg.SupportsWidth(24))
}

func TestDefault_Routes(t *testing.T) {
	t.Parallel()

	want := []hw.Route{
		{In: hw.InputI05, Out: hw.OutputO00},
		{In: hw.InputI06, Out: hw.OutputO01},
		{In: hw.InputI05, Out: hw.OutputO03},
		{In: hw.InputI06, Out: hw.OutputO04},
	}
	assert.Equal(t, want, Default().HWRoutes())
}

func TestParse_OverridesDefaults(t *testing.T) {
	t.Parallel()

	data := []byte(`
prefetch_bytes: 192
fast_pool:
  base: 0x12000000
  size: 32768
supported_rates: [44100, 48000]
hd_output: true
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 192, cfg.PrefetchBytes)
	assert.Equal(t, uint32(0x12000000), cfg.FastPool.Base)
	assert.Equal(t, 32768, cfg.FastPool.Size)
	assert.Equal(t, []int{44100, 48000}, cfg.SupportedRates)
	assert.True(t, cfg.HDOutput)

	// untouched keys keep their defaults
	assert.Equal(t, 64, cfg.AlignmentBytes)
	assert.Equal(t, 12_000_000, cfg.MclkHz)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"zero alignment", "alignment_bytes: 0"},
		{"negative prefetch", "prefetch_bytes: -1"},
		{"zero tick", "tick_hz: 0"},
		{"misaligned fast pool", "fast_pool: {size: 1000}"},
		{"misaligned general pool", "general_pool: {max_bytes: 100}"},
		{"zero mclk", "mclk_hz: 0"},
		{"no rates", "supported_rates: []"},
		{"bad rate", "supported_rates: [0]"},
		{"bad channels", "channels: {min: 2, max: 1}"},
		{"bad width", "sample_widths: [24]"},
		{"no routes", "routes: []"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("alignment_bytes: [not, a, number]"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "platform.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mclk_hz: 24000000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 24_000_000, cfg.MclkHz)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
