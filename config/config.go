// SPDX-License-Identifier: EPL-2.0

// Package config describes the platform the playback engine runs on: pool
// layout, DMA alignment, the tick counter and what the codec accepts.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ik5/pcmdl/hw"
)

var ErrInvalidConfig = errors.New("invalid platform config")

// Platform is the complete engine configuration.
type Platform struct {
	AlignmentBytes int          `yaml:"alignment_bytes"` // DMA quantum
	PrefetchBytes  int          `yaml:"prefetch_bytes"`  // bytes latched ahead of the read pointer
	TickHz         int64        `yaml:"tick_hz"`         // free-running counter frequency
	FastPool       FastPool     `yaml:"fast_pool"`
	GeneralPool    GeneralPool  `yaml:"general_pool"`
	MclkHz         int          `yaml:"mclk_hz"` // codec master clock
	SupportedRates []int        `yaml:"supported_rates"`
	Channels       ChannelRange `yaml:"channels"`
	SampleWidths   []int        `yaml:"sample_widths"`
	HDOutput       bool         `yaml:"hd_output"` // low-jitter APLL clocking
	Routes         []Route      `yaml:"routes"`
}

// FastPool is the fixed on-chip buffer.
type FastPool struct {
	Base uint32 `yaml:"base"`
	Size int    `yaml:"size"`
}

// GeneralPool bounds buffers taken from main memory.
type GeneralPool struct {
	Base     uint32 `yaml:"base"` // first physical address handed out
	MaxBytes int    `yaml:"max_bytes"`
}

type ChannelRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Route is one interconnect connection made while the stream runs.
type Route struct {
	Input  int `yaml:"input"`
	Output int `yaml:"output"`
}

// HW converts the route to its hardware form.
func (r Route) HW() hw.Route {
	return hw.Route{In: hw.Input(r.Input), Out: hw.Output(r.Output)}
}

// Default returns the reference platform profile.
func Default() *Platform {
	return &Platform{
		AlignmentBytes: 64,
		PrefetchBytes:  256,
		TickHz:         13_000_000,
		FastPool: FastPool{
			Base: 0x11221000,
			Size: 48 * 1024,
		},
		GeneralPool: GeneralPool{
			Base:     0x40000000,
			MaxBytes: 256 * 1024,
		},
		MclkHz:         12_000_000,
		SupportedRates: []int{8000, 11025, 16000, 22050, 32000, 44100, 48000},
		Channels:       ChannelRange{Min: 1, Max: 2},
		SampleWidths:   []int{16, 32},
		Routes: []Route{
			{Input: int(hw.InputI05), Output: int(hw.OutputO00)},
			{Input: int(hw.InputI06), Output: int(hw.OutputO01)},
			{Input: int(hw.InputI05), Output: int(hw.OutputO03)},
			{Input: int(hw.InputI06), Output: int(hw.OutputO04)},
		},
	}
}

// Load reads a YAML profile. Keys missing from the file keep their
// Default values.
func Load(path string) (*Platform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile on top of Default and validates it.
func Parse(data []byte) (*Platform, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the profile for values the engine cannot run with.
func (p *Platform) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if p.AlignmentBytes <= 0 {
		fail("alignment_bytes must be positive, got %d", p.AlignmentBytes)
	}
	if p.PrefetchBytes < 0 {
		fail("prefetch_bytes must not be negative, got %d", p.PrefetchBytes)
	}
	if p.TickHz <= 0 {
		fail("tick_hz must be positive, got %d", p.TickHz)
	}
	if p.FastPool.Size < 0 {
		fail("fast_pool.size must not be negative, got %d", p.FastPool.Size)
	}
	if p.GeneralPool.MaxBytes <= 0 {
		fail("general_pool.max_bytes must be positive, got %d", p.GeneralPool.MaxBytes)
	}
	if p.AlignmentBytes > 0 {
		if p.FastPool.Size%p.AlignmentBytes != 0 {
			fail("fast_pool.size %d is not a multiple of %d", p.FastPool.Size, p.AlignmentBytes)
		}
		if p.GeneralPool.MaxBytes%p.AlignmentBytes != 0 {
			fail("general_pool.max_bytes %d is not a multiple of %d", p.GeneralPool.MaxBytes, p.AlignmentBytes)
		}
	}
	if p.MclkHz <= 0 {
		fail("mclk_hz must be positive, got %d", p.MclkHz)
	}
	if len(p.SupportedRates) == 0 {
		fail("supported_rates is empty")
	}
	for _, r := range p.SupportedRates {
		if r <= 0 {
			fail("supported rate %d is not positive", r)
		}
	}
	if p.Channels.Min < 1 || p.Channels.Max < p.Channels.Min {
		fail("channels range [%d, %d] is invalid", p.Channels.Min, p.Channels.Max)
	}
	if len(p.SampleWidths) == 0 {
		fail("sample_widths is empty")
	}
	for _, w := range p.SampleWidths {
		if w != 16 && w != 32 {
			fail("sample width %d is not 16 or 32", w)
		}
	}
	if len(p.Routes) == 0 {
		fail("routes is empty")
	}

	return errors.Join(errs...)
}

// SupportsRate reports whether rate is in SupportedRates.
func (p *Platform) SupportsRate(rate int) bool {
	return slices.Contains(p.SupportedRates, rate)
}

// SupportsWidth reports whether width is in SampleWidths.
func (p *Platform) SupportsWidth(width int) bool {
	return slices.Contains(p.SampleWidths, width)
}

// HWRoutes returns Routes in hardware form.
func (p *Platform) HWRoutes() []hw.Route {
	out := make([]hw.Route, len(p.Routes))
	for i, r := range p.Routes {
		out[i] = r.HW()
	}
	return out
}
