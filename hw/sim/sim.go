// SPDX-License-Identifier: EPL-2.0

// Package sim is an in-memory audio front end. It implements hw.Platform
// and plays the part of the DMA engine: Drain and Advance move the DL1 read
// pointer through the bound buffer, count down the interrupt sample
// monitor and run the tick counter.
package sim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/ik5/pcmdl/hw"
)

var (
	ErrInvalidSize   = errors.New("invalid allocation size")
	ErrUnknownRegion = errors.New("region was not allocated here")
)

const pageSize = 4096

// Config sizes the simulated memories and clocks.
type Config struct {
	FastBase    uint32
	FastSize    int
	GeneralBase uint32
	TickHz      int64
	Logger      *slog.Logger
}

// AFE is the simulated front end. All methods are safe for concurrent use.
type AFE struct {
	mu  sync.Mutex
	log *slog.Logger

	regs   map[hw.Register]uint32
	writes map[hw.Register]int

	fast     hw.Region
	nextPhys uint32
	allocs   map[uint32][]byte

	routes  map[hw.Route]struct{}
	formats map[hw.Output]hw.OutputFormat

	clocks    map[hw.Clock]int
	clockErrs map[hw.Clock]error

	tickHz  int64
	tick    int64
	tickRem int64 // fractional ticks scaled by the sample rate

	periodPos  int // frames into the current interrupt period
	irqs       int
	drained    int64
	zeroOnWrap bool

	sink io.Writer
}

// New builds an idle front end.
func New(cfg Config) *AFE {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tickHz := cfg.TickHz
	if tickHz <= 0 {
		tickHz = 13_000_000
	}

	return &AFE{
		log:       logger.With("component", "afe_sim"),
		regs:      make(map[hw.Register]uint32),
		writes:    make(map[hw.Register]int),
		fast:      hw.Region{Phys: cfg.FastBase, Mem: make([]byte, cfg.FastSize)},
		nextPhys:  cfg.GeneralBase,
		allocs:    make(map[uint32][]byte),
		routes:    make(map[hw.Route]struct{}),
		formats:   make(map[hw.Output]hw.OutputFormat),
		clocks:    make(map[hw.Clock]int),
		clockErrs: make(map[hw.Clock]error),
		tickHz:    tickHz,
	}
}

// Read returns the register value. The tick registers read the live
// counter.
func (a *AFE) Read(reg hw.Register) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch reg {
	case hw.RegTickLow:
		return uint32(a.tick)
	case hw.RegTickHigh:
		return uint32(a.tick >> 32)
	case hw.RegIRQ1MCUCntMon:
		return a.monitorLocked()
	}
	return a.regs[reg]
}

func (a *AFE) Write(reg hw.Register, value, mask uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.writes[reg]++
	switch reg {
	case hw.RegTickLow, hw.RegTickHigh, hw.RegIRQ1MCUCntMon:
		// read only
		return
	case hw.RegIRQ1Counter:
		a.periodPos = 0
	case hw.RegDL1Base:
		// the read pointer follows a new base
		a.regs[hw.RegDL1Cur] = value & mask
	}
	a.regs[reg] = a.regs[reg]&^mask | value&mask
}

// WriteCount reports how many times reg was written.
func (a *AFE) WriteCount(reg hw.Register) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.writes[reg]
}

func (a *AFE) Connect(in hw.Input, out hw.Output) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.routes[hw.Route{In: in, Out: out}] = struct{}{}
	a.log.Debug("interconnect connected", "route", hw.Route{In: in, Out: out}.String())
	return nil
}

func (a *AFE) Disconnect(in hw.Input, out hw.Output) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.routes, hw.Route{In: in, Out: out})
	a.log.Debug("interconnect disconnected", "route", hw.Route{In: in, Out: out}.String())
	return nil
}

func (a *AFE) SetOutputFormat(out hw.Output, f hw.OutputFormat) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.formats[out] = f
	return nil
}

// Connected reports whether the route is made.
func (a *AFE) Connected(r hw.Route) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.routes[r]
	return ok
}

// Routes lists connected routes in a stable order.
func (a *AFE) Routes() []hw.Route {
	a.mu.Lock()
	defer a.mu.Unlock()

	return slices.SortedFunc(maps.Keys(a.routes), func(x, y hw.Route) int {
		if x.In != y.In {
			return int(x.In) - int(y.In)
		}
		return int(x.Out) - int(y.Out)
	})
}

// OutputFormat returns the format last set for out.
func (a *AFE) OutputFormat(out hw.Output) (hw.OutputFormat, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, ok := a.formats[out]
	return f, ok
}

func (a *AFE) Enable(c hw.Clock) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.clockErrs[c]; err != nil {
		return fmt.Errorf("enable %s: %w", c, err)
	}
	a.clocks[c]++
	return nil
}

func (a *AFE) Disable(c hw.Clock) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.clocks[c] == 0 {
		a.log.Warn("clock disabled more times than enabled", "clock", c.String())
		return
	}
	a.clocks[c]--
}

// ClockRefs is the reference count of c.
func (a *AFE) ClockRefs(c hw.Clock) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.clocks[c]
}

// FailClock makes every later Enable of c return err. A nil err clears it.
func (a *AFE) FailClock(c hw.Clock, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err == nil {
		delete(a.clockErrs, c)
		return
	}
	a.clockErrs[c] = err
}

// Allocate hands out page aligned general memory.
func (a *AFE) Allocate(size int) (hw.Region, error) {
	if size <= 0 {
		return hw.Region{}, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	phys := a.nextPhys
	mem := make([]byte, size)
	a.allocs[phys] = mem
	a.nextPhys += uint32((size + pageSize - 1) / pageSize * pageSize)

	a.log.Debug("general region allocated", "phys", fmt.Sprintf("%#x", phys), "size", size)
	return hw.Region{Phys: phys, Mem: mem}, nil
}

func (a *AFE) Free(r hw.Region) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.allocs[r.Phys]; !ok {
		return fmt.Errorf("%w: %#x", ErrUnknownRegion, r.Phys)
	}
	delete(a.allocs, r.Phys)
	return nil
}

// Allocations is the number of live general regions.
func (a *AFE) Allocations() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.allocs)
}

func (a *AFE) FastRegion() hw.Region { return a.fast }

// SetSink receives a copy of every byte the DMA fetches. Nil disables it.
func (a *AFE) SetSink(w io.Writer) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sink = w
}

// SetZeroOnWrap makes the read pointer register read zero whenever the DMA
// sits exactly at the buffer base, like the real hardware sometimes does.
func (a *AFE) SetZeroOnWrap(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.zeroOnWrap = on
}

// Stats is what the DMA has done so far.
type Stats struct {
	DrainedBytes int64
	IRQs         int
	Tick         int64
}

func (a *AFE) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Stats{DrainedBytes: a.drained, IRQs: a.irqs, Tick: a.tick}
}
