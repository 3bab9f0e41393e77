// SPDX-License-Identifier: EPL-2.0

package observer

import (
	"github.com/ik5/pcmdl/hw"
	"github.com/ik5/pcmdl/ring"
)

// Snapshot is one read of the consumer-side registers.
type Snapshot struct {
	// ReadIndex is the absolute hardware read pointer.
	ReadIndex uint32
	// SampleMonitor is the number of samples left in the current
	// interrupt period.
	SampleMonitor uint32
	TickLow       uint32
	TickHigh      uint32
}

// Tick joins the two counter halves.
func (s Snapshot) Tick() int64 {
	return int64(uint64(s.TickHigh)<<32 | uint64(s.TickLow))
}

// Observer samples the consumer-side registers.
type Observer struct {
	regs hw.Registers
}

// New returns an observer reading regs.
func New(regs hw.Registers) *Observer {
	return &Observer{regs: regs}
}

// Sample reads the read pointer, the sample monitor and the tick counter.
func (o *Observer) Sample() Snapshot {
	return Snapshot{
		ReadIndex:     o.regs.Read(hw.RegDL1Cur),
		SampleMonitor: o.regs.Read(hw.RegIRQ1MCUCntMon),
		TickLow:       o.regs.Read(hw.RegTickLow),
		TickHigh:      o.regs.Read(hw.RegTickHigh),
	}
}

// HWIndex rebases the snapshot's read pointer to an offset inside the
// bound region. A zero pointer means the DMA has wrapped to the start.
func HWIndex(v *ring.View, snap Snapshot) int {
	cur := snap.ReadIndex
	if cur == 0 {
		cur = v.Base()
	}
	return int(cur - v.Base())
}

// Apply retires what the hardware consumed since the last observation.
// It must run inside ring.Buffer.Locked.
func (o *Observer) Apply(v *ring.View, snap Snapshot) ring.Consumption {
	if !v.Bound() {
		return ring.Consumption{}
	}
	idx := HWIndex(v, snap)
	if idx < 0 || idx >= v.Capacity() {
		// pointer outside the region; keep the last known state
		return ring.Consumption{}
	}
	return v.ObserveConsumption(idx)
}
