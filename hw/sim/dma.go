// SPDX-License-Identifier: EPL-2.0

package sim

import (
	"time"

	"github.com/ik5/pcmdl/hw"
)

// Drain lets the DMA fetch frames from the DL1 buffer as if that much
// audio had played, advancing the tick counter to match. It returns the
// frames fetched, zero when the path is not running.
func (a *AFE) Drain(frames int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.drainLocked(frames)
	if rate := int64(a.regs[hw.RegDL1Rate]); rate > 0 {
		a.tickRem += int64(n) * a.tickHz
		a.tick += a.tickRem / rate
		a.tickRem %= rate
	}
	return n
}

// Advance moves simulated time forward by d. The tick counter always runs;
// the DMA drains the frames that play in d when the path is running.
func (a *AFE) Advance(d time.Duration) int {
	if d <= 0 {
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.tick += int64(d) * a.tickHz / int64(time.Second)

	rate := int64(a.regs[hw.RegDL1Rate])
	if rate <= 0 {
		return 0
	}
	return a.drainLocked(int(int64(d) * rate / int64(time.Second)))
}

func (a *AFE) running() bool {
	return a.regs[hw.RegMemPathEnable]&hw.PathDL1 != 0 && a.regs[hw.RegAFEEnable] != 0
}

func (a *AFE) frameBytes() int {
	width := 2
	if a.regs[hw.RegMemIfFormat] == hw.FetchFormat32Bit {
		width = 4
	}
	ch := int(a.regs[hw.RegDL1Channels])
	if ch <= 0 {
		ch = 2
	}
	return width * ch
}

// memory finds the CPU view of the region starting at phys.
func (a *AFE) memory(phys uint32) []byte {
	if phys == a.fast.Phys && a.fast.Size() > 0 {
		return a.fast.Mem
	}
	return a.allocs[phys]
}

func (a *AFE) drainLocked(frames int) int {
	if frames <= 0 || !a.running() {
		return 0
	}

	base := a.regs[hw.RegDL1Base]
	end := a.regs[hw.RegDL1End]
	mem := a.memory(base)
	if end < base || mem == nil {
		a.log.Warn("DL1 buffer not programmed", "base", base, "end", end)
		return 0
	}
	size := int(end-base) + 1
	if size > len(mem) {
		a.log.Warn("DL1 buffer larger than its memory", "size", size, "mem", len(mem))
		return 0
	}

	cur := a.regs[hw.RegDL1Cur]
	if cur < base || cur > end {
		cur = base
	}
	off := int(cur - base)

	remaining := frames * a.frameBytes()
	for remaining > 0 {
		chunk := min(remaining, size-off)
		if a.sink != nil {
			if _, err := a.sink.Write(mem[off : off+chunk]); err != nil {
				a.log.Warn("capture sink failed, detaching", "error", err)
				a.sink = nil
			}
		}
		off = (off + chunk) % size
		remaining -= chunk
	}
	a.drained += int64(frames * a.frameBytes())

	a.regs[hw.RegDL1Cur] = base + uint32(off)
	if a.zeroOnWrap && off == 0 {
		a.regs[hw.RegDL1Cur] = 0
	}

	if counter := int(a.regs[hw.RegIRQ1Counter]); counter > 0 && a.regs[hw.RegIRQEnable]&hw.IRQ1 != 0 {
		a.periodPos += frames
		a.irqs += a.periodPos / counter
		a.periodPos %= counter
	}

	return frames
}

// monitorLocked is the number of frames left in the current interrupt
// period.
func (a *AFE) monitorLocked() uint32 {
	counter := int(a.regs[hw.RegIRQ1Counter])
	if counter <= 0 {
		return 0
	}
	return uint32(counter - a.periodPos)
}
