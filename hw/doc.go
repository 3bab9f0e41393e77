// SPDX-License-Identifier: EPL-2.0

// Package hw describes the hardware the playback engine drives, as a set
// of small capability interfaces.
//
// The engine never touches real registers. It talks to:
//   - Registers: single-word register reads and masked writes
//   - Router: the digital interconnect matrix between memory interfaces
//     and I2S outputs
//   - Clocks: reference-counted clock and power domains
//   - Memory: the on-chip fast buffer and a general allocator
//
// A Platform bundles all four. The hw/sim package provides an in-memory
// implementation suitable for tests and for the dlsim command.
//
// # Registers
//
// The DL1 (downlink 1) memory interface is described by its base and end
// physical addresses and by a current read pointer that the DMA engine
// advances while it fetches samples:
//
//	regs.Write(hw.RegDL1Base, region.Phys, hw.MaskAll)
//	regs.Write(hw.RegDL1End, region.Phys+uint32(size)-1, hw.MaskAll)
//	cur := regs.Read(hw.RegDL1Cur)
//
// The IRQ1 sample-count monitor reports how many samples remain before the
// next period interrupt, and the two tick registers expose a free-running
// 64-bit counter.
package hw
