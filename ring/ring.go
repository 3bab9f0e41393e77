// SPDX-License-Identifier: EPL-2.0

package ring

import (
	"fmt"
	"io"
	"sync"

	"github.com/ik5/pcmdl/hw"
	"github.com/ik5/pcmdl/utils"
)

// DefaultAlign is the DMA alignment quantum in bytes.
const DefaultAlign = 64

// Buffer is a fixed-capacity byte ring bound to DMA memory.
type Buffer struct {
	mu   sync.Mutex
	wmu  sync.Mutex // serializes producers
	view View

	align    int
	region   hw.Region
	capacity int

	writeOffset int
	readOffset  int
	pending     int

	// gen changes whenever accounting is reset, so a write whose copy
	// straddled a reset drops its update.
	gen uint64

	resetPending     bool
	frameSyncPending bool
}

// Stats is a point-in-time copy of the accounting.
type Stats struct {
	Base        uint32
	Capacity    int
	WriteOffset int
	ReadOffset  int
	Pending     int
}

// Consumption is the result of one ObserveConsumption call.
type Consumption struct {
	// Bytes is the aligned number of bytes retired from the ring.
	Bytes int
	// Underrun is set when the hardware read past the written data.
	Underrun bool
}

// New returns an unbound buffer. A non-positive align selects DefaultAlign.
func New(align int) *Buffer {
	if align <= 0 {
		align = DefaultAlign
	}
	b := &Buffer{align: align}
	b.view.b = b
	return b
}

// Align returns the alignment quantum.
func (b *Buffer) Align() int { return b.align }

// Bind attaches the buffer to the first capacity bytes of region and
// resets all accounting.
func (b *Buffer) Bind(region hw.Region, capacity int) error {
	if capacity <= 0 || !utils.IsAligned(capacity, b.align) {
		return fmt.Errorf("%w: capacity %d is not a positive multiple of %d",
			ErrInvalidRegion, capacity, b.align)
	}
	if capacity > region.Size() {
		return fmt.Errorf("%w: capacity %d exceeds region size %d",
			ErrInvalidRegion, capacity, region.Size())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.region = region
	b.capacity = capacity
	b.writeOffset = 0
	b.readOffset = 0
	b.pending = 0
	b.gen++
	b.resetPending = true
	b.frameSyncPending = false
	return nil
}

// Unbind forgets the region.
func (b *Buffer) Unbind() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.region = hw.Region{}
	b.capacity = 0
	b.writeOffset = 0
	b.readOffset = 0
	b.pending = 0
	b.gen++
	b.resetPending = false
	b.frameSyncPending = false
}

// Bound reports whether a region is attached.
func (b *Buffer) Bound() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity > 0
}

// Region returns the bound region.
func (b *Buffer) Region() hw.Region {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.region
}

// Write copies up to length bytes from src into the ring, limited by the
// free space and rounded down to the alignment quantum. It returns the
// number of bytes the ring accepted and never waits for space.
//
// A span that cannot be read from src is zero-filled and still counted;
// the returned error then wraps ErrProducerReadFault.
func (b *Buffer) Write(src io.ReaderAt, length int) (int, error) {
	b.wmu.Lock()
	defer b.wmu.Unlock()

	b.mu.Lock()
	if b.capacity == 0 {
		b.mu.Unlock()
		return 0, ErrNotBound
	}
	capacity := b.capacity
	n := utils.AlignDown(min(length, capacity-b.pending), b.align)
	w := b.writeOffset
	gen := b.gen
	mem := b.region.Mem[:capacity]
	b.mu.Unlock()

	if n <= 0 {
		return 0, nil
	}

	var (
		fault   error
		written int
	)
	for _, sp := range splitSpans(w, n, capacity) {
		dst := mem[sp.off : sp.off+sp.n]
		if err := readSpan(src, dst, int64(written)); err != nil {
			clear(dst)
			if fault == nil {
				fault = fmt.Errorf("%w: %d bytes at offset %d: %w",
					ErrProducerReadFault, sp.n, written, err)
			}
		}

		b.mu.Lock()
		if b.gen != gen {
			b.mu.Unlock()
			return written, fault
		}
		b.pending += sp.n
		b.writeOffset = (sp.off + sp.n) % capacity
		b.mu.Unlock()

		written += sp.n
	}

	return written, fault
}

type span struct {
	off int
	n   int
}

// splitSpans cuts an n byte write starting at off into at most two
// contiguous spans, the second one starting at offset zero.
func splitSpans(off, n, capacity int) []span {
	if off+n <= capacity {
		return []span{{off: off, n: n}}
	}
	first := capacity - off
	return []span{{off: off, n: first}, {off: 0, n: n - first}}
}

func readSpan(src io.ReaderAt, dst []byte, off int64) error {
	if src == nil {
		return errNilSource
	}
	n, err := src.ReadAt(dst, off)
	if n == len(dst) {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Locked runs fn with the buffer lock held. fn must not block and must not
// call other Buffer methods.
func (b *Buffer) Locked(fn func(v *View)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.view)
}

// Position converts the read offset to frames.
func (b *Buffer) Position(frameBytes int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view.Position(frameBytes)
}

// Clear drops all pending data and zeroes the memory. The binding stays.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capacity > 0 {
		clear(b.region.Mem[:b.capacity])
	}
	b.writeOffset = 0
	b.readOffset = 0
	b.pending = 0
	b.gen++
	b.frameSyncPending = false
}

// TakeReset reports and clears the reset flag set by Bind.
func (b *Buffer) TakeReset() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := b.resetPending
	b.resetPending = false
	return r
}

// MarkFrameSync arms the frame sync flag.
func (b *Buffer) MarkFrameSync() {
	b.mu.Lock()
	b.frameSyncPending = true
	b.mu.Unlock()
}

// Stats returns a copy of the accounting.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view.Stats()
}

// View is the lock-held face of a Buffer, handed out by Locked.
type View struct {
	b *Buffer
}

// Bound reports whether a region is attached.
func (v *View) Bound() bool { return v.b.capacity > 0 }

// Base is the physical base address of the bound region.
func (v *View) Base() uint32 { return v.b.region.Phys }

// Capacity in bytes.
func (v *View) Capacity() int { return v.b.capacity }

// Pending bytes not yet drained by the hardware.
func (v *View) Pending() int { return v.b.pending }

// ReadOffset in bytes.
func (v *View) ReadOffset() int { return v.b.readOffset }

// WriteOffset in bytes.
func (v *View) WriteOffset() int { return v.b.writeOffset }

// Position converts the read offset to frames.
func (v *View) Position(frameBytes int) int {
	if frameBytes <= 0 {
		return 0
	}
	return v.b.readOffset / frameBytes
}

// TakeFrameSync reports and clears the frame sync flag.
func (v *View) TakeFrameSync() bool {
	s := v.b.frameSyncPending
	v.b.frameSyncPending = false
	return s
}

// Stats returns a copy of the accounting.
func (v *View) Stats() Stats {
	b := v.b
	return Stats{
		Base:        b.region.Phys,
		Capacity:    b.capacity,
		WriteOffset: b.writeOffset,
		ReadOffset:  b.readOffset,
		Pending:     b.pending,
	}
}

// ObserveConsumption retires the bytes the hardware fetched since the last
// observation. hwIndex is the hardware read position relative to the
// region base. Observing the same position twice retires nothing the
// second time.
func (v *View) ObserveConsumption(hwIndex int) Consumption {
	b := v.b
	if b.capacity == 0 {
		return Consumption{}
	}

	consumed := utils.AlignDown(utils.WrapDistance(b.readOffset, hwIndex, b.capacity), b.align)
	if consumed == 0 {
		return Consumption{}
	}

	c := Consumption{Bytes: consumed}
	b.readOffset = (b.readOffset + consumed) % b.capacity
	if consumed > b.pending {
		c.Underrun = true
		b.pending = 0
	} else {
		b.pending -= consumed
	}
	return c
}
