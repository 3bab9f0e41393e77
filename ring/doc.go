// SPDX-License-Identifier: EPL-2.0

// Package ring implements the circular buffer shared between a PCM
// producer and a DMA engine that drains it.
//
// The buffer owns no memory of its own. It is bound to a hw.Region whose
// CPU view it fills and whose physical addresses the hardware reads. All
// offsets and byte counts move in multiples of an alignment quantum
// (64 bytes on the reference hardware); rounding is always toward zero so
// data is never reported as consumed before the hardware has fetched it.
//
// Two parties touch a Buffer:
//
//   - the producer calls Write, which is the only writer of the write
//     offset and the only code that increases the pending byte count;
//   - the consumer side calls View.ObserveConsumption from inside Locked,
//     which is the only writer of the read offset.
//
// The memory copy of a Write happens outside the lock. Its accounting is
// applied under the lock once the copy is complete, so a concurrent Clear
// or Unbind never sees a half-applied write.
//
//	b := ring.New(64)
//	if err := b.Bind(region, 16384); err != nil {
//	    return err
//	}
//	n, err := b.Write(bytes.NewReader(pcm), len(pcm))
//	b.Locked(func(v *ring.View) {
//	    v.ObserveConsumption(hwIndex)
//	})
package ring
