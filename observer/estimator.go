// SPDX-License-Identifier: EPL-2.0

package observer

// Defaults for the reference platform.
const (
	DefaultTickHz        = 13_000_000
	DefaultPrefetchBytes = 256
)

// Estimator converts residual buffer state into a playback timestamp.
type Estimator struct {
	TickHz        int64
	PrefetchBytes int64
}

// Input is everything Estimate needs, captured under the ring lock.
type Input struct {
	// PendingBytes after consumption has been applied.
	PendingBytes int64
	FrameBytes   int64
	Rate         int64
	// Quantum is the interrupt period in frames.
	Quantum int64
	Snapshot
}

// AdjustRemaining reconciles the frames left in the ring with the sample
// monitor. With delta = framesRemaining - monitor, whole quanta that fit
// in a non-negative delta are added to the monitor. A negative delta is
// first offset by the prefetch stage, then as many quanta as needed to
// make it positive are taken off the monitor. The result never goes
// below zero.
func AdjustRemaining(framesRemaining, monitor, quantum, prefetchFrames int64) int64 {
	if quantum <= 0 {
		return max(monitor, 0)
	}

	delta := framesRemaining - monitor
	adjusted := monitor
	if delta >= 0 {
		adjusted += delta / quantum * quantum
	} else {
		delta += prefetchFrames
		if delta <= 0 {
			k := -delta/quantum + 1
			adjusted -= k * quantum
		}
	}

	return max(adjusted, 0)
}

// Estimate returns the tick at which the last pending frame will play.
// It returns -1 when the input cannot describe a running stream.
func (e Estimator) Estimate(in Input) int64 {
	if in.FrameBytes <= 0 || in.Rate <= 0 {
		return -1
	}

	tickHz := e.TickHz
	if tickHz <= 0 {
		tickHz = DefaultTickHz
	}

	frames := in.PendingBytes / in.FrameBytes
	prefetch := e.PrefetchBytes / in.FrameBytes
	adjusted := AdjustRemaining(frames, int64(in.SampleMonitor), in.Quantum, prefetch)

	return in.Tick() + adjusted*tickHz/in.Rate
}
