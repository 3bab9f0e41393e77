// SPDX-License-Identifier: EPL-2.0

// Package observer turns polled hardware state into ring accounting and
// playback timestamps.
//
// Nothing here runs on its own schedule. Callers take a Snapshot and
// Apply it while holding the ring lock, from the progress query or the
// timestamp query, whichever comes first:
//
//	buf.Locked(func(v *ring.View) {
//	    snap := obs.Sample()
//	    obs.Apply(v, snap)
//	    ts = est.Estimate(observer.Input{...})
//	})
//
// # Timestamps
//
// The hardware sample monitor counts down the samples left in the current
// interrupt period. The ring's pending bytes count everything not yet
// fetched. Estimator reconciles the two in whole periods, compensates for
// the prefetch stage, and converts the result to ticks of the free-running
// counter.
package observer
