// SPDX-License-Identifier: EPL-2.0

// Package pcmdl is a playback-path PCM streaming engine for a memory
// mapped audio front end.
//
// The engine moves interleaved PCM from a producer into a circular DMA
// buffer that the hardware drains at its own pace, and answers the two
// questions a sound framework asks while that happens: how far has the
// hardware read, and at which tick will the queued audio have played.
//
// # Packages
//
//   - ring: the aligned circular buffer and its write/read accounting
//   - observer: register snapshots and the timestamp estimator
//   - arbiter: the fast (on-chip) and general (DRAM) buffer pools
//   - stream: the DL1 stream lifecycle on top of the above
//   - hw: the register, routing, clock and memory interfaces
//   - hw/sim: an in-memory front end implementing hw.Platform
//   - config: the YAML platform profile
//   - formats/wav, formats/mp3, formats/vorbis, formats/aiff: PCM sources
//
// # Quick Start
//
// Open a stream on a platform, negotiate parameters, start it and feed it:
//
//	afe := sim.New(sim.Config{FastBase: 0x11221000, FastSize: 48 * 1024})
//	s, _ := stream.New(stream.Config{Platform: afe, Arbiter: arbiter.New(48*1024, 256*1024)})
//
//	_ = s.Open()
//	_ = s.HWParams(stream.Params{Rate: 48000, Channels: 2, Width: 16, BufferBytes: 16384})
//	_ = s.Prepare()
//	_ = s.Trigger(stream.TriggerStart)
//
//	src, _ := wav.Decoder{}.Decode(file)
//	n, err := pcmdl.Feed(ctx, s, src, 1024)
//
// While the hardware plays, Pointer and Timestamp may be called from any
// goroutine:
//
//	frames, _ := s.Pointer()
//	ts := s.GetTimestamp() // -1 when nothing is playing
//
// The engine never starts goroutines of its own. Feed blocks the caller
// and polls while the ring is full.
package pcmdl
