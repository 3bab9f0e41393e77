// SPDX-License-Identifier: EPL-2.0

// Package stream drives the DL1 playback path: it owns the stream
// lifecycle (open, hw_params, prepare, trigger, close), moves producer
// PCM into the DMA ring and answers pointer and timestamp queries from
// the hardware read position.
//
// A Stream talks to the hardware only through hw.Platform, so the same
// code runs against the simulator in hw/sim.
package stream
