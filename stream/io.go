// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ik5/pcmdl/hw"
	"github.com/ik5/pcmdl/observer"
	"github.com/ik5/pcmdl/ring"
)

// pathEnabled reports whether the DL1 memory path is on.
func (s *Stream) pathEnabled() bool {
	return s.plat.Read(hw.RegMemPathEnable)&hw.PathDL1 != 0
}

func (s *Stream) params() (Params, State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session.Params, s.state
}

func (s *Stream) noteConsumption(c ring.Consumption, st ring.Stats) {
	if !c.Underrun {
		return
	}
	s.metrics.underrun()
	s.log.Warn("playback underrun",
		"consumed_bytes", c.Bytes, "read_offset", st.ReadOffset, "write_offset", st.WriteOffset)
}

// Pointer returns the hardware position in frames. While the path runs
// it first retires what the DMA consumed; otherwise the ring is left
// untouched.
func (s *Stream) Pointer() (int, error) {
	p, _ := s.params()

	var (
		pos     int
		c       ring.Consumption
		st      ring.Stats
		first   bool
		unbound bool
	)
	s.ring.Locked(func(v *ring.View) {
		if !v.Bound() {
			unbound = true
			return
		}
		if s.pathEnabled() {
			c = s.obs.Apply(v, s.obs.Sample())
			first = v.TakeFrameSync()
		}
		pos = v.Position(p.FrameBytes())
		st = v.Stats()
	})
	if unbound {
		return 0, ErrNoActiveStream
	}

	s.noteConsumption(c, st)
	if first {
		s.log.Debug("first pointer after start", "position", pos, "pending_bytes", st.Pending)
	}
	return pos, nil
}

// Copy moves up to frames frames from src into the ring without waiting
// for space and returns the frames accepted. Unreadable producer memory
// becomes silence; the frames still count and the error wraps
// ring.ErrProducerReadFault.
//
// HWParams, HWFree and Close wait for a Copy in progress, so the frame
// size holds for the whole call. Pointer and Timestamp do not.
func (s *Stream) Copy(src io.ReaderAt, frames int) (int, error) {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	n, fb, err := s.copyLocked(src, func(int) int { return frames })
	if fb <= 0 {
		return 0, err
	}
	return n / fb, err
}

// copyLocked runs with copyMu held. frames maps the current frame size to
// the frame count to copy; it returns the bytes accepted and that frame
// size.
func (s *Stream) copyLocked(src io.ReaderAt, frames func(fb int) int) (int, int, error) {
	p, state := s.params()
	fb := p.FrameBytes()
	switch state {
	case StatePrepared, StateRunning, StateStopped:
	default:
		return 0, fb, s.invalidAt("copy", state)
	}

	want := 0
	if fb > 0 {
		want = frames(fb)
	}
	if want <= 0 {
		return 0, fb, nil
	}

	n, err := s.ring.Write(src, want*fb)
	s.metrics.copied(n)

	switch {
	case errors.Is(err, ring.ErrNotBound):
		return 0, fb, fmt.Errorf("copy: %w", ErrNoActiveStream)
	case errors.Is(err, ring.ErrProducerReadFault):
		s.metrics.fault()
		s.log.Warn("producer buffer unreadable, wrote silence", "bytes", n, "error", err)
	}

	return n, fb, err
}

func (s *Stream) invalidAt(op string, st State) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidState, op, st)
}

// Write copies whole frames from p. It returns io.ErrShortWrite when the
// ring had no room for all of them.
func (s *Stream) Write(p []byte) (int, error) {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	n, fb, err := s.copyLocked(bytes.NewReader(p), func(fb int) int { return len(p) / fb })
	if fb <= 0 {
		return 0, fmt.Errorf("write: %w", ErrNoActiveStream)
	}
	n -= n % fb
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// Timestamp returns the tick count at which the data currently in the
// ring will have played out.
func (s *Stream) Timestamp() (int64, error) {
	p, _ := s.params()

	var (
		ts     int64 = -1
		c      ring.Consumption
		st     ring.Stats
		active bool
	)
	s.ring.Locked(func(v *ring.View) {
		if !v.Bound() || !s.pathEnabled() {
			return
		}
		active = true
		snap := s.obs.Sample()
		c = s.obs.Apply(v, snap)
		st = v.Stats()
		ts = s.est.Estimate(observer.Input{
			PendingBytes: int64(v.Pending()),
			FrameBytes:   int64(p.FrameBytes()),
			Rate:         int64(p.Rate),
			Quantum:      int64(p.Quantum()),
			Snapshot:     snap,
		})
	})

	if !active || ts < 0 {
		s.metrics.timestamp("no_stream")
		return -1, ErrNoActiveStream
	}

	s.noteConsumption(c, st)
	s.metrics.timestamp("ok")
	return ts, nil
}

// GetTimestamp is Timestamp with the error folded into a -1 result.
func (s *Stream) GetTimestamp() int64 {
	ts, err := s.Timestamp()
	if err != nil {
		s.log.Debug("timestamp unavailable", "error", err)
		return -1
	}
	return ts
}

// Silence is the framework's silence fill callback. The ring is zeroed on
// bind and on stop, so there is nothing to do.
func (s *Stream) Silence(channel, pos, frames int) error {
	return nil
}
