// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ik5/pcmdl/arbiter"
	"github.com/ik5/pcmdl/hw"
	"github.com/ik5/pcmdl/ring"
	"github.com/ik5/pcmdl/utils"
)

// Open takes a buffer pool from the arbiter, powers the front end and
// installs the buffer size constraint.
func (s *Stream) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateClosed {
		return s.invalid("open")
	}

	grant := s.arb.Acquire()

	clocks := []hw.Clock{hw.ClockAFE, hw.ClockAnalog}
	if grant.Pool == arbiter.PoolGeneral {
		clocks = append(clocks, hw.ClockEMI)
	}
	enabled, err := s.enableClocks(clocks)
	if err != nil {
		s.arb.Release(grant)
		return fmt.Errorf("open: %w", err)
	}

	s.grant = grant
	s.clocks = enabled
	s.maxBytes = grant.Capacity
	s.session = Session{ID: uuid.NewString(), Pool: grant.Pool}
	s.state = StateOpened
	s.log = s.base.With("session_id", s.session.ID)
	s.metrics.granted(grant.Pool)

	s.log.Debug("stream opened", "pool", grant.Pool.String(), "buffer_bytes_max", grant.Capacity)
	return nil
}

// enableClocks enables clocks in order and rolls back on the first error.
func (s *Stream) enableClocks(clocks []hw.Clock) ([]hw.Clock, error) {
	for i, c := range clocks {
		if err := s.plat.Enable(c); err != nil {
			s.disableClocks(clocks[:i])
			return nil, err
		}
	}
	return clocks, nil
}

func (s *Stream) disableClocks(clocks []hw.Clock) {
	for i := len(clocks) - 1; i >= 0; i-- {
		s.plat.Disable(clocks[i])
	}
}

// HWParams checks p against the installed constraints and binds the ring
// to the pool's memory. It may be called again before Prepare or after
// Stop to change parameters.
func (s *Stream) HWParams(p Params) error {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateOpened, StateHWParamsSet, StatePrepared, StateStopped:
	default:
		return s.invalid("hw_params")
	}

	if err := s.checkParams(p); err != nil {
		s.log.Warn("hw params rejected",
			"rate", p.Rate, "channels", p.Channels, "width", p.Width,
			"buffer_bytes", p.BufferBytes, "mclk_hz", s.profile.MclkHz, "error", err)
		return err
	}

	region, fresh, err := s.bufferRegion(p.BufferBytes)
	if err != nil {
		return fmt.Errorf("hw_params: %w", err)
	}

	// Bind validates before it mutates, so a failure leaves the previous
	// binding and its region in place.
	if err := s.ring.Bind(region, p.BufferBytes); err != nil {
		if fresh {
			s.release(region)
		}
		return fmt.Errorf("hw_params: %w", err)
	}
	if fresh {
		s.freeRegion()
		s.region = region
	}

	s.plat.Write(hw.RegDL1Base, region.Phys, hw.MaskAll)
	s.plat.Write(hw.RegDL1End, region.Phys+uint32(p.BufferBytes)-1, hw.MaskAll)
	if s.ring.TakeReset() {
		clear(region.Mem[:p.BufferBytes])
	}

	s.session.Params = p
	s.state = StateHWParamsSet

	s.log.Debug("hw params set",
		"rate", p.Rate, "channels", p.Channels, "width", p.Width,
		"period_frames", p.Quantum(), "buffer_bytes", p.BufferBytes,
		"phys", fmt.Sprintf("%#x", region.Phys))
	return nil
}

func (s *Stream) checkParams(p Params) error {
	switch {
	case !s.profile.SupportsRate(p.Rate):
		return fmt.Errorf("%w: rate %d", ErrUnsupportedFormat, p.Rate)
	case p.Channels < s.profile.Channels.Min || p.Channels > s.profile.Channels.Max:
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, p.Channels)
	case !s.profile.SupportsWidth(p.Width):
		return fmt.Errorf("%w: %d bit samples", ErrUnsupportedFormat, p.Width)
	case !CodecSupports(s.profile.MclkHz, p.Rate):
		return fmt.Errorf("%w: rate %d with mclk %d", ErrUnsupportedFormat, p.Rate, s.profile.MclkHz)
	case p.BufferBytes <= 0 || !utils.IsAligned(p.BufferBytes, s.ring.Align()):
		return fmt.Errorf("%w: buffer %d bytes is not a positive multiple of %d",
			ring.ErrInvalidRegion, p.BufferBytes, s.ring.Align())
	case p.BufferBytes > s.maxBytes:
		return fmt.Errorf("%w: buffer %d bytes exceeds %d", ErrUnsupportedFormat, p.BufferBytes, s.maxBytes)
	case p.PeriodFrames < 0 || p.PeriodFrames*p.FrameBytes() > p.BufferBytes:
		return fmt.Errorf("%w: period %d frames", ErrUnsupportedFormat, p.PeriodFrames)
	}
	return nil
}

// bufferRegion returns the memory for a buffer of size bytes: the fixed
// fast region, or a fresh general allocation. fresh reports the latter;
// the caller owns a fresh region until it replaces s.region.
func (s *Stream) bufferRegion(size int) (region hw.Region, fresh bool, err error) {
	if s.grant.Pool == arbiter.PoolFast {
		return s.plat.FastRegion(), false, nil
	}

	region, err = s.plat.Allocate(size)
	if err != nil {
		return hw.Region{}, false, err
	}
	return region, true, nil
}

func (s *Stream) release(region hw.Region) {
	if region.Mem == nil {
		return
	}
	if err := s.plat.Free(region); err != nil {
		s.log.Warn("failed to free general region", "phys", fmt.Sprintf("%#x", region.Phys), "error", err)
	}
}

func (s *Stream) freeRegion() {
	s.release(s.region)
	s.region = hw.Region{}
}

// HWFree releases what HWParams bound.
func (s *Stream) HWFree() error {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateOpened, StateHWParamsSet, StatePrepared, StateStopped:
	default:
		return s.invalid("hw_free")
	}

	s.ring.Unbind()
	s.freeRegion()
	s.state = StateOpened
	return nil
}

// Prepare programs the one-time hardware configuration. Once done it is
// not repeated until Close, so calling Prepare again is cheap.
func (s *Stream) Prepare() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateHWParamsSet, StatePrepared, StateStopped:
	default:
		return s.invalid("prepare")
	}

	if !s.session.Prepared {
		if err := s.configure(); err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		s.session.Prepared = true
		s.log.Debug("stream prepared", "hd_output", s.hdOutput)
	}

	s.state = StatePrepared
	return nil
}

func (s *Stream) configure() error {
	p := s.session.Params

	fetch, outFormat := hw.FetchFormat16Bit, hw.OutputFormat16Bit
	if p.Width == 32 {
		fetch, outFormat = hw.FetchFormat32Bit, hw.OutputFormat24Bit
	}
	s.plat.Write(hw.RegMemIfFormat, fetch, hw.MaskAll)

	seen := make(map[hw.Output]bool)
	for _, r := range s.profile.HWRoutes() {
		if seen[r.Out] {
			continue
		}
		seen[r.Out] = true
		if err := s.plat.SetOutputFormat(r.Out, outFormat); err != nil {
			return fmt.Errorf("output %s format: %w", r.Out, err)
		}
	}

	i2s := i2sRateCodes[p.Rate]<<hw.I2SRateShift | hw.I2SFormatI2S | hw.I2SWordLen32 | hw.I2SEnable
	if s.hdOutput {
		enabled, err := s.enableClocks([]hw.Clock{hw.ClockAPLL, hw.ClockAPLLTuner, hw.ClockI2SDiv2, hw.ClockI2SDiv4})
		if err != nil {
			return err
		}
		s.hdClocks = enabled
		i2s |= hw.I2SLowJitterMode
	}
	s.plat.Write(hw.RegI2SCon, i2s, hw.MaskAll)
	s.plat.Write(hw.RegMemPathEnable, hw.PathI2SOut|hw.PathDAC, hw.PathI2SOut|hw.PathDAC)

	s.plat.Write(hw.RegIRQ1Counter, uint32(p.Quantum()), hw.MaskAll)
	s.plat.Write(hw.RegIRQ1SampleRate, uint32(p.Rate), hw.MaskAll)
	s.plat.Write(hw.RegAFEEnable, 1, 1)
	return nil
}

// Trigger starts or stops the DMA. Resume behaves like start and suspend
// like stop.
func (s *Stream) Trigger(cmd Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd {
	case TriggerStart, TriggerResume:
		if s.state != StatePrepared && s.state != StateStopped {
			return s.invalid("trigger " + cmd.String())
		}
		if err := s.start(); err != nil {
			return err
		}
	case TriggerStop, TriggerSuspend:
		if s.state != StateRunning {
			return s.invalid("trigger " + cmd.String())
		}
		s.stop()
	default:
		return fmt.Errorf("%w: %d", ErrInvalidTrigger, int(cmd))
	}

	s.log.Debug("stream triggered", "cmd", cmd.String(), "state", s.state.String())
	return nil
}

func (s *Stream) start() error {
	p := s.session.Params

	var errs []error
	for _, r := range s.profile.HWRoutes() {
		if err := s.plat.Connect(r.In, r.Out); err != nil {
			errs = append(errs, fmt.Errorf("connect %s: %w", r, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.disconnect()
		return err
	}

	// Stop clears the ring back to offset zero; re-latching the base puts
	// the DMA read pointer there too.
	st := s.ring.Stats()
	s.plat.Write(hw.RegDL1Base, st.Base, hw.MaskAll)
	s.plat.Write(hw.RegDL1End, st.Base+uint32(st.Capacity)-1, hw.MaskAll)

	s.plat.Write(hw.RegIRQEnable, hw.IRQ1, hw.IRQ1)
	s.plat.Write(hw.RegDL1Rate, uint32(p.Rate), hw.MaskAll)
	s.plat.Write(hw.RegDL1Channels, uint32(p.Channels), hw.MaskAll)
	s.plat.Write(hw.RegMemPathEnable, hw.PathDL1, hw.PathDL1)
	s.plat.Write(hw.RegAFEEnable, 1, 1)

	s.ring.MarkFrameSync()
	s.state = StateRunning
	return nil
}

// stop halts the DMA first so consumption signaling ends before the
// accounting is dropped.
func (s *Stream) stop() {
	s.plat.Write(hw.RegIRQEnable, 0, hw.IRQ1)
	s.plat.Write(hw.RegMemPathEnable, 0, hw.PathDL1)
	s.disconnect()
	s.ring.Clear()
	s.state = StateStopped
}

func (s *Stream) disconnect() {
	for _, r := range s.profile.HWRoutes() {
		if err := s.plat.Disconnect(r.In, r.Out); err != nil {
			s.log.Warn("disconnect failed", "route", r.String(), "error", err)
		}
	}
}

// Close tears down everything Open, HWParams and Prepare set up. Closing
// a closed stream does nothing.
func (s *Stream) Close() error {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	if s.state == StateRunning {
		s.stop()
	}

	if s.session.Prepared {
		s.plat.Write(hw.RegMemPathEnable, 0, hw.PathI2SOut|hw.PathDAC)
		s.plat.Write(hw.RegI2SCon, 0, hw.I2SEnable)
		s.plat.Write(hw.RegAFEEnable, 0, 1)
		s.disableClocks(s.hdClocks)
		s.hdClocks = nil
		s.session.Prepared = false
	}

	s.disableClocks(s.clocks)
	s.clocks = nil

	s.arb.Release(s.grant)
	s.ring.Unbind()
	s.freeRegion()
	s.metrics.released()

	s.log.Debug("stream closed", "pool", s.grant.Pool.String())

	s.grant = arbiter.Grant{}
	s.maxBytes = 0
	s.session = Session{}
	s.state = StateClosed
	s.log = s.base
	return nil
}
