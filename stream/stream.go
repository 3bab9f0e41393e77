// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ik5/pcmdl/arbiter"
	"github.com/ik5/pcmdl/audio"
	"github.com/ik5/pcmdl/config"
	"github.com/ik5/pcmdl/hw"
	"github.com/ik5/pcmdl/observer"
	"github.com/ik5/pcmdl/ring"
)

// State is the lifecycle position of a Stream.
type State int

const (
	StateClosed State = iota
	StateOpened
	StateHWParamsSet
	StatePrepared
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpened:
		return "opened"
	case StateHWParamsSet:
		return "hw_params_set"
	case StatePrepared:
		return "prepared"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Trigger is a command for Stream.Trigger.
type Trigger int

const (
	TriggerStart Trigger = iota
	TriggerStop
	TriggerResume
	TriggerSuspend
)

func (t Trigger) String() string {
	switch t {
	case TriggerStart:
		return "start"
	case TriggerStop:
		return "stop"
	case TriggerResume:
		return "resume"
	case TriggerSuspend:
		return "suspend"
	}
	return fmt.Sprintf("Trigger(%d)", int(t))
}

// Params are the hardware parameters negotiated by the framework.
type Params struct {
	Rate     int
	Channels int
	// Width is the sample container in bits, 16 or 32.
	Width int
	// PeriodFrames is the interrupt period. Zero selects a quarter of the
	// buffer.
	PeriodFrames int
	BufferBytes  int
}

// FrameBytes is the size of one interleaved frame.
func (p Params) FrameBytes() int { return p.Channels * p.Width / 8 }

// Quantum is the interrupt period in frames.
func (p Params) Quantum() int {
	if p.PeriodFrames > 0 {
		return p.PeriodFrames
	}
	if fb := p.FrameBytes(); fb > 0 {
		return p.BufferBytes / fb / 4
	}
	return 0
}

// Format is the PCM layout the stream expects from its producer.
func (p Params) Format() audio.Format {
	return audio.Format{SampleRate: p.Rate, Channels: p.Channels, BitDepth: p.Width}
}

// Session is the per open/close state.
type Session struct {
	ID       string
	Params   Params
	Prepared bool
	Pool     arbiter.Pool
}

// Config wires a Stream to its collaborators.
type Config struct {
	Platform hw.Platform
	Arbiter  *arbiter.Arbiter
	// Profile defaults to config.Default.
	Profile *config.Platform
	Logger  *slog.Logger
	Metrics *Metrics
}

// Stream is the DL1 playback path. Lifecycle calls are serialized by the
// stream; Pointer, Timestamp and Copy may run concurrently with them, and
// calls that rebind the ring wait for a Copy in progress.
type Stream struct {
	// copyMu is held by Copy and Write, and taken before mu by the calls
	// that rebind or release the ring.
	copyMu sync.Mutex
	mu     sync.Mutex

	plat    hw.Platform
	arb     *arbiter.Arbiter
	profile *config.Platform
	base    *slog.Logger
	log     *slog.Logger // base plus the session ID
	metrics *Metrics

	ring *ring.Buffer
	obs  *observer.Observer
	est  observer.Estimator

	state    State
	session  Session
	grant    arbiter.Grant
	region   hw.Region // general pool allocation, zero for the fast pool
	clocks   []hw.Clock
	hdClocks []hw.Clock
	hdOutput bool
	maxBytes int
}

// New validates cfg and returns a closed stream.
func New(cfg Config) (*Stream, error) {
	if cfg.Platform == nil {
		return nil, errors.New("stream: nil platform")
	}
	if cfg.Arbiter == nil {
		return nil, errors.New("stream: nil arbiter")
	}

	profile := cfg.Profile
	if profile == nil {
		profile = config.Default()
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("component", "dl1_stream")

	return &Stream{
		plat:    cfg.Platform,
		arb:     cfg.Arbiter,
		profile: profile,
		base:    logger,
		log:     logger,
		metrics: cfg.Metrics,
		ring:    ring.New(profile.AlignmentBytes),
		obs:     observer.New(cfg.Platform),
		est: observer.Estimator{
			TickHz:        profile.TickHz,
			PrefetchBytes: int64(profile.PrefetchBytes),
		},
		hdOutput: profile.HDOutput,
	}, nil
}

// State returns the current lifecycle state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// SessionID is the ID minted by the last successful Open, empty when
// closed.
func (s *Stream) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session.ID
}

// Session returns a copy of the current session.
func (s *Stream) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session
}

// Format is the PCM layout set by HWParams.
func (s *Stream) Format() audio.Format {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session.Params.Format()
}

// MaxBufferBytes is the buffer size constraint installed by Open.
func (s *Stream) MaxBufferBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.maxBytes
}

// Ring exposes the playback ring for inspection.
func (s *Stream) Ring() *ring.Buffer { return s.ring }

// Alignment is the byte quantum the ring accepts writes in.
func (s *Stream) Alignment() int { return s.ring.Align() }

// SetHDOutput selects low-jitter APLL clocking. It takes effect at the
// next first-time Prepare.
func (s *Stream) SetHDOutput(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hdOutput = on
}

// HDOutput reports whether the low-jitter output clocking is selected.
func (s *Stream) HDOutput() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hdOutput
}

func (s *Stream) invalid(op string) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidState, op, s.state)
}
