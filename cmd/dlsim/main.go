// SPDX-License-Identifier: EPL-2.0

// Command dlsim plays an audio file through the DL1 playback engine on
// simulated hardware. It logs the hardware pointer and timestamps as the
// simulated DMA drains the ring and can record what the DMA fetched to a
// WAV file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ik5/pcmdl"
	"github.com/ik5/pcmdl/arbiter"
	"github.com/ik5/pcmdl/audio"
	"github.com/ik5/pcmdl/config"
	"github.com/ik5/pcmdl/formats/aiff"
	"github.com/ik5/pcmdl/formats/mp3"
	"github.com/ik5/pcmdl/formats/vorbis"
	"github.com/ik5/pcmdl/formats/wav"
	"github.com/ik5/pcmdl/hw/sim"
	"github.com/ik5/pcmdl/stream"
)

func main() {
	configPath := flag.String("config", "", "YAML platform profile (default: built in)")
	capturePath := flag.String("capture", "", "record the audio the DMA fetched to this WAV file")
	periodFrames := flag.Int("period", 0, "interrupt period in frames (0 = a quarter of the buffer)")
	bufferBytes := flag.Int("buffer", 16384, "ring size in bytes")
	chunkFrames := flag.Int("chunk", pcmdl.DefaultChunkFrames, "frames read from the file per copy")
	step := flag.Duration("step", 5*time.Millisecond, "simulated DMA step")
	statsEvery := flag.Duration("stats", 250*time.Millisecond, "interval between pointer/timestamp reports")
	hd := flag.Bool("hd", false, "use low-jitter APLL clocking")
	profileMode := flag.String("profile", "", "write a profile: cpu, mem or block")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: dlsim [flags] <input.{wav|mp3|ogg|aiff}>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	case "block":
		defer profile.Start(profile.BlockProfile, profile.ProfilePath(".")).Stop()
	default:
		log.Fatalf("invalid profile mode: %s (must be cpu, mem or block)", *profileMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		input:        flag.Arg(0),
		configPath:   *configPath,
		capturePath:  *capturePath,
		periodFrames: *periodFrames,
		bufferBytes:  *bufferBytes,
		chunkFrames:  *chunkFrames,
		step:         *step,
		statsEvery:   *statsEvery,
		hd:           *hd,
	}
	if err := run(ctx, logger, opts); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("playback failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	input        string
	configPath   string
	capturePath  string
	periodFrames int
	bufferBytes  int
	chunkFrames  int
	step         time.Duration
	statsEvery   time.Duration
	hd           bool
}

func decoders() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	return reg
}

func openSource(path string) (audio.Source, func() error, error) {
	dec, err := decoders().Lookup(path)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	src, err := dec.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return src, func() error {
		return errors.Join(src.Close(), f.Close())
	}, nil
}

func loadProfile(path string) (*config.Platform, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	profileCfg, err := loadProfile(opts.configPath)
	if err != nil {
		return err
	}

	src, closeSrc, err := openSource(opts.input)
	if err != nil {
		return err
	}
	defer closeSrc()

	format := src.Format()
	logger.Info("decoded input", "file", opts.input, "format", format.String())

	afe := sim.New(sim.Config{
		FastBase:    profileCfg.FastPool.Base,
		FastSize:    profileCfg.FastPool.Size,
		GeneralBase: profileCfg.GeneralPool.Base,
		TickHz:      profileCfg.TickHz,
		Logger:      logger,
	})

	if opts.capturePath != "" {
		out, err := os.Create(opts.capturePath)
		if err != nil {
			return err
		}
		defer out.Close()

		capture, err := wav.NewCapture(out, format)
		if err != nil {
			return err
		}
		defer func() {
			if err := capture.Close(); err != nil {
				logger.Warn("closing capture failed", "error", err)
				return
			}
			logger.Info("capture written", "file", opts.capturePath, "frames", capture.Frames())
		}()
		afe.SetSink(capture)
	}

	reg := prometheus.NewRegistry()
	metrics, err := stream.NewMetrics(reg)
	if err != nil {
		return err
	}

	s, err := stream.New(stream.Config{
		Platform: afe,
		Arbiter:  arbiter.New(profileCfg.FastPool.Size, profileCfg.GeneralPool.MaxBytes),
		Profile:  profileCfg,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.hd {
		s.SetHDOutput(true)
	}

	params := stream.Params{
		Rate:         format.SampleRate,
		Channels:     format.Channels,
		Width:        format.BitDepth,
		PeriodFrames: opts.periodFrames,
		BufferBytes:  opts.bufferBytes,
	}
	if err := s.Open(); err != nil {
		return err
	}
	if err := s.HWParams(params); err != nil {
		return err
	}
	if err := s.Prepare(); err != nil {
		return err
	}
	if err := s.Trigger(stream.TriggerStart); err != nil {
		return err
	}
	logger.Info("playback started", "session_id", s.SessionID(), "pool", s.Session().Pool.String())

	dmaCtx, stopDMA := context.WithCancel(ctx)
	dmaDone := make(chan struct{})
	go func() {
		defer close(dmaDone)
		runDMA(dmaCtx, logger, afe, s, opts.step, opts.statsEvery)
	}()

	fed, err := pcmdl.Feeder{Logger: logger}.Feed(ctx, s, src, opts.chunkFrames)
	if err == nil {
		err = waitDrained(ctx, s, opts.step)
	}
	stopDMA()
	<-dmaDone

	if terr := s.Trigger(stream.TriggerStop); terr != nil {
		logger.Warn("stop failed", "error", terr)
	}

	st := afe.Stats()
	logger.Info("playback finished",
		"fed_bytes", fed,
		"drained_bytes", st.DrainedBytes,
		"irqs", st.IRQs,
		"ticks", st.Tick)
	logMetrics(logger, reg)

	return err
}

// runDMA advances the simulated hardware in real time and reports the
// position at every statsEvery.
func runDMA(ctx context.Context, logger *slog.Logger, afe *sim.AFE, s *stream.Stream, step, statsEvery time.Duration) {
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	var (
		last    = time.Now()
		elapsed time.Duration
	)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			afe.Advance(now.Sub(last))
			elapsed += now.Sub(last)
			last = now

			pos, err := s.Pointer()
			if err != nil {
				logger.Warn("pointer failed", "error", err)
				continue
			}
			if statsEvery > 0 && elapsed >= statsEvery {
				elapsed = 0
				st := s.Ring().Stats()
				logger.Info("position",
					"frames", pos,
					"timestamp", s.GetTimestamp(),
					"pending_bytes", st.Pending)
			}
		}
	}
}

// waitDrained blocks until the hardware has fetched everything queued.
func waitDrained(ctx context.Context, s *stream.Stream, step time.Duration) error {
	for s.Ring().Stats().Pending > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(step):
		}
	}
	return nil
}

func logMetrics(logger *slog.Logger, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		logger.Warn("gathering metrics failed", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetCounter().GetValue() + m.GetGauge().GetValue()
			attrs := []any{"name", mf.GetName(), "value", value}
			for _, l := range m.GetLabel() {
				attrs = append(attrs, l.GetName(), l.GetValue())
			}
			logger.Info("metric", attrs...)
		}
	}
}
