// SPDX-License-Identifier: EPL-2.0

package pcmdl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/pcmdl/audio"
	"github.com/ik5/pcmdl/internal/audiotest"
)

// fakeSink accepts at most perCall bytes per Copy and refuses every
// stallEvery-th call, so Feed has to retry.
type fakeSink struct {
	mu         sync.Mutex
	format     audio.Format
	align      int
	perCall    int
	stallEvery int
	calls      int
	err        error
	got        bytes.Buffer
}

func (s *fakeSink) Format() audio.Format { return s.format }
func (s *fakeSink) Alignment() int       { return s.align }

func (s *fakeSink) Copy(src io.ReaderAt, frames int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	if s.stallEvery > 0 && s.calls%s.stallEvery == 0 {
		return 0, nil
	}

	fb := s.format.FrameBytes()
	n := min(frames*fb, s.perCall)
	n -= n % s.align
	if n <= 0 {
		return 0, nil
	}
	buf := make([]byte, n)
	if _, err := src.ReadAt(buf, 0); err != nil {
		return 0, err
	}
	s.got.Write(buf)
	return n / fb, nil
}

var s16Stereo = audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16}

func sourceBytes(t *testing.T, src *audiotest.MockSource) []byte {
	t.Helper()

	var (
		data []byte
		buf  = make([]byte, 4096)
	)
	for {
		n, err := src.Read(buf)
		data = append(data, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}
	src.Reset()
	return data
}

func TestFeed_DeliversEverything(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		frames      int
		chunkFrames int
		perCall     int
		stallEvery  int
	}{
		{"aligned", 4096, 1024, 4096, 0},
		{"small sink", 4096, 1024, 640, 0},
		{"stalling sink", 3000, 256, 1024, 3},
		{"default chunk", 2500, 0, 1 << 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewSineSource(48000, 2, tt.frames, 440)
			want := sourceBytes(t, src)

			sink := &fakeSink{format: s16Stereo, align: 64, perCall: tt.perCall, stallEvery: tt.stallEvery}
			f := Feeder{PollInterval: time.Microsecond}

			n, err := f.Feed(context.Background(), sink, src, tt.chunkFrames)
			require.NoError(t, err)
			assert.EqualValues(t, len(want), n)

			got := sink.got.Bytes()
			require.GreaterOrEqual(t, len(got), len(want))
			assert.Equal(t, want, got[:len(want)])
			assert.Equal(t, make([]byte, len(got)-len(want)), got[len(want):], "padding is silence")
			assert.Zero(t, len(got)%64)
		})
	}
}

func TestFeed_FormatMismatch(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(44100, 2, 100)
	sink := &fakeSink{format: s16Stereo, align: 64, perCall: 1024}

	n, err := Feed(context.Background(), sink, src, 128)
	assert.ErrorIs(t, err, ErrFormatMismatch)
	assert.Zero(t, n)
	assert.Zero(t, sink.calls)
}

func TestFeed_ContextCancelledWhileFull(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(48000, 2, 1000)
	sink := &fakeSink{format: s16Stereo, align: 64, perCall: 0}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	n, err := Feeder{PollInterval: time.Millisecond}.Feed(ctx, sink, src, 128)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, n)
	assert.Greater(t, sink.calls, 1)
}

func TestFeed_SourceError(t *testing.T) {
	t.Parallel()

	src := audiotest.NewFailingSource(s16Stereo)
	sink := &fakeSink{format: s16Stereo, align: 64, perCall: 1024}

	_, err := Feed(context.Background(), sink, src, 128)
	assert.ErrorIs(t, err, audiotest.ErrInjected)
}

func TestFeed_SinkError(t *testing.T) {
	t.Parallel()

	boom := errors.New("ring gone")
	src := audiotest.NewSilentSource(48000, 2, 1000)
	sink := &fakeSink{format: s16Stereo, align: 64, perCall: 1024, err: boom}

	_, err := Feed(context.Background(), sink, src, 128)
	assert.ErrorIs(t, err, boom)
}

func TestLCM(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 64, lcm(4, 64))
	assert.Equal(t, 192, lcm(6, 64))
	assert.Equal(t, 64, lcm(64, 1))
}
