// SPDX-License-Identifier: EPL-2.0

package pcmdl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ik5/pcmdl/audio"
	"github.com/ik5/pcmdl/utils"
)

const (
	// DefaultChunkFrames is the read size Feed uses when given none.
	DefaultChunkFrames = 1024
	// DefaultPollInterval is how long Feed waits when the ring is full.
	DefaultPollInterval = 2 * time.Millisecond
)

// ErrFormatMismatch is returned by Feed when the source PCM layout is not
// the one the sink was configured for. Feed does not convert.
var ErrFormatMismatch = errors.New("source format does not match sink")

// Sink is the playback side of Feed. *stream.Stream implements it.
type Sink interface {
	Format() audio.Format
	// Copy accepts up to frames frames from src without waiting and
	// returns how many it took.
	Copy(src io.ReaderAt, frames int) (int, error)
	// Alignment is the byte quantum Copy accepts data in.
	Alignment() int
}

// Feeder pumps a Source into a Sink. The zero value is ready to use.
type Feeder struct {
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Feed pumps src into dst with a zero Feeder.
func Feed(ctx context.Context, dst Sink, src audio.Source, chunkFrames int) (int64, error) {
	return Feeder{}.Feed(ctx, dst, src, chunkFrames)
}

// Feed reads src chunkFrames at a time and hands the PCM to dst, waiting
// for room whenever dst accepts less than it was offered. It returns the
// number of source bytes delivered once src reports io.EOF, or early with
// the context's error or the first read or copy error.
//
// A trailing piece shorter than the sink's alignment is padded with
// silence so it can be queued; the padding is not counted.
func (f Feeder) Feed(ctx context.Context, dst Sink, src audio.Source, chunkFrames int) (int64, error) {
	format := src.Format()
	if format != dst.Format() {
		return 0, fmt.Errorf("%w: source %s, sink %s", ErrFormatMismatch, format, dst.Format())
	}

	fb := format.FrameBytes()
	if fb <= 0 {
		return 0, fmt.Errorf("%w: %s", audio.ErrInvalidFormat, format)
	}
	unit := lcm(fb, max(dst.Alignment(), 1))

	if chunkFrames <= 0 {
		chunkFrames = DefaultChunkFrames
	}
	size := max(utils.AlignDown(chunkFrames*fb, unit), unit)

	// the tail of buf holds the unaligned carry from the previous read
	buf := make([]byte, size+unit)
	fill := 0

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, rerr := src.Read(buf[fill : fill+size])
		fill += n

		eof := errors.Is(rerr, io.EOF)
		if rerr != nil && !eof {
			return total, fmt.Errorf("read source: %w", rerr)
		}

		ready := utils.AlignDown(fill, unit)
		have := ready
		if eof && ready < fill {
			have = fill
			ready += unit
			clear(buf[fill:ready])
		}

		done, err := f.push(ctx, dst, buf[:ready], fb)
		total += int64(min(done, have))
		if err != nil {
			return total, err
		}

		if eof {
			f.logger().Debug("feed finished", "bytes", total, "format", format.String())
			return total, nil
		}
		fill = copy(buf, buf[ready:fill])
	}
}

// push offers p to dst until all of it is accepted.
func (f Feeder) push(ctx context.Context, dst Sink, p []byte, fb int) (int, error) {
	var (
		rd   bytes.Reader
		done int
	)
	for done < len(p) {
		rd.Reset(p[done:])
		frames, err := dst.Copy(&rd, (len(p)-done)/fb)
		done += frames * fb
		if err != nil {
			return done, fmt.Errorf("copy to sink: %w", err)
		}
		if frames > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return done, ctx.Err()
		case <-time.After(f.pollInterval()):
		}
	}
	return done, nil
}

func (f Feeder) pollInterval() time.Duration {
	if f.PollInterval > 0 {
		return f.PollInterval
	}
	return DefaultPollInterval
}

func (f Feeder) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

func lcm(a, b int) int {
	x, y := a, b
	for y != 0 {
		x, y = y, x%y
	}
	return a / x * b
}
