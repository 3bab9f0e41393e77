// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/pcmdl/audio"
)

// Capture records little-endian PCM bytes into a WAV file. The header is
// finalized on Close, so the destination must be seekable.
type Capture struct {
	mu     sync.Mutex
	enc    *wav.Encoder
	format audio.Format
	buf    *goaudio.IntBuffer
	frames int64
	closed bool
}

// NewCapture starts a WAV file on w for PCM in the given format.
func NewCapture(w io.WriteSeeker, format audio.Format) (*Capture, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	return &Capture{
		enc:    wav.NewEncoder(w, format.SampleRate, format.BitDepth, format.Channels, wavFormatPCM),
		format: format,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: format.Channels,
				SampleRate:  format.SampleRate,
			},
			SourceBitDepth: format.BitDepth,
		},
	}, nil
}

func (c *Capture) Format() audio.Format { return c.format }

// Frames returns how many frames have been written so far.
func (c *Capture) Frames() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.frames
}

// Write appends whole frames from p. Trailing bytes that do not make up a
// full frame are ignored.
func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrCaptureClosed
	}

	frames := c.format.BytesToFrames(len(p))
	if frames == 0 {
		return 0, nil
	}
	samples := frames * c.format.Channels

	if cap(c.buf.Data) < samples {
		c.buf.Data = make([]int, samples)
	}
	c.buf.Data = c.buf.Data[:samples]

	switch c.format.BitDepth {
	case 16:
		for i := range samples {
			c.buf.Data[i] = int(int16(binary.LittleEndian.Uint16(p[2*i:])))
		}
	case 32:
		for i := range samples {
			c.buf.Data[i] = int(int32(binary.LittleEndian.Uint32(p[4*i:])))
		}
	}

	if err := c.enc.Write(c.buf); err != nil {
		return 0, fmt.Errorf("writing wav frames: %w", err)
	}
	c.frames += int64(frames)

	return c.format.FramesToBytes(frames), nil
}

// WriteFrom copies PCM from src until io.EOF. The source format must match.
func (c *Capture) WriteFrom(src audio.Source) (int64, error) {
	if src.Format() != c.format {
		return 0, fmt.Errorf("%w: %s != %s", ErrCaptureFormatMismatch, src.Format(), c.format)
	}

	buf := make([]byte, c.format.FramesToBytes(1024))
	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			w, werr := c.Write(buf[:n])
			total += int64(w)
			if werr != nil {
				return total, werr
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Close writes the final header sizes. It is safe to call more than once.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.enc.Close(); err != nil {
		return fmt.Errorf("closing wav capture: %w", err)
	}
	return nil
}
