// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/ik5/pcmdl/audio"
)

// MockSource is a test helper that generates PCM frames. It implements
// audio.Source for 16-bit and 32-bit containers.
type MockSource struct {
	format      audio.Format
	totalFrames int
	generated   int
	waveform    func(frame int, channel int) float32
	closed      bool
}

// NewMockSource creates a new mock audio source.
// totalFrames is the number of frames to generate.
// waveform returns a sample in [-1,1] for a frame index and channel.
func NewMockSource(format audio.Format, totalFrames int, waveform func(frame int, channel int) float32) *MockSource {
	return &MockSource{
		format:      format,
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

// NewSilentSource creates a 16-bit mock source that generates silence.
func NewSilentSource(sampleRate, channels, totalFrames int) *MockSource {
	return NewMockSource(audio.Format{SampleRate: sampleRate, Channels: channels, BitDepth: 16}, totalFrames,
		func(frame int, channel int) float32 {
			return 0.0
		})
}

// NewSineSource creates a 16-bit mock source that generates a sine wave.
func NewSineSource(sampleRate, channels, totalFrames int, frequency float64) *MockSource {
	return NewMockSource(audio.Format{SampleRate: sampleRate, Channels: channels, BitDepth: 16}, totalFrames,
		func(frame int, channel int) float32 {
			t := float64(frame) / float64(sampleRate)
			return float32(math.Sin(2 * math.Pi * frequency * t))
		})
}

// NewConstantSource creates a 16-bit mock source with a constant value.
func NewConstantSource(sampleRate, channels, totalFrames int, value float32) *MockSource {
	return NewMockSource(audio.Format{SampleRate: sampleRate, Channels: channels, BitDepth: 16}, totalFrames,
		func(frame int, channel int) float32 {
			return value
		})
}

func (m *MockSource) Format() audio.Format { return m.format }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Reset rewinds the source.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) Read(p []byte) (int, error) {
	if m.generated >= m.totalFrames {
		return 0, io.EOF
	}

	frames := min(m.format.BytesToFrames(len(p)), m.totalFrames-m.generated)
	sb := m.format.SampleBytes()
	off := 0
	for f := range frames {
		for ch := range m.format.Channels {
			x := m.waveform(m.generated+f, ch)
			switch sb {
			case 2:
				binary.LittleEndian.PutUint16(p[off:], uint16(int16(clamp(x)*math.MaxInt16)))
			case 4:
				binary.LittleEndian.PutUint32(p[off:], uint32(int32(float64(clamp(x))*math.MaxInt32)))
			}
			off += sb
		}
	}

	m.generated += frames
	if m.generated >= m.totalFrames {
		return off, io.EOF
	}
	return off, nil
}

func clamp(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// ErrInjected is returned by FailingSource and FaultyReaderAt.
var ErrInjected = errors.New("injected failure")

// FailingSource returns ErrInjected from its first Read.
type FailingSource struct {
	format audio.Format
}

// NewFailingSource creates a source whose reads always fail.
func NewFailingSource(format audio.Format) *FailingSource {
	return &FailingSource{format: format}
}

func (f *FailingSource) Format() audio.Format       { return f.format }
func (f *FailingSource) Close() error               { return nil }
func (f *FailingSource) Read(p []byte) (int, error) { return 0, ErrInjected }

// FaultyReaderAt serves data but fails any read that overlaps the
// [faultOff, faultOff+faultLen) byte range, standing in for producer
// memory that is not readable.
type FaultyReaderAt struct {
	data     []byte
	faultOff int64
	faultLen int64
}

// NewFaultyReaderAt creates a reader over data with an unreadable range.
func NewFaultyReaderAt(data []byte, faultOff, faultLen int) *FaultyReaderAt {
	return &FaultyReaderAt{data: data, faultOff: int64(faultOff), faultLen: int64(faultLen)}
}

func (r *FaultyReaderAt) ReadAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if off < r.faultOff+r.faultLen && end > r.faultOff {
		return 0, ErrInjected
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
