// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Format describes interleaved PCM.
type Format struct {
	SampleRate int
	Channels   int
	// BitDepth is the container width of one sample: 16 or 32.
	BitDepth int
}

// SampleBytes is the size of one sample of one channel.
func (f Format) SampleBytes() int { return f.BitDepth / 8 }

// FrameBytes is the size of one sample of every channel.
func (f Format) FrameBytes() int { return f.Channels * f.SampleBytes() }

// BytesToFrames converts a byte count to whole frames.
func (f Format) BytesToFrames(n int) int {
	fb := f.FrameBytes()
	if fb == 0 {
		return 0
	}
	return n / fb
}

// FramesToBytes converts a frame count to bytes.
func (f Format) FramesToBytes(n int) int { return n * f.FrameBytes() }

// Validate checks that the format can be carried by a PCM stream.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: %d channels", ErrInvalidFormat, f.Channels)
	}
	if f.BitDepth != 16 && f.BitDepth != 32 {
		return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, f.BitDepth)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/S%d_LE", f.SampleRate, f.Channels, f.BitDepth)
}
