// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
)

// mockSource is a test helper that produces S16_LE frames.
// Every sample of frame i on channel c has the value waveform(i, c).
type mockSource struct {
	format      Format
	totalFrames int
	generated   int
	waveform    func(frame int, channel int) int16
}

func newMockSource(sampleRate, channels, totalFrames int, waveform func(frame int, channel int) int16) *mockSource {
	return &mockSource{
		format:      Format{SampleRate: sampleRate, Channels: channels, BitDepth: 16},
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

// newSilentSource creates a mock source that generates silence (all zeros).
func newSilentSource(sampleRate, channels, totalFrames int) *mockSource {
	return newMockSource(sampleRate, channels, totalFrames, func(frame int, channel int) int16 {
		return 0
	})
}

func (m *mockSource) Format() Format { return m.format }
func (m *mockSource) Close() error   { return nil }

func (m *mockSource) Read(p []byte) (int, error) {
	if m.generated >= m.totalFrames {
		return 0, io.EOF
	}

	frames := min(m.format.BytesToFrames(len(p)), m.totalFrames-m.generated)
	samples := make([]int, 0, frames*m.format.Channels)
	for f := range frames {
		for c := range m.format.Channels {
			samples = append(samples, int(m.waveform(m.generated+f, c)))
		}
	}
	n := PutInts(p, samples, 16, 16)
	m.generated += frames

	if m.generated >= m.totalFrames {
		return n, io.EOF
	}
	return n, nil
}
