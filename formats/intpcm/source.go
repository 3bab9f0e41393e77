// SPDX-License-Identifier: EPL-2.0

// Package intpcm adapts go-audio integer decoders to audio.Source.
package intpcm

import (
	"io"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/pcmdl/audio"
)

// Reader is the part of the go-audio wav and aiff decoders that Source uses.
type Reader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source turns integer samples into little-endian PCM bytes in a 16-bit or
// 32-bit container, depending on the decoded bit depth.
type Source struct {
	dec     Reader
	format  audio.Format
	srcBits int
	intBuf  *goaudio.IntBuffer
}

// New wraps dec. srcBits is the bit depth of the decoded samples.
func New(dec Reader, sampleRate, channels, srcBits int) *Source {
	return &Source{
		dec: dec,
		format: audio.Format{
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   audio.ContainerBits(srcBits),
		},
		srcBits: srcBits,
	}
}

func (s *Source) Format() audio.Format { return s.format }
func (s *Source) Close() error         { return nil }

func (s *Source) Read(p []byte) (int, error) {
	frames := s.format.BytesToFrames(len(p))
	if frames == 0 {
		return 0, nil
	}
	samples := frames * s.format.Channels

	if s.intBuf == nil || cap(s.intBuf.Data) < samples {
		s.intBuf = &goaudio.IntBuffer{
			Data: make([]int, samples),
			Format: &goaudio.Format{
				NumChannels: s.format.Channels,
				SampleRate:  s.format.SampleRate,
			},
			SourceBitDepth: s.srcBits,
		}
	}
	s.intBuf.Data = s.intBuf.Data[:samples]

	n, err := s.dec.PCMBuffer(s.intBuf)
	n -= n % s.format.Channels
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, err
		}
		return 0, io.EOF
	}

	w := audio.PutInts(p, s.intBuf.Data[:n], s.srcBits, s.format.BitDepth)

	// a short read with no error means the decoder ran dry
	if err == io.EOF || (err == nil && n < samples) {
		return w, io.EOF
	}
	if err != nil {
		return w, err
	}
	return w, nil
}
