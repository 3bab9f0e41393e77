// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/pcmdl/audio"
)

// go-mp3 always emits interleaved stereo S16_LE.
const (
	outChannels = 2
	outBits     = 16
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec    mp3Reader
	format audio.Format
}

func (s *source) Format() audio.Format { return s.format }
func (s *source) Close() error         { return nil }

func (s *source) Read(p []byte) (int, error) {
	want := s.format.FramesToBytes(s.format.BytesToFrames(len(p)))
	if want == 0 {
		return 0, nil
	}

	// go-mp3 may return partial frames; keep reading until whole frames
	n, err := io.ReadFull(s.dec, p[:want])
	switch err {
	case nil:
		return n, nil
	case io.EOF, io.ErrUnexpectedEOF:
		n -= n % s.format.FrameBytes()
		return n, io.EOF
	}
	return n - n%s.format.FrameBytes(), fmt.Errorf("%w", err)
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(dec), nil
}

func newSource(dec mp3Reader) *source {
	return &source{
		dec: dec,
		format: audio.Format{
			SampleRate: dec.SampleRate(),
			Channels:   outChannels,
			BitDepth:   outBits,
		},
	}
}
