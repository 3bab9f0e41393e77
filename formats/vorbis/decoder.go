// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/pcmdl/audio"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

// source converts the decoder's float samples to S16_LE.
type source struct {
	dec    oggReader
	format audio.Format
	floats []float32
	// samples decoded but not yet returned because they did not fill a frame
	carry []float32
}

func (s *source) Format() audio.Format { return s.format }
func (s *source) Close() error         { return nil }

func (s *source) Read(p []byte) (int, error) {
	frames := s.format.BytesToFrames(len(p))
	if frames == 0 {
		return 0, nil
	}
	want := frames * s.format.Channels

	if cap(s.floats) < want {
		s.floats = make([]float32, want)
	}
	buf := s.floats[:want]

	have := copy(buf, s.carry)
	s.carry = s.carry[have:]

	var err error
	for have < want && err == nil {
		var n int
		// Read returns a count of sample values, not frames
		n, err = s.dec.Read(buf[have:])
		have += n
	}

	whole := have - have%s.format.Channels
	if whole < have {
		s.carry = append(s.carry, buf[whole:have]...)
	}
	written := audio.PutFloat32S16(p, buf[:whole])

	switch {
	case err == nil:
		return written, nil
	case err == io.EOF:
		return written, io.EOF
	}
	return written, fmt.Errorf("%w", err)
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(dec), nil
}

func newSource(dec oggReader) *source {
	return &source{
		dec: dec,
		format: audio.Format{
			SampleRate: dec.SampleRate(),
			Channels:   dec.Channels(),
			BitDepth:   16,
		},
	}
}
