// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

// mockOggVorbisReader simulates the oggvorbis.Reader for testing. It
// returns at most limit values per call, which need not be whole frames.
type mockOggVorbisReader struct {
	sampleRate   int
	channels     int
	samples      []float32
	offset       int
	limit        int
	returnErrors bool
}

func (m *mockOggVorbisReader) SampleRate() int { return m.sampleRate }
func (m *mockOggVorbisReader) Channels() int   { return m.channels }

func (m *mockOggVorbisReader) Read(buf []float32) (int, error) {
	if m.returnErrors {
		return 0, io.ErrUnexpectedEOF
	}
	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}

	if m.limit > 0 && len(buf) > m.limit {
		buf = buf[:m.limit]
	}
	n := copy(buf, m.samples[m.offset:])
	m.offset += n

	return n, nil
}

func s16(b []byte, i int) int16 { return int16(binary.LittleEndian.Uint16(b[2*i:])) }

func TestSource_Format(t *testing.T) {
	t.Parallel()

	src := newSource(&mockOggVorbisReader{sampleRate: 22050, channels: 1})
	f := src.Format()
	if f.SampleRate != 22050 || f.Channels != 1 || f.BitDepth != 16 {
		t.Errorf("Format() = %v", f)
	}
}

func TestSource_Read(t *testing.T) {
	t.Parallel()

	mock := &mockOggVorbisReader{
		sampleRate: 48000,
		channels:   2,
		samples:    []float32{0, 1, -1, 0.5, -0.5, 0},
	}
	src := newSource(mock)

	buf := make([]byte, 64)
	n, err := src.Read(buf)
	if err != io.EOF {
		t.Fatalf("Read() error = %v, want io.EOF", err)
	}
	if n != 12 {
		t.Fatalf("Read() n = %d, want 12", n)
	}

	if s16(buf, 0) != 0 {
		t.Errorf("sample 0 = %d, want 0", s16(buf, 0))
	}
	if s16(buf, 1) != 32767 {
		t.Errorf("sample 1 = %d, want 32767", s16(buf, 1))
	}
	if s16(buf, 2) != -32767 {
		t.Errorf("sample 2 = %d, want -32767", s16(buf, 2))
	}
}

func TestSource_CarriesPartialFrame(t *testing.T) {
	t.Parallel()

	mock := &mockOggVorbisReader{
		sampleRate: 48000,
		channels:   2,
		samples:    []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
		limit:      3,
	}
	src := newSource(mock)

	// one frame per read; the decoder hands out 3 values at a time
	buf := make([]byte, 4)
	var total int
	for range 3 {
		n, err := src.Read(buf)
		if err != nil && err != io.EOF {
			t.Fatalf("Read() error = %v", err)
		}
		if n != 4 {
			t.Fatalf("Read() n = %d, want 4", n)
		}
		total += n
	}
	if total != 12 {
		t.Errorf("total = %d, want 12", total)
	}

	n, err := src.Read(buf)
	if n != 0 || err != io.EOF {
		t.Errorf("Read() at end = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestSource_DecoderError(t *testing.T) {
	t.Parallel()

	src := newSource(&mockOggVorbisReader{sampleRate: 8000, channels: 1, returnErrors: true})

	_, err := src.Read(make([]byte, 8))
	if err == nil || err == io.EOF {
		t.Errorf("Read() error = %v, want decoder error", err)
	}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	invalidData := []byte("This is not Ogg Vorbis data")

	_, err := Decoder{}.Decode(bytes.NewReader(invalidData))
	if err == nil {
		t.Error("Decode() error = nil, want error for invalid data")
	}
}

func TestDecoder_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte{}))
	if err == nil {
		t.Error("Decode() error = nil, want error for empty input")
	}
}
