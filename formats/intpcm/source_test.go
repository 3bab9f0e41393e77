// SPDX-License-Identifier: EPL-2.0

package intpcm

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"

	goaudio "github.com/go-audio/audio"
)

type mockReader struct {
	samples []int
	offset  int
	err     error
}

func (m *mockReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := copy(buf.Data, m.samples[m.offset:])
	m.offset += n
	return n, nil
}

func TestSource_16Bit(t *testing.T) {
	t.Parallel()

	src := New(&mockReader{samples: []int{1, -1, 300, -300}}, 48000, 2, 16)
	if src.Format().BitDepth != 16 {
		t.Fatalf("BitDepth = %d, want 16", src.Format().BitDepth)
	}

	buf := make([]byte, 8)
	n, err := src.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != 8 {
		t.Fatalf("Read() n = %d, want 8", n)
	}
	if got := int16(binary.LittleEndian.Uint16(buf[6:])); got != -300 {
		t.Errorf("last sample = %d, want -300", got)
	}

	n, err = src.Read(buf)
	if n != 0 || err != io.EOF {
		t.Errorf("Read() at end = %d, %v, want 0, EOF", n, err)
	}
}

func TestSource_24BitUses32BitContainer(t *testing.T) {
	t.Parallel()

	src := New(&mockReader{samples: []int{1, 2}}, 44100, 1, 24)
	if src.Format().BitDepth != 32 {
		t.Fatalf("BitDepth = %d, want 32", src.Format().BitDepth)
	}

	buf := make([]byte, 16)
	n, err := src.Read(buf)
	if err != io.EOF {
		t.Fatalf("short Read() error = %v, want io.EOF", err)
	}
	if n != 8 {
		t.Fatalf("Read() n = %d, want 8", n)
	}
	if got := int32(binary.LittleEndian.Uint32(buf[4:])); got != 2<<8 {
		t.Errorf("sample = %d, want %d", got, 2<<8)
	}
}

func TestSource_DropsPartialFrame(t *testing.T) {
	t.Parallel()

	src := New(&mockReader{samples: []int{1, 2, 3}}, 8000, 2, 16)
	buf := make([]byte, 16)

	n, err := src.Read(buf)
	if err != io.EOF {
		t.Fatalf("Read() error = %v, want io.EOF", err)
	}
	if n != 4 {
		t.Errorf("Read() n = %d, want 4", n)
	}
}

func TestSource_DecoderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := New(&mockReader{err: boom}, 8000, 1, 16)

	_, err := src.Read(make([]byte, 4))
	if !errors.Is(err, boom) {
		t.Errorf("Read() error = %v, want boom", err)
	}
}

func TestSource_TinyBuffer(t *testing.T) {
	t.Parallel()

	src := New(&mockReader{samples: []int{1, 2}}, 8000, 2, 16)
	n, err := src.Read(make([]byte, 3))
	if n != 0 || err != nil {
		t.Errorf("Read() into sub-frame buffer = %d, %v, want 0, nil", n, err)
	}
}
