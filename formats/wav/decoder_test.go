// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/pcmdl/audio"
	"github.com/ik5/pcmdl/internal/audiotest"
)

// buildWAV writes frames of 16-bit samples through Capture and returns the
// file bytes.
func buildWAV(t *testing.T, format audio.Format, samples []int16) []byte {
	t.Helper()

	var out audiotest.SeekBuffer
	c, err := NewCapture(&out, format)
	require.NoError(t, err)

	pcm := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(s))
	}
	_, err = c.Write(pcm)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	return out.Bytes()
}

func readAll(t *testing.T, src audio.Source, chunk int) []byte {
	t.Helper()

	var got []byte
	buf := make([]byte, chunk)
	for {
		n, err := src.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			return got
		}
		require.NoError(t, err)
	}
}

func TestDecoder_Decode(t *testing.T) {
	t.Parallel()

	format := audio.Format{SampleRate: 16000, Channels: 2, BitDepth: 16}
	samples := []int16{0, 1, -1, 1000, -1000, 32767, -32768, 42}
	data := buildWAV(t, format, samples)

	src, err := Decoder{}.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, format, src.Format())

	got := readAll(t, src, 12)
	require.Len(t, got, 2*len(samples))
	for i, want := range samples {
		assert.Equal(t, want, int16(binary.LittleEndian.Uint16(got[2*i:])), "sample %d", i)
	}
}

func TestDecoder_PlainReader(t *testing.T) {
	t.Parallel()

	format := audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 16}
	data := buildWAV(t, format, []int16{5, 6, 7, 8})

	// io.MultiReader hides Seek, forcing the in-memory path
	src, err := Decoder{}.Decode(io.MultiReader(bytes.NewReader(data)))
	require.NoError(t, err)

	got := readAll(t, src, 1024)
	assert.Len(t, got, 8)
}

func TestDecoder_NotWav(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("this is definitely not a riff file at all")))
	assert.ErrorIs(t, err, ErrNotWavFile)
}

func TestDecoder_ReadError(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(io.MultiReader(&failingReader{}))
	assert.ErrorIs(t, err, audiotest.ErrInjected)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, audiotest.ErrInjected }

func TestDecoder_NonPCM(t *testing.T) {
	t.Parallel()

	format := audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 16}
	data := buildWAV(t, format, []int16{1, 2})

	// fmt chunk audio format field: RIFF(12) + "fmt "(4) + size(4)
	binary.LittleEndian.PutUint16(data[20:], 3)

	_, err := Decoder{}.Decode(bytes.NewReader(data))
	if !errors.Is(err, ErrOnlyPCMSupported) {
		t.Errorf("Decode() error = %v, want ErrOnlyPCMSupported", err)
	}
}
