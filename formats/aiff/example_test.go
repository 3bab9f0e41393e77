// SPDX-License-Identifier: EPL-2.0

package aiff_test

import (
	"bytes"
	"fmt"

	goaiff "github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/pcmdl/formats/aiff"
	"github.com/ik5/pcmdl/internal/audiotest"
)

// Example decodes a 24-bit AIFF file; the samples come out in 32-bit
// containers, ready for a 32-bit playback stream.
func Example() {
	var file audiotest.SeekBuffer
	enc := goaiff.NewEncoder(&file, 48000, 24, 2)
	_ = enc.Write(&goaudio.IntBuffer{
		Data:           []int{1 << 20, -(1 << 20), 0, 0},
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 48000},
		SourceBitDepth: 24,
	})
	_ = enc.Close()

	src, err := aiff.Decoder{}.Decode(bytes.NewReader(file.Bytes()))
	if err != nil {
		fmt.Println("decode:", err)
		return
	}
	defer src.Close()

	buf := make([]byte, 64)
	n, _ := src.Read(buf)
	fmt.Println(src.Format(), n/src.Format().FrameBytes(), "frames")
	// Output: 48000Hz/2ch/S32_LE 2 frames
}
