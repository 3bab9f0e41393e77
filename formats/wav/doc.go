// SPDX-License-Identifier: EPL-2.0

// Package wav decodes WAV files into PCM bytes and records PCM back into
// WAV files, both on top of github.com/go-audio/wav.
//
// # Decoding
//
//	src, err := wav.Decoder{}.Decode(file)
//	if err != nil {
//	    // ErrNotWavFile, ErrOnlyPCMSupported, ...
//	}
//	buf := make([]byte, src.Format().FramesToBytes(1024))
//	n, err := src.Read(buf)
//
// Integer PCM of 8, 16, 24 and 32 bits is accepted. Samples up to 16 bits
// come out as S16_LE, wider samples as MSB-aligned S32_LE.
//
// # Capture
//
// Capture is the inverse: it takes the bytes a playback path consumed and
// writes them to a seekable destination, finalizing the header on Close.
//
//	c, _ := wav.NewCapture(out, format)
//	c.Write(pcm)
//	c.Close()
package wav
