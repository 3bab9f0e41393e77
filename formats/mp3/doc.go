// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 files with github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces interleaved stereo S16_LE at the file's sample
// rate, so every Source returned by Decoder reports 2 channels and 16 bits
// regardless of how the file was encoded. Reads return whole frames only.
//
//	src, err := mp3.Decoder{}.Decode(file)
//	buf := make([]byte, src.Format().FramesToBytes(1152))
//	n, err := src.Read(buf)
package mp3
