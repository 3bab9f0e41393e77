// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF (Audio Interchange File Format) files into
// little-endian PCM bytes using github.com/go-audio/aiff.
//
// AIFF stores big-endian samples; the decoder converts them to the
// little-endian layout the playback path expects. 8-bit and 16-bit files
// decode to S16_LE, 24-bit and 32-bit files to MSB-aligned S32_LE.
//
//	src, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // not an AIFF
//	}
//
// Compressed AIFF-C is not supported.
package aiff
