// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"encoding/binary"

	"github.com/ik5/pcmdl/utils"
)

// PutFloat32S16 encodes float samples in [-1,1] as S16_LE into dst and
// returns the number of bytes written. dst must hold 2*len(src) bytes.
func PutFloat32S16(dst []byte, src []float32) int {
	for i, x := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(utils.Float32ToInt16(x)))
	}
	return 2 * len(src)
}

// PutInts encodes integer samples of srcBits width into dst as
// little-endian samples of dstBits width (16 or 32), shifting to keep the
// samples MSB-aligned. It returns the number of bytes written.
func PutInts(dst []byte, src []int, srcBits, dstBits int) int {
	shift := dstBits - srcBits

	switch dstBits {
	case 16:
		for i, v := range src {
			binary.LittleEndian.PutUint16(dst[2*i:], uint16(int16(shiftSample(v, shift))))
		}
		return 2 * len(src)
	case 32:
		for i, v := range src {
			binary.LittleEndian.PutUint32(dst[4*i:], uint32(int32(shiftSample(v, shift))))
		}
		return 4 * len(src)
	}
	return 0
}

func shiftSample(v, shift int) int {
	switch {
	case shift > 0:
		return v << shift
	case shift < 0:
		return v >> -shift
	}
	return v
}

// ContainerBits is the PCM container width used for a decoded bit depth:
// 16 for anything up to 16 bits, 32 above.
func ContainerBits(bitDepth int) int {
	if bitDepth <= 16 {
		return 16
	}
	return 32
}
