// SPDX-License-Identifier: EPL-2.0

package stream

import "slices"

// codecClocks lists, per sample rate, the master clocks the external codec
// has divider settings for.
var codecClocks = map[int][]int{
	8000:  {12_000_000, 24_000_000, 25_000_000},
	11025: {12_000_000, 24_000_000},
	16000: {12_000_000, 24_000_000, 25_000_000},
	22050: {12_000_000, 24_000_000, 25_000_000},
	32000: {12_000_000, 24_000_000},
	44100: {12_000_000, 24_000_000, 25_000_000},
	48000: {9_600_000, 12_000_000, 24_000_000, 24_576_000, 25_000_000},
}

// CodecSupports reports whether the codec can run rate from mclk.
func CodecSupports(mclk, rate int) bool {
	return slices.Contains(codecClocks[rate], mclk)
}

// i2sRateCodes is the rate field of the I2S control register.
var i2sRateCodes = map[int]uint32{
	8000:  0,
	11025: 1,
	12000: 2,
	16000: 4,
	22050: 5,
	24000: 6,
	32000: 8,
	44100: 9,
	48000: 10,
}
