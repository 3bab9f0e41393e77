// SPDX-License-Identifier: EPL-2.0

package utils

// AlignDown rounds n down to a multiple of quantum.
// A non-positive quantum leaves n unchanged.
func AlignDown(n, quantum int) int {
	if quantum <= 0 {
		return n
	}
	return n - n%quantum
}

// IsAligned reports whether n is a multiple of quantum.
func IsAligned(n, quantum int) bool {
	if quantum <= 0 {
		return true
	}
	return n%quantum == 0
}

// WrapDistance returns how far to is ahead of from on a circle of the
// given size, i.e. (to - from) mod size, always in [0, size).
func WrapDistance(from, to, size int) int {
	if size <= 0 {
		return 0
	}
	d := (to - from) % size
	if d < 0 {
		d += size
	}
	return d
}
