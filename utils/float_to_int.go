// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 converts a float sample to S16. Input outside [-1, 1]
// clips; the scale is 32767 so both ends map symmetrically.
func Float32ToInt16(x float32) int16 {
	return int16(min(max(x, -1), 1) * 32767)
}
