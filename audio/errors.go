// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidFormat       = errors.New("invalid PCM format")
	ErrUnsupportedBitDepth = errors.New("unsupported PCM bit depth")
	ErrUnknownFormat       = errors.New("no decoder for file format")
)
