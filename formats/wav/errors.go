// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile            = errors.New("not a WAV file")
	ErrUnsupportedWavLayout  = errors.New("unsupported WAV layout")
	ErrOnlyPCMSupported      = errors.New("only integer PCM WAV is supported")
	ErrUnsupportedBitDepth   = errors.New("unsupported WAV bit depth")
	ErrCaptureClosed         = errors.New("WAV capture is closed")
	ErrCaptureFormatMismatch = errors.New("WAV capture written with a different format")
)
