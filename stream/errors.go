// SPDX-License-Identifier: EPL-2.0

package stream

import "errors"

var (
	// ErrUnsupportedFormat rejects hardware parameters outside the
	// installed constraints or the codec clock table.
	ErrUnsupportedFormat = errors.New("unsupported stream format")
	// ErrNoActiveStream is returned by queries when no buffer is bound or
	// the playback path is off.
	ErrNoActiveStream = errors.New("no active playback stream")
	// ErrInvalidState is returned for a callback the current state does
	// not allow.
	ErrInvalidState   = errors.New("invalid stream state")
	ErrInvalidTrigger = errors.New("invalid trigger command")
)
