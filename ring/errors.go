// SPDX-License-Identifier: EPL-2.0

package ring

import "errors"

var (
	// ErrInvalidRegion reports a zero, misaligned or oversized capacity.
	ErrInvalidRegion = errors.New("invalid ring region")
	// ErrProducerReadFault reports producer memory that could not be read.
	// The affected span is played as silence.
	ErrProducerReadFault = errors.New("producer read fault")
	// ErrNotBound is returned by writes to a buffer with no region.
	ErrNotBound = errors.New("ring buffer not bound")

	errNilSource = errors.New("nil producer source")
)
