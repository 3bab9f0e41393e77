// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files with github.com/jfreymuth/oggvorbis.
//
// Vorbis decodes to floating point; the Source converts to S16_LE with
// clipping at full scale. Values that do not complete a frame are held
// over to the next Read, so callers always receive whole frames.
package vorbis
