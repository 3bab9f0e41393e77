// SPDX-License-Identifier: EPL-2.0

// Package audio models the producer side of a playback stream: PCM formats
// and sources of interleaved little-endian PCM bytes.
//
// This package contains:
//   - Format, with the frame arithmetic the playback engine relies on
//   - Source interface for PCM input
//   - PCM encoders from float and integer samples
//   - Format registry for decoder registration
//
// # Source Interface
//
//	type Source interface {
//	    Format() Format
//	    Read(p []byte) (int, error)
//	    Close() error
//	}
//
// Read always returns whole frames, so the bytes can be handed to a PCM
// stream's copy path without re-framing. Decoders in formats/ implement
// Source.
//
// # Frames
//
// A frame is one sample for every channel. Stream positions are reported in
// frames, buffers are sized in bytes:
//
//	f := audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16}
//	f.FrameBytes()        // 4
//	f.BytesToFrames(256)  // 64
//
// # Format Registry
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, err := registry.Lookup("intro.wav")
//
// # Error Handling
//
// Sources return io.EOF when no more data is available:
//
//	for {
//	    n, err := source.Read(buf)
//	    // hand buf[:n] to the stream
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
package audio
