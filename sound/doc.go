// SPDX-License-Identifier: EPL-2.0

// Package sound binds PCM data to an engine voice and tracks its lifecycle.
//
// A Sound is created from one of three sources:
//
//   - NewFromPCM and NewFromFloatBuffer play a block of samples held in
//     memory.
//   - NewFromFile decodes a file picked by extension from an
//     audio.Registry.
//   - NewStreaming plays frames pushed by the caller through a
//     stream.Stream while the engine is pulling them.
//
// # Lifecycle
//
// Start and Stop are requests to the engine. State moves
//
//	Stopped -> Starting -> Playing -> Stopping -> Stopped
//
// and is reconciled against the voice every time it is read: Starting
// becomes Playing once the engine has rendered the voice, or Stopped when
// the source ran out first; Stopping always reads back as Stopped.
//
// The callback set with SetEndCallback runs on the engine's render
// goroutine once per natural end of the source. It must return quickly.
//
// Close detaches the voice before it releases the stream, decoder or file,
// so nothing is freed while the engine may still read it.
package sound
