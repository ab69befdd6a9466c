// SPDX-License-Identifier: EPL-2.0

// Package stream bridges a producer that pushes PCM frames with a real-time
// render goroutine that pulls them.
//
// A Stream owns a ring.Buffer, an EndFlag and a PullSource:
//
//	st, _ := stream.New(2, 48000, 96000)
//
//	// producer goroutine
//	n, err := st.AppendSamples(chunk) // n may be short: retry later
//	...
//	st.MarkEnd()
//
//	// render goroutine (usually inside the mixing engine)
//	n, err := st.Source().Pull(out, 512)
//	if err == io.EOF {
//	    // drained after MarkEnd
//	}
//
// # Back-pressure
//
// Appends never block. A short count with a nil error means the ring is
// full; it is not a failure. AppendAll wraps the retry loop for producers
// that can afford to wait.
//
// # Pull contract
//
// Pull always returns exactly the requested number of frames or io.EOF:
//   - frames available: they are copied and any shortfall is padded with
//     silence
//   - no frames and the end flag not set: an underrun, the whole request is
//     silence
//   - no frames and the end flag set: io.EOF with 0 frames
//
// Padding a partial drain also happens while the end flag is set, so the
// last block before io.EOF may end in silence.
//
// # Errors
//
// ErrInvalidArgument, ErrInvalidOperation and ErrResourceExhausted classify
// failures; io.EOF is a normal terminal status. Check with errors.Is.
package stream
