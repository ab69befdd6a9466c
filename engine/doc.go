// SPDX-License-Identifier: EPL-2.0

// Package engine describes the mixing engine a sound is played through and
// provides Mixer, a small software implementation of it.
//
// An Engine binds an audio.Source to a Voice. Voices are started, stopped
// and repositioned from any goroutine; the engine pulls them from its own
// render goroutine, so every control call is a request that the render side
// picks up on its next period.
//
// Mixer sums its voices into an interleaved float32 buffer:
//
//	mx, _ := engine.NewMixer(engine.Config{SampleRate: 48000, Channels: 2, PeriodFrames: 512})
//	v, _ := mx.Attach(src, 0)
//	_ = v.Start()
//
//	// audio device callback
//	func(out []float32) { mx.Render(out) }
//
// Sources whose rate or channel count differ from the mixer are wrapped with
// audio.Conform on attach.
package engine
