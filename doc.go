// SPDX-License-Identifier: EPL-2.0

// Package pcmbridge moves PCM audio from a producer goroutine to a mixing
// engine's real-time render goroutine without locks or allocation on the
// render path.
//
// # Packages
//
//   - ring: single-producer single-consumer frame ring with acquire/commit
//     spans.
//   - stream: the producer handle (Stream) and the render-side adapter
//     (PullSource) that pads underruns with silence and reports io.EOF once
//     the producer marked the end and the ring drained.
//   - sound: a playable sound backed by memory, a file or a stream, with a
//     Stopped/Starting/Playing/Stopping lifecycle and an end callback.
//   - engine: the Engine and Voice interfaces a sound plays through, and
//     Mixer, a software engine that sums voices into a caller's buffer.
//   - audio and formats/...: pull-based sources, format adapters and the
//     WAV, MP3, Ogg Vorbis and AIFF decoders.
//   - formats/opus: decodes network Opus packets into a stream.
//
// # Streaming
//
// A streaming sound is fed by one producer while the engine renders it:
//
//	mix, _ := engine.NewMixer(engine.Config{SampleRate: 48000, Channels: 2})
//	snd, _ := sound.NewStreaming(mix, 2, 48000, 48000, 0)
//	snd.Start()
//
//	st, _ := snd.Stream()
//	go pcmbridge.Pump(ctx, st, src, 4800, 10*time.Millisecond)
//
//	// on the device callback
//	mix.Render(out)
//
// Pump converts src to the stream format, queues it as space frees up and
// marks the end of the stream when src is exhausted. The sound turns
// Stopped after the last queued frame was rendered.
//
// # Files
//
// DefaultRegistry knows every bundled decoder:
//
//	snd, err := sound.NewFromFile(mix, "intro.ogg", pcmbridge.DefaultRegistry(), 0)
package pcmbridge
