// SPDX-License-Identifier: EPL-2.0

// Package audio defines the pull-based PCM source shared by decoders, the
// streaming bridge and the mixing engine, plus the adapters used to bring a
// source to the engine's format.
//
// # Source
//
// A Source yields interleaved float32 samples in [-1, 1]:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// ReadSamples returns the number of samples written, never a partial frame.
// io.EOF marks the end of the data and may come together with the last
// samples. Sources that can reposition implement Seeker; sources that know
// their length implement Lengther.
//
// # Adapters
//
// Conform wraps a source so that it matches an output format:
//
//	src, err := audio.Conform(dec, 48000, 2)
//
// It chains MonoMixer (fold down to mono), ChannelAdapter (any other channel
// change) and Resampler (cubic interpolation, with a one-pole low-pass when
// downsampling). The adapters forward SeekFrame and LengthFrames, scaled to
// the output rate, and allocate only at construction so they can run on a
// render goroutine.
//
// # Registry
//
// Decoders are registered by format key and looked up by file extension:
//
//	reg := audio.NewRegistry()
//	reg.Register("wav", wav.Decoder{})
//	dec, err := reg.Lookup("music/intro.WAV")
package audio
