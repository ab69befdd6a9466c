// SPDX-License-Identifier: EPL-2.0

package engine

import "github.com/ik5/pcmbridge/audio"

// Flags alter how a voice consumes its source.
type Flags uint32

const (
	// FlagLooping rewinds the source when it ends instead of finishing the
	// voice. A looping voice never fires its end callback. It sets the
	// initial value of Voice.Looping.
	FlagLooping Flags = 1 << iota
)

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

// Voice is a source bound to an engine.
//
// Start, Stop and Seek are requests: the engine applies them from its
// render goroutine, and IsPlaying reflects what was actually rendered.
type Voice interface {
	Start() error
	Stop() error
	// Seek moves the read position to an absolute frame of the source.
	Seek(frame int64) error

	// IsPlaying reports whether the voice is started and has been rendered
	// since.
	IsPlaying() bool
	// IsAtEnd reports whether the source ran out while the voice was
	// playing. It is cleared by Seek and Start.
	IsAtEnd() bool

	// Cursor is the position of the next frame to be rendered.
	Cursor() int64
	// Length is the source length in frames when it is known.
	Length() (int64, bool)

	// Sync returns once a render period that may have been reading the
	// source when Sync was called has finished. A voice stopped before Sync
	// is not read again until it is started.
	Sync()

	// SetLooping switches looping on or off while the voice plays. The
	// render goroutine picks it up the next time the source ends.
	SetLooping(on bool)
	Looping() bool

	// OnEnd registers fn to run once each time the voice reaches the end of
	// its source. fn runs on the render goroutine and must not block. A nil
	// fn removes the callback.
	OnEnd(fn func())
}

// Engine binds sources to voices.
type Engine interface {
	Attach(src audio.Source, flags Flags) (Voice, error)
	// Detach removes v. When Detach returns the engine no longer reads the
	// voice's source, so the source may be released.
	Detach(v Voice) error

	SampleRate() int
	Channels() int
}
