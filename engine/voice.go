// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/audio"
)

const noSeek = -1

type voice struct {
	m    *Mixer
	id   uint64
	orig audio.Source
	src  audio.Source

	scratch []float32

	started  atomic.Bool
	playing  atomic.Bool
	atEnd    atomic.Bool
	detached atomic.Bool
	looping  atomic.Bool
	cursor   atomic.Int64
	seekTo   atomic.Int64
	onEnd    atomic.Pointer[func()]
}

func newVoice(m *Mixer, id uint64, orig, src audio.Source, flags Flags) *voice {
	v := &voice{
		m:       m,
		id:      id,
		orig:    orig,
		src:     src,
		scratch: make([]float32, m.cfg.PeriodFrames*m.cfg.Channels),
	}
	v.seekTo.Store(noSeek)
	v.looping.Store(flags.Has(FlagLooping))

	return v
}

func (v *voice) Start() error {
	if v.detached.Load() {
		return ErrDetached
	}

	if v.atEnd.Load() {
		v.seekTo.Store(0)
		v.atEnd.Store(false)
	}
	if !v.started.Load() {
		v.playing.Store(false)
	}
	v.started.Store(true)

	logrus.WithFields(logrus.Fields{
		"function": "voice.Start",
		"voice":    v.id,
		"cursor":   v.cursor.Load(),
	}).Debug("Voice start requested")

	return nil
}

func (v *voice) Stop() error {
	if v.detached.Load() {
		return ErrDetached
	}

	v.started.Store(false)
	v.playing.Store(false)

	logrus.WithFields(logrus.Fields{
		"function": "voice.Stop",
		"voice":    v.id,
		"cursor":   v.cursor.Load(),
	}).Debug("Voice stop requested")

	return nil
}

func (v *voice) Seek(frame int64) error {
	if v.detached.Load() {
		return ErrDetached
	}

	if frame < 0 {
		return fmt.Errorf("frame %d: %w", frame, ErrInvalidArgument)
	}

	if _, ok := v.orig.(audio.Seeker); !ok {
		return fmt.Errorf("voice %d: %w", v.id, audio.ErrNotSeekable)
	}

	if n, ok := v.Length(); ok && frame > n {
		return fmt.Errorf("frame %d past length %d: %w", frame, n, ErrInvalidArgument)
	}

	v.seekTo.Store(frame)

	logrus.WithFields(logrus.Fields{
		"function": "voice.Seek",
		"voice":    v.id,
		"frame":    frame,
	}).Debug("Voice seek requested")

	return nil
}

func (v *voice) IsPlaying() bool { return v.started.Load() && v.playing.Load() }
func (v *voice) IsAtEnd() bool   { return v.atEnd.Load() }

func (v *voice) Cursor() int64 {
	if f := v.seekTo.Load(); f != noSeek {
		return f
	}

	return v.cursor.Load()
}

func (v *voice) Length() (int64, bool) {
	l, ok := v.src.(audio.Lengther)
	if !ok {
		return 0, false
	}

	n := l.LengthFrames()
	return n, n >= 0
}

func (v *voice) Sync() { v.m.waitRender() }

func (v *voice) SetLooping(on bool) { v.looping.Store(on) }

func (v *voice) Looping() bool { return v.looping.Load() }

func (v *voice) OnEnd(fn func()) {
	if fn == nil {
		v.onEnd.Store(nil)
		return
	}

	v.onEnd.Store(&fn)
}

// render mixes up to frames frames of the voice into out. It runs on the
// render goroutine.
func (v *voice) render(out []float32, frames int) {
	if f := v.seekTo.Swap(noSeek); f != noSeek {
		v.rewind(f)
	}

	if !v.started.Load() {
		v.playing.Store(false)
		return
	}

	ch := v.m.cfg.Channels
	produced := 0
	rewound := false

	for produced < frames {
		want := min(frames-produced, len(v.scratch)/ch)
		n, err := v.src.ReadSamples(v.scratch[:want*ch])

		got := n / ch
		dst := out[produced*ch : (produced+got)*ch]
		for i, s := range v.scratch[:got*ch] {
			dst[i] += s
		}
		produced += got
		v.cursor.Add(int64(got))

		if err != nil {
			if errors.Is(err, io.EOF) && v.looping.Load() && !(rewound && got == 0) {
				if v.rewind(0) {
					rewound = true
					continue
				}
			}

			v.finish()
			return
		}

		if got == 0 {
			break
		}
		rewound = false
	}

	v.playing.Store(true)
}

// rewind seeks the source on the render goroutine. A failed seek leaves the
// cursor where it was.
func (v *voice) rewind(frame int64) bool {
	s, ok := v.src.(audio.Seeker)
	if !ok || s.SeekFrame(frame) != nil {
		return false
	}

	v.cursor.Store(frame)
	v.atEnd.Store(false)

	return true
}

func (v *voice) finish() {
	v.atEnd.Store(true)
	v.started.Store(false)
	v.playing.Store(false)

	if fn := v.onEnd.Load(); fn != nil {
		(*fn)()
	}
}
