// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/audio"
)

const defaultPeriodFrames = 512

// Config describes the output format of a Mixer.
type Config struct {
	SampleRate int
	Channels   int
	// PeriodFrames is the largest block read from a voice at once. Zero
	// selects 512.
	PeriodFrames int
}

// Mixer is a software Engine. Voices are summed without gain or clipping.
//
// Attach, Detach and Close may be called from any goroutine. Render must be
// called from a single goroutine, normally the audio device callback; it
// does not lock or allocate.
type Mixer struct {
	cfg Config

	mu     sync.Mutex
	voices atomic.Pointer[[]*voice]
	nextID uint64

	// seq is odd while Render is running.
	seq    atomic.Uint64
	frames atomic.Int64
	closed atomic.Bool
}

var _ Engine = (*Mixer)(nil)

func NewMixer(cfg Config) (*Mixer, error) {
	if cfg.PeriodFrames == 0 {
		cfg.PeriodFrames = defaultPeriodFrames
	}

	if cfg.SampleRate <= 0 || cfg.Channels <= 0 || cfg.PeriodFrames < 0 {
		return nil, fmt.Errorf("%d Hz, %d channels, %d frame period: %w",
			cfg.SampleRate, cfg.Channels, cfg.PeriodFrames, ErrInvalidConfig)
	}

	m := &Mixer{cfg: cfg}
	m.voices.Store(&[]*voice{})

	logrus.WithFields(logrus.Fields{
		"function":      "engine.NewMixer",
		"sample_rate":   cfg.SampleRate,
		"channels":      cfg.Channels,
		"period_frames": cfg.PeriodFrames,
	}).Debug("Mixer created")

	return m, nil
}

func (m *Mixer) SampleRate() int   { return m.cfg.SampleRate }
func (m *Mixer) Channels() int     { return m.cfg.Channels }
func (m *Mixer) PeriodFrames() int { return m.cfg.PeriodFrames }

// Time returns the number of frames rendered so far.
func (m *Mixer) Time() int64 { return m.frames.Load() }

// Voices returns the number of attached voices.
func (m *Mixer) Voices() int { return len(*m.voices.Load()) }

// Attach binds src to a new, stopped voice. src is conformed to the mixer
// format when needed. The mixer never closes src.
func (m *Mixer) Attach(src audio.Source, flags Flags) (Voice, error) {
	if src == nil {
		return nil, fmt.Errorf("nil source: %w", ErrInvalidArgument)
	}

	if m.closed.Load() {
		return nil, ErrClosed
	}

	conformed, err := audio.Conform(src, m.cfg.SampleRate, m.cfg.Channels)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":        "Mixer.Attach",
			"src_sample_rate": src.SampleRate(),
			"src_channels":    src.Channels(),
			"error":           err.Error(),
		}).Error("Failed to conform source to mixer format")
		return nil, fmt.Errorf("attach source: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed.Load() {
		return nil, ErrClosed
	}

	m.nextID++
	v := newVoice(m, m.nextID, src, conformed, flags)

	cur := *m.voices.Load()
	next := make([]*voice, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, v)
	m.voices.Store(&next)

	logrus.WithFields(logrus.Fields{
		"function":    "Mixer.Attach",
		"voice":       v.id,
		"sample_rate": src.SampleRate(),
		"channels":    src.Channels(),
		"conformed":   src.SampleRate() != m.cfg.SampleRate || src.Channels() != m.cfg.Channels,
		"looping":     flags.Has(FlagLooping),
	}).Debug("Voice attached")

	return v, nil
}

// Detach removes v and waits for an in-flight Render to finish with it.
func (m *Mixer) Detach(v Voice) error {
	vv, ok := v.(*voice)
	if !ok || vv.m != m {
		return ErrUnknownVoice
	}

	m.mu.Lock()
	cur := *m.voices.Load()
	i := slices.Index(cur, vv)
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("voice %d: %w", vv.id, ErrDetached)
	}

	next := slices.Delete(slices.Clone(cur), i, i+1)
	m.voices.Store(&next)
	vv.detached.Store(true)
	m.mu.Unlock()

	m.waitRender()

	logrus.WithFields(logrus.Fields{
		"function": "Mixer.Detach",
		"voice":    vv.id,
	}).Debug("Voice detached")

	return nil
}

// Close detaches every voice. Render keeps producing silence.
func (m *Mixer) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	m.mu.Lock()
	cur := *m.voices.Load()
	m.voices.Store(&[]*voice{})
	for _, v := range cur {
		v.detached.Store(true)
	}
	m.mu.Unlock()

	m.waitRender()

	logrus.WithFields(logrus.Fields{
		"function": "Mixer.Close",
		"voices":   len(cur),
	}).Debug("Mixer closed")

	return nil
}

// Render fills out with the sum of all started voices. out holds
// interleaved frames in the mixer format; a trailing partial frame is
// zeroed.
func (m *Mixer) Render(out []float32) {
	m.seq.Add(1)

	clear(out)
	frames := len(out) / m.cfg.Channels

	for _, v := range *m.voices.Load() {
		v.render(out, frames)
	}

	m.frames.Add(int64(frames))
	m.seq.Add(1)
}

// waitRender returns once any Render that may have seen the previous voice
// list has returned.
func (m *Mixer) waitRender() {
	s := m.seq.Load()
	if s%2 == 0 {
		return
	}

	for m.seq.Load() == s {
		runtime.Gosched()
	}
}
