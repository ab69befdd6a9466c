// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides deterministic sources for tests. It does not
// import audio so that package audio can use it from its own tests.
package audiotest

import (
	"errors"
	"io"
	"math"
	"sync/atomic"
)

var ErrSeekRange = errors.New("seek outside source")

// Waveform returns the sample for a frame index and channel.
type Waveform func(frame, channel int) float32

// MockSource generates frames from a Waveform. It is seekable, knows its
// length and records whether it was closed.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int
	pos        int
	waveform   Waveform

	closed atomic.Bool
	reads  atomic.Int64
}

// NewMockSource creates a source of frames frames.
func NewMockSource(sampleRate, channels, frames int, waveform Waveform) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		waveform:   waveform,
	}
}

func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 { return 0 })
}

func NewSineSource(sampleRate, channels, frames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 { return value })
}

// NewRampSource yields frame+1 on every channel, so positions can be read
// back from the output.
func NewRampSource(sampleRate, channels, frames int) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame, _ int) float32 { return float32(frame + 1) })
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed.Load() }

// Reads returns the number of ReadSamples calls.
func (m *MockSource) Reads() int64 { return m.reads.Load() }

func (m *MockSource) Reset() { m.pos = 0 }

func (m *MockSource) LengthFrames() int64 { return int64(m.frames) }

func (m *MockSource) SeekFrame(frame int64) error {
	if frame < 0 || frame > int64(m.frames) {
		return ErrSeekRange
	}

	m.pos = int(frame)
	return nil
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	m.reads.Add(1)

	if m.pos >= m.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/m.channels, m.frames-m.pos)
	for f := range n {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.pos+f, ch)
		}
	}
	m.pos += n

	if m.pos >= m.frames {
		return n * m.channels, io.EOF
	}

	return n * m.channels, nil
}

// Unseekable hides the SeekFrame and LengthFrames methods of a source.
type Unseekable struct {
	Src interface {
		SampleRate() int
		Channels() int
		BufSize() int
		Close() error
		ReadSamples(dst []float32) (int, error)
	}
}

func (u Unseekable) SampleRate() int                        { return u.Src.SampleRate() }
func (u Unseekable) Channels() int                          { return u.Src.Channels() }
func (u Unseekable) BufSize() int                           { return u.Src.BufSize() }
func (u Unseekable) Close() error                           { return u.Src.Close() }
func (u Unseekable) ReadSamples(dst []float32) (int, error) { return u.Src.ReadSamples(dst) }
