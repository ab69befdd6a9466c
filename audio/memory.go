// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// MemorySource plays back a fixed block of interleaved samples held in
// memory. It is seekable and knows its length.
type MemorySource struct {
	samples    []float32
	sampleRate int
	channels   int
	pos        int // in samples
}

// NewMemorySource copies samples into a new source. len(samples) must be a
// multiple of channels.
func NewMemorySource(samples []float32, channels, sampleRate int) (*MemorySource, error) {
	if channels <= 0 || sampleRate <= 0 {
		return nil, ErrInvalidFormat
	}

	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%d samples for %d channels: %w", len(samples), channels, ErrInvalidDstSize)
	}

	return &MemorySource{
		samples:    append([]float32(nil), samples...),
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

func (m *MemorySource) SampleRate() int { return m.sampleRate }
func (m *MemorySource) Channels() int   { return m.channels }
func (m *MemorySource) BufSize() int    { return len(m.samples) }
func (m *MemorySource) Close() error    { return nil }

func (m *MemorySource) LengthFrames() int64 { return int64(len(m.samples) / m.channels) }

func (m *MemorySource) SeekFrame(frame int64) error {
	if frame < 0 || frame > m.LengthFrames() {
		return fmt.Errorf("seek to frame %d of %d: %w", frame, m.LengthFrames(), io.ErrUnexpectedEOF)
	}

	m.pos = int(frame) * m.channels
	return nil
}

func (m *MemorySource) ReadSamples(dst []float32) (int, error) {
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if m.pos >= len(m.samples) {
		return 0, io.EOF
	}

	n := copy(dst, m.samples[m.pos:])
	m.pos += n

	if m.pos >= len(m.samples) {
		return n, io.EOF
	}

	return n, nil
}
