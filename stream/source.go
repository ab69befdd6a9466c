// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"io"

	"github.com/ik5/pcmbridge/audio"
)

// PullSource is the render-side view of a Stream. It implements
// audio.Source and audio.Seeker and must only be used from the render
// goroutine.
//
// Every pull either fills exactly the requested number of frames, padding
// with silence when the producer is behind, or reports io.EOF once the end
// flag is set and the ring is empty. Pulls do not allocate, lock or log.
type PullSource struct {
	s *Stream
}

// Format reports 32-bit float samples with the channel count and sample
// rate fixed at stream creation.
func (p *PullSource) Format() Format {
	return Format{
		Sample:     FormatF32,
		Channels:   p.s.rb.Channels(),
		SampleRate: p.s.rb.SampleRate(),
	}
}

func (p *PullSource) SampleRate() int { return p.s.rb.SampleRate() }
func (p *PullSource) Channels() int   { return p.s.rb.Channels() }
func (p *PullSource) BufSize() int    { return p.s.rb.Capacity() * p.s.rb.Channels() }

// Close is a no-op; the Stream owns the storage.
func (p *PullSource) Close() error { return nil }

// Pull writes frameCount frames into dst and returns frameCount, or returns
// 0 and io.EOF when the stream has ended and drained.
func (p *PullSource) Pull(dst []float32, frameCount int) (int, error) {
	if frameCount <= 0 {
		return 0, nil
	}

	rb := p.s.rb
	ch := rb.Channels()
	if len(dst) < frameCount*ch {
		return 0, ErrInvalidArgument
	}

	if p.s.closed.Load() {
		return 0, io.EOF
	}

	// The flag is loaded before the write cursor. Every frame committed
	// before MarkEnd is then visible to AvailableRead, so a set flag with
	// an empty ring really means the producer is done.
	ended := p.s.end.IsSet()

	if rb.AvailableRead() == 0 {
		if ended {
			return 0, io.EOF
		}

		// Underrun: play silence rather than starve the device.
		clear(dst[:frameCount*ch])
		return frameCount, nil
	}

	read := 0
	for read < frameCount {
		src := rb.AcquireRead(min(frameCount-read, maxChunkFrames))
		if len(src) == 0 {
			break
		}

		n := copy(dst[read*ch:], src) / ch
		_ = rb.CommitRead(n)
		read += n
	}

	// Partial drain is padded even when the end flag is set; the next pull
	// reports io.EOF.
	clear(dst[read*ch : frameCount*ch])

	return frameCount, nil
}

// ReadSamples adapts Pull to audio.Source.
func (p *PullSource) ReadSamples(dst []float32) (int, error) {
	ch := p.s.rb.Channels()
	if len(dst)%ch != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	n, err := p.Pull(dst, len(dst)/ch)
	return n * ch, err
}

// AtEnd reports whether the end flag is set and every frame has been pulled.
func (p *PullSource) AtEnd() bool {
	ended := p.s.end.IsSet()
	return ended && p.s.rb.AvailableRead() == 0
}

// SeekFrame accepts only frame 0; a stream cannot be repositioned. The
// queued frames are dropped by Stream.Reset, not by seeking.
func (p *PullSource) SeekFrame(frame int64) error {
	if frame != 0 {
		return ErrInvalidOperation
	}

	return nil
}
