// SPDX-License-Identifier: EPL-2.0

package ring

import (
	"fmt"
	"sync/atomic"
)

// MaxSamples caps the storage of a single buffer (capacity * channels).
const MaxSamples = 1 << 30

// Buffer is a fixed-capacity SPSC ring of interleaved float32 frames.
type Buffer struct {
	// Producer and consumer cursors sit on separate cache lines.
	wr atomic.Uint64
	_  [56]byte
	rd atomic.Uint64
	_  [56]byte

	data       []float32
	channels   int
	sampleRate int
	capacity   uint64 // frames

	// Size of the last span handed out on each side, owned by that side.
	wrMapped uint64
	rdMapped uint64
}

// New allocates a buffer holding capacityFrames frames of channels samples.
// sampleRate is metadata only; it travels with the buffer so consumers can
// report the stream format.
func New(channels, sampleRate, capacityFrames int) (*Buffer, error) {
	if channels <= 0 || sampleRate <= 0 || capacityFrames <= 0 {
		return nil, fmt.Errorf("ring: channels=%d sample_rate=%d capacity=%d: %w",
			channels, sampleRate, capacityFrames, ErrInvalidArgument)
	}

	if capacityFrames > MaxSamples/channels {
		return nil, fmt.Errorf("ring: %d frames of %d channels: %w",
			capacityFrames, channels, ErrResourceExhausted)
	}

	return &Buffer{
		data:       make([]float32, capacityFrames*channels),
		channels:   channels,
		sampleRate: sampleRate,
		capacity:   uint64(capacityFrames),
	}, nil
}

func (b *Buffer) Channels() int   { return b.channels }
func (b *Buffer) SampleRate() int { return b.sampleRate }
func (b *Buffer) Capacity() int   { return int(b.capacity) }

// AvailableRead returns the number of committed frames not yet consumed.
func (b *Buffer) AvailableRead() int {
	rd := b.rd.Load()
	wr := b.wr.Load()
	return int(wr - rd)
}

// AvailableWrite returns the number of free frames.
func (b *Buffer) AvailableWrite() int {
	wr := b.wr.Load()
	rd := b.rd.Load()
	return int(b.capacity - (wr - rd))
}

// AcquireWrite maps up to frames writable frames and returns them as an
// interleaved span. The span is empty when the buffer is full or frames <= 0.
func (b *Buffer) AcquireWrite(frames int) []float32 {
	if frames <= 0 {
		b.wrMapped = 0
		return nil
	}

	wr := b.wr.Load()
	rd := b.rd.Load()
	free := b.capacity - (wr - rd)

	n := b.contiguous(wr, free, uint64(frames))
	b.wrMapped = n

	return b.span(wr, n)
}

// CommitWrite publishes frames previously written into the span returned by
// AcquireWrite.
func (b *Buffer) CommitWrite(frames int) error {
	if frames < 0 || uint64(frames) > b.wrMapped {
		return fmt.Errorf("ring: commit write %d of %d mapped: %w", frames, b.wrMapped, ErrInvalidArgument)
	}

	b.wrMapped = 0
	if frames == 0 {
		return nil
	}

	b.wr.Store(b.wr.Load() + uint64(frames))
	return nil
}

// AcquireRead maps up to frames readable frames. The span is empty when the
// buffer is empty or frames <= 0.
func (b *Buffer) AcquireRead(frames int) []float32 {
	if frames <= 0 {
		b.rdMapped = 0
		return nil
	}

	rd := b.rd.Load()
	wr := b.wr.Load()
	used := wr - rd

	n := b.contiguous(rd, used, uint64(frames))
	b.rdMapped = n

	return b.span(rd, n)
}

// CommitRead releases frames previously obtained with AcquireRead back to
// the producer.
func (b *Buffer) CommitRead(frames int) error {
	if frames < 0 || uint64(frames) > b.rdMapped {
		return fmt.Errorf("ring: commit read %d of %d mapped: %w", frames, b.rdMapped, ErrInvalidArgument)
	}

	b.rdMapped = 0
	if frames == 0 {
		return nil
	}

	b.rd.Store(b.rd.Load() + uint64(frames))
	return nil
}

// Reset discards all queued frames. Neither side may be active.
func (b *Buffer) Reset() {
	b.wr.Store(0)
	b.rd.Store(0)
	b.wrMapped = 0
	b.rdMapped = 0
}

// contiguous clamps want to what is both available and before the wrap point.
func (b *Buffer) contiguous(cursor, available, want uint64) uint64 {
	n := min(want, available)
	toEnd := b.capacity - cursor%b.capacity
	return min(n, toEnd)
}

func (b *Buffer) span(cursor, frames uint64) []float32 {
	if frames == 0 {
		return nil
	}

	start := int(cursor%b.capacity) * b.channels
	end := start + int(frames)*b.channels
	return b.data[start:end:end]
}
