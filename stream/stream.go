// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/ring"
)

// maxChunkFrames bounds a single acquire so frame counts stay within 32 bits.
const maxChunkFrames = math.MaxInt32

// Stream is the producer-side handle of a streaming PCM bridge. It owns a
// ring buffer, the end-of-stream flag and the PullSource the mixing engine
// reads from.
//
// Append, MarkEnd, ClearEnd and Reset belong to a single producer goroutine.
// The PullSource belongs to the render goroutine.
type Stream struct {
	rb     *ring.Buffer
	end    EndFlag
	closed atomic.Bool
	src    *PullSource
}

// New creates a stream of capacityFrames frames. Either a fully usable
// stream or an error is returned.
func New(channels, sampleRate, capacityFrames int) (*Stream, error) {
	rb, err := ring.New(channels, sampleRate, capacityFrames)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":        "stream.New",
			"channels":        channels,
			"sample_rate":     sampleRate,
			"capacity_frames": capacityFrames,
			"error":           err.Error(),
		}).Error("Failed to create PCM stream")
		return nil, fmt.Errorf("create stream: %w", err)
	}

	s := &Stream{rb: rb}
	s.src = &PullSource{s: s}

	logrus.WithFields(logrus.Fields{
		"function":        "stream.New",
		"channels":        channels,
		"sample_rate":     sampleRate,
		"capacity_frames": capacityFrames,
	}).Debug("PCM stream created")

	return s, nil
}

func (s *Stream) Channels() int   { return s.rb.Channels() }
func (s *Stream) SampleRate() int { return s.rb.SampleRate() }

// Capacity returns the ring size in frames.
func (s *Stream) Capacity() int { return s.rb.Capacity() }

// AvailableWrite returns how many frames can be appended right now.
func (s *Stream) AvailableWrite() int { return s.rb.AvailableWrite() }

// Queued returns how many appended frames the render side has not pulled.
func (s *Stream) Queued() int { return s.rb.AvailableRead() }

// Source returns the pull side of the stream.
func (s *Stream) Source() *PullSource { return s.src }

// AppendFrames copies up to frameCount interleaved frames from frames into
// the ring. It never blocks: when the ring fills up it returns the number of
// frames accepted so far with a nil error and the caller retries the rest
// later.
func (s *Stream) AppendFrames(frames []float32, frameCount int) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	if s.end.IsSet() {
		return 0, fmt.Errorf("append after end of stream: %w", ErrInvalidOperation)
	}

	if frameCount < 0 {
		return 0, fmt.Errorf("frame count %d: %w", frameCount, ErrInvalidArgument)
	}
	if frameCount == 0 {
		return 0, nil
	}

	ch := s.rb.Channels()
	if frames == nil || len(frames) < frameCount*ch {
		return 0, fmt.Errorf("%d frames need %d samples, got %d: %w",
			frameCount, frameCount*ch, len(frames), ErrInvalidArgument)
	}

	written := 0
	for written < frameCount {
		chunk := min(frameCount-written, maxChunkFrames)

		dst := s.rb.AcquireWrite(chunk)
		if len(dst) == 0 {
			break
		}

		n := copy(dst, frames[written*ch:(written+chunk)*ch]) / ch
		if err := s.rb.CommitWrite(n); err != nil {
			return written, err
		}
		written += n
	}

	return written, nil
}

// AppendSamples appends an interleaved slice whose length must be a
// multiple of the channel count. An empty slice appends nothing but still
// fails on a closed or ended stream.
func (s *Stream) AppendSamples(samples []float32) (int, error) {
	ch := s.rb.Channels()
	if len(samples)%ch != 0 {
		return 0, fmt.Errorf("%d samples for %d channels: %w", len(samples), ch, ErrInvalidArgument)
	}

	return s.AppendFrames(samples, len(samples)/ch)
}

// AppendAll keeps appending samples, waiting retry between attempts while
// the ring is full, until everything is queued or ctx is done. It returns
// the number of frames queued.
func (s *Stream) AppendAll(ctx context.Context, samples []float32, retry time.Duration) (int, error) {
	ch := s.rb.Channels()
	if len(samples)%ch != 0 {
		return 0, fmt.Errorf("%d samples for %d channels: %w", len(samples), ch, ErrInvalidArgument)
	}

	total := len(samples) / ch
	written := 0

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for written < total {
		n, err := s.AppendFrames(samples[written*ch:], total-written)
		written += n
		if err != nil {
			return written, err
		}
		if written == total {
			break
		}

		if timer == nil {
			timer = time.NewTimer(retry)
		} else {
			timer.Reset(retry)
		}

		select {
		case <-ctx.Done():
			return written, ctx.Err()
		case <-timer.C:
		}
	}

	return written, nil
}

// MarkEnd tells the render side that no more frames will follow. Frames
// already queued still play; further appends fail with ErrInvalidOperation.
func (s *Stream) MarkEnd() error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.end.Set()

	logrus.WithFields(logrus.Fields{
		"function": "Stream.MarkEnd",
		"queued":   s.Queued(),
	}).Debug("End of stream signaled")

	return nil
}

// ClearEnd re-opens the stream for appends.
func (s *Stream) ClearEnd() error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.end.Clear()

	logrus.WithFields(logrus.Fields{
		"function": "Stream.ClearEnd",
	}).Debug("End of stream cleared")

	return nil
}

func (s *Stream) IsEnd() bool { return s.end.IsSet() }

// Reset drops all queued frames and clears the end flag. The render side
// must not be pulling and no append may run concurrently.
func (s *Stream) Reset() error {
	if s.closed.Load() {
		return ErrClosed
	}

	dropped := s.rb.AvailableRead()
	s.rb.Reset()
	s.end.Clear()

	logrus.WithFields(logrus.Fields{
		"function": "Stream.Reset",
		"dropped":  dropped,
	}).Debug("Stream buffer reset")

	return nil
}

// Close releases the stream. The pull source must already be detached from
// the engine. Close is idempotent.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"function": "Stream.Close",
		"dropped":  s.rb.AvailableRead(),
	}).Debug("Stream closed")

	return nil
}
