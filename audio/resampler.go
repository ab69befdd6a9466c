// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"math"

	"github.com/ik5/pcmbridge/internal/pcm"
)

// Resampler streams from src to target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// Includes basic anti-aliasing filtering when downsampling.
//
// The engine wraps sources whose rate differs from the device rate with a
// Resampler, so ReadSamples runs on the render goroutine and must not
// allocate.
type Resampler struct {
	src      Source
	srcRate  float64
	dstRate  float64
	ratio    float64 // srcRate / dstRate - how many source frames per output frame
	channels int

	// Window of 4 frames for cubic interpolation
	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames   [4][]float32
	hasFrame [4]bool
	primed   bool

	// Position between frames[1] and frames[2], in source frames
	pos float64

	srcBuf []float32
	eof    bool

	// One-pole low-pass state, only used when downsampling
	filterState []float32
	seeded      bool
	useFilter   bool
	filterAlpha float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:         src,
		srcRate:     float64(src.SampleRate()),
		dstRate:     float64(dstRate),
		ratio:       ratio,
		channels:    channels,
		srcBuf:      make([]float32, channels),
		useFilter:   ratio > 1.0,
		filterState: make([]float32, channels),
	}

	if r.useFilter {
		// Simplified cutoff near the destination Nyquist frequency.
		r.filterAlpha = 0.5
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }
func (r *Resampler) Close() error {
	err := r.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// LengthFrames scales the length of src to the output rate. It returns -1
// when src does not know its length.
func (r *Resampler) LengthFrames() int64 {
	l, ok := r.src.(Lengther)
	if !ok {
		return -1
	}

	n := l.LengthFrames()
	if n < 0 {
		return -1
	}

	return int64(math.Ceil(float64(n) / r.ratio))
}

// SeekFrame seeks src to the source frame matching output frame and drops
// the interpolation window.
func (r *Resampler) SeekFrame(frame int64) error {
	s, ok := r.src.(Seeker)
	if !ok {
		return ErrNotSeekable
	}

	if err := s.SeekFrame(int64(float64(frame) * r.ratio)); err != nil {
		return fmt.Errorf("%w", err)
	}

	for i := range r.frames {
		clear(r.frames[i])
		r.hasFrame[i] = false
	}
	clear(r.filterState)
	r.seeded = false
	r.primed = false
	r.pos = 0
	r.eof = false

	return nil
}

// readFrame pulls one frame from src into dst, applying the low-pass filter.
// A source may return (0, nil) transiently, so it retries a few times.
func (r *Resampler) readFrame(dst []float32) (bool, error) {
	for range 8 {
		n, err := r.src.ReadSamples(r.srcBuf)
		got := n >= r.channels
		if got {
			if r.useFilter {
				if !r.seeded {
					// Seed from the first frame to avoid a warm-up transient.
					copy(r.filterState, r.srcBuf)
					r.seeded = true
				}
				for c := range r.channels {
					// y[n] = alpha * x[n] + (1-alpha) * y[n-1]
					r.srcBuf[c] = r.filterAlpha*r.srcBuf[c] + (1-r.filterAlpha)*r.filterState[c]
					r.filterState[c] = r.srcBuf[c]
				}
			}
			copy(dst, r.srcBuf)
		}

		if err == io.EOF {
			r.eof = true
			return got, nil
		}
		if err != nil {
			return got, fmt.Errorf("%w", err)
		}
		if got {
			return true, nil
		}
	}

	return false, nil
}

// prime loads t0, t+1 and t+2 on first use or after a seek.
func (r *Resampler) prime() error {
	r.hasFrame[0] = false
	for i := 1; i < len(r.frames); i++ {
		r.hasFrame[i] = false
		if r.eof {
			continue
		}

		got, err := r.readFrame(r.frames[i])
		if err != nil {
			return err
		}
		r.hasFrame[i] = got
	}

	r.primed = true
	return nil
}

// advance shifts the window by one source frame.
func (r *Resampler) advance() error {
	r.frames[0], r.frames[1], r.frames[2], r.frames[3] = r.frames[1], r.frames[2], r.frames[3], r.frames[0]
	r.hasFrame[0], r.hasFrame[1], r.hasFrame[2] = r.hasFrame[1], r.hasFrame[2], r.hasFrame[3]
	r.hasFrame[3] = false

	if !r.eof {
		got, err := r.readFrame(r.frames[3])
		if err != nil {
			return err
		}
		r.hasFrame[3] = got
	}

	if !r.hasFrame[1] {
		return io.EOF
	}

	return nil
}

// ReadSamples produces dst samples at r.dstRate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	if !r.hasFrame[1] {
		return 0, io.EOF
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		alpha := float32(r.pos)
		for c := range r.channels {
			y1 := r.frames[1][c]
			y0, y2 := y1, y1
			if r.hasFrame[0] {
				y0 = r.frames[0][c]
			}
			if r.hasFrame[2] {
				y2 = r.frames[2][c]
			}
			y3 := y2
			if r.hasFrame[3] {
				y3 = r.frames[3][c]
			}
			dst[written*r.channels+c] = pcm.CubicInterpolate(y0, y1, y2, y3, alpha)
		}

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}
