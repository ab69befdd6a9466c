// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelAdapter maps src onto a different channel count. Mono input is
// copied to every output channel; otherwise channels are matched by index
// and missing ones are left silent. Use MonoMixer to fold down to mono.
type ChannelAdapter struct {
	src      Source
	channels int
	tmp      []float32
}

func NewChannelAdapter(src Source, channels int) *ChannelAdapter {
	return &ChannelAdapter{
		src:      src,
		channels: channels,
		tmp:      make([]float32, 4096*src.Channels()),
	}
}

func (a *ChannelAdapter) SampleRate() int { return a.src.SampleRate() }
func (a *ChannelAdapter) Channels() int   { return a.channels }
func (a *ChannelAdapter) BufSize() int    { return a.src.BufSize() }
func (a *ChannelAdapter) Close() error {
	if err := a.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (a *ChannelAdapter) SeekFrame(frame int64) error {
	s, ok := a.src.(Seeker)
	if !ok {
		return ErrNotSeekable
	}

	return s.SeekFrame(frame)
}

func (a *ChannelAdapter) LengthFrames() int64 {
	if l, ok := a.src.(Lengther); ok {
		return l.LengthFrames()
	}

	return -1
}

func (a *ChannelAdapter) ReadSamples(dst []float32) (int, error) {
	if len(dst)%a.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	in := a.src.Channels()
	frames := min(len(dst)/a.channels, len(a.tmp)/in)
	if frames == 0 {
		return 0, nil
	}

	n, err := a.src.ReadSamples(a.tmp[:frames*in])
	frames = n / in

	for f := range frames {
		out := dst[f*a.channels : (f+1)*a.channels]
		if in == 1 {
			for c := range out {
				out[c] = a.tmp[f]
			}
			continue
		}

		src := a.tmp[f*in : (f+1)*in]
		m := copy(out, src)
		clear(out[m:])
	}

	return frames * a.channels, err
}

// Conform wraps src so it produces sampleRate Hz with the given number of
// channels. A source that already matches is returned unchanged.
func Conform(src Source, sampleRate, channels int) (Source, error) {
	if sampleRate <= 0 || channels <= 0 || src.SampleRate() <= 0 || src.Channels() <= 0 {
		return nil, ErrInvalidFormat
	}

	out := src
	if out.Channels() != channels {
		if channels == 1 {
			out = NewMonoMixer(out)
		} else {
			out = NewChannelAdapter(out, channels)
		}
	}

	if out.SampleRate() != sampleRate {
		out = NewResampler(out, sampleRate)
	}

	return out, nil
}
