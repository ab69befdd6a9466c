// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// MonoMixer averages all channels of src into one.
type MonoMixer struct {
	src Source
	tmp []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{
		src: src,
		tmp: make([]float32, 8192),
	}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }
func (m *MonoMixer) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (m *MonoMixer) SeekFrame(frame int64) error {
	s, ok := m.src.(Seeker)
	if !ok {
		return ErrNotSeekable
	}

	return s.SeekFrame(frame)
}

func (m *MonoMixer) LengthFrames() int64 {
	if l, ok := m.src.(Lengther); ok {
		return l.LengthFrames()
	}

	return -1
}

// ReadSamples reads at most len(m.tmp)/channels frames per call so the
// render path never grows the scratch buffer.
func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels == 1 {
		return m.src.ReadSamples(dst)
	}

	frames := min(len(dst), len(m.tmp)/channels)

	n, err := m.src.ReadSamples(m.tmp[:frames*channels])
	if n == 0 {
		return 0, err
	}
	frames = n / channels

	switch channels {
	case 2:
		for f := range frames {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * 0.5
		}
	default:
		inv := float32(1.0) / float32(channels)
		for f := range frames {
			sum := float32(0)
			base := f * channels
			for c := range channels {
				sum += m.tmp[base+c]
			}
			dst[f] = sum * inv
		}
	}

	return frames, err
}
