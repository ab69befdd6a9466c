// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/pcmbridge/internal/audiotest"
)

func TestMonoMixer_Average(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		wave     audiotest.Waveform
		want     float32
	}{
		{
			name:     "stereo",
			channels: 2,
			wave:     func(_, ch int) float32 { return []float32{0.2, 0.4}[ch] },
			want:     0.3,
		},
		{
			name:     "three channels",
			channels: 3,
			wave:     func(_, ch int) float32 { return []float32{0.3, 0.6, 0.9}[ch] },
			want:     0.6,
		},
		{
			name:     "opposite phase",
			channels: 2,
			wave:     func(_, ch int) float32 { return []float32{0.5, -0.5}[ch] },
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewMonoMixer(audiotest.NewMockSource(8000, tt.channels, 16, tt.wave))
			assert.Equal(t, 1, m.Channels())
			assert.Equal(t, 8000, m.SampleRate())

			dst := make([]float32, 32)
			n, err := m.ReadSamples(dst)
			assert.ErrorIs(t, err, io.EOF)
			require.Equal(t, 16, n)

			for i := range n {
				assert.InDelta(t, tt.want, dst[i], 1e-6)
			}
		})
	}
}

func TestMonoMixer_PassThroughMono(t *testing.T) {
	t.Parallel()

	m := NewMonoMixer(audiotest.NewRampSource(8000, 1, 3))

	dst := make([]float32, 8)
	n, err := m.ReadSamples(dst)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []float32{1, 2, 3}, dst[:n])
}

func TestMonoMixer_EmptyDst(t *testing.T) {
	t.Parallel()

	m := NewMonoMixer(audiotest.NewRampSource(8000, 2, 3))

	n, err := m.ReadSamples(nil)
	assert.Zero(t, n)
	assert.NoError(t, err)
}

func TestMonoMixer_LargeRequestIsBounded(t *testing.T) {
	t.Parallel()

	m := NewMonoMixer(audiotest.NewConstantSource(8000, 2, 100_000, 0.5))

	dst := make([]float32, 50_000)
	n, err := m.ReadSamples(dst)
	require.NoError(t, err)
	assert.Equal(t, 4096, n, "one scratch buffer of stereo frames per call")
}

func TestMonoMixer_SeekAndLength(t *testing.T) {
	t.Parallel()

	src := audiotest.NewRampSource(8000, 2, 10)
	m := NewMonoMixer(src)
	assert.Equal(t, int64(10), m.LengthFrames())

	require.NoError(t, m.SeekFrame(7))
	dst := make([]float32, 4)
	n, _ := m.ReadSamples(dst)
	assert.Equal(t, []float32{8, 9, 10}, dst[:n])

	u := NewMonoMixer(audiotest.Unseekable{Src: src})
	assert.ErrorIs(t, u.SeekFrame(0), ErrNotSeekable)
	assert.Equal(t, int64(-1), u.LengthFrames())
}

func TestMonoMixer_ZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	m := NewMonoMixer(audiotest.NewSineSource(48000, 2, 1<<30, 440))
	dst := make([]float32, 1024)

	allocs := testing.AllocsPerRun(100, func() {
		_, _ = m.ReadSamples(dst)
	})
	if allocs > 0 {
		t.Errorf("ReadSamples allocated %v times, want 0", allocs)
	}
}

func BenchmarkMonoMixer_Stereo(b *testing.B) {
	m := NewMonoMixer(audiotest.NewSineSource(48000, 2, 1<<30, 440))
	dst := make([]float32, 4096)

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		_, _ = m.ReadSamples(dst)
	}
}
