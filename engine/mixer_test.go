// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/pcmbridge/audio"
	"github.com/ik5/pcmbridge/internal/audiotest"
)

func newTestMixer(t *testing.T, channels, period int) *Mixer {
	t.Helper()

	m, err := NewMixer(Config{SampleRate: 8000, Channels: channels, PeriodFrames: period})
	require.NoError(t, err)

	return m
}

func TestNewMixer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{SampleRate: 48000, Channels: 2, PeriodFrames: 256}},
		{name: "default period", cfg: Config{SampleRate: 48000, Channels: 2}},
		{name: "zero rate", cfg: Config{Channels: 2}, wantErr: true},
		{name: "zero channels", cfg: Config{SampleRate: 48000}, wantErr: true},
		{name: "negative period", cfg: Config{SampleRate: 48000, Channels: 1, PeriodFrames: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := NewMixer(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Nil(t, m)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.cfg.SampleRate, m.SampleRate())
			assert.Equal(t, tt.cfg.Channels, m.Channels())
			assert.Positive(t, m.PeriodFrames())
		})
	}
}

func TestAttach_Errors(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1, 4)

	_, err := m.Attach(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, m.Close())
	_, err = m.Attach(audiotest.NewRampSource(8000, 1, 4), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRender_StoppedVoiceIsSilent(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1, 4)
	v, err := m.Attach(audiotest.NewConstantSource(8000, 1, 100, 0.5), 0)
	require.NoError(t, err)

	out := make([]float32, 8)
	m.Render(out)

	assert.Equal(t, make([]float32, 8), out)
	assert.False(t, v.IsPlaying())
	assert.Equal(t, int64(0), v.Cursor())
}

func TestVoice_PlaysToEnd(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1, 4)
	v, err := m.Attach(audiotest.NewRampSource(8000, 1, 10), 0)
	require.NoError(t, err)

	var ends atomic.Int32
	v.OnEnd(func() { ends.Add(1) })

	require.NoError(t, v.Start())
	assert.False(t, v.IsPlaying(), "not playing before the first render")

	out := make([]float32, 8)
	m.Render(out)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, out)
	assert.True(t, v.IsPlaying())
	assert.Equal(t, int64(8), v.Cursor())

	m.Render(out)
	assert.Equal(t, []float32{9, 10, 0, 0, 0, 0, 0, 0}, out)
	assert.False(t, v.IsPlaying())
	assert.True(t, v.IsAtEnd())
	assert.Equal(t, int32(1), ends.Load())

	m.Render(out)
	assert.Equal(t, int32(1), ends.Load(), "end fires once")
	assert.Equal(t, int64(16+8), m.Time())
}

func TestVoice_StartAfterEndRewinds(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1, 4)
	v, err := m.Attach(audiotest.NewRampSource(8000, 1, 2), 0)
	require.NoError(t, err)

	out := make([]float32, 4)
	require.NoError(t, v.Start())
	m.Render(out)
	require.True(t, v.IsAtEnd())

	require.NoError(t, v.Start())
	assert.False(t, v.IsAtEnd())

	m.Render(out)
	assert.Equal(t, []float32{1, 2, 0, 0}, out)
}

func TestVoice_Looping(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1, 4)
	v, err := m.Attach(audiotest.NewRampSource(8000, 1, 3), FlagLooping)
	require.NoError(t, err)

	var ends atomic.Int32
	v.OnEnd(func() { ends.Add(1) })
	require.NoError(t, v.Start())

	out := make([]float32, 7)
	m.Render(out)

	assert.Equal(t, []float32{1, 2, 3, 1, 2, 3, 1}, out)
	assert.True(t, v.IsPlaying())
	assert.Equal(t, int64(1), v.Cursor())
	assert.Zero(t, ends.Load())
}

func TestVoice_SetLooping(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1, 4)
	v, err := m.Attach(audiotest.NewRampSource(8000, 1, 3), 0)
	require.NoError(t, err)
	assert.False(t, v.Looping())

	var ends atomic.Int32
	v.OnEnd(func() { ends.Add(1) })

	v.SetLooping(true)
	assert.True(t, v.Looping())
	require.NoError(t, v.Start())

	out := make([]float32, 4)
	m.Render(out)
	assert.Equal(t, []float32{1, 2, 3, 1}, out)
	assert.Zero(t, ends.Load())

	v.SetLooping(false)
	out = make([]float32, 4)
	m.Render(out)

	assert.Equal(t, []float32{2, 3, 0, 0}, out)
	assert.True(t, v.IsAtEnd())
	assert.Equal(t, int32(1), ends.Load())
}

func TestVoice_LoopingEmptySourceEnds(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1, 4)
	v, err := m.Attach(audiotest.NewRampSource(8000, 1, 0), FlagLooping)
	require.NoError(t, err)
	require.NoError(t, v.Start())

	m.Render(make([]float32, 4))

	assert.True(t, v.IsAtEnd())
	assert.False(t, v.IsPlaying())
}

func TestVoice_Seek(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1, 4)
	v, err := m.Attach(audiotest.NewRampSource(8000, 1, 100), 0)
	require.NoError(t, err)

	n, ok := v.Length()
	assert.True(t, ok)
	assert.Equal(t, int64(100), n)

	require.NoError(t, v.Seek(50))
	assert.Equal(t, int64(50), v.Cursor(), "pending seek is reported")

	require.NoError(t, v.Start())
	out := make([]float32, 2)
	m.Render(out)
	assert.Equal(t, []float32{51, 52}, out)
	assert.Equal(t, int64(52), v.Cursor())

	assert.ErrorIs(t, v.Seek(-1), ErrInvalidArgument)
	assert.ErrorIs(t, v.Seek(101), ErrInvalidArgument)
}

func TestVoice_SeekUnseekable(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1, 4)
	v, err := m.Attach(audiotest.Unseekable{Src: audiotest.NewRampSource(8000, 1, 10)}, 0)
	require.NoError(t, err)

	assert.ErrorIs(t, v.Seek(0), audio.ErrNotSeekable)

	_, ok := v.Length()
	assert.False(t, ok)
}

func TestVoice_Stop(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1, 4)
	v, err := m.Attach(audiotest.NewConstantSource(8000, 1, 100, 0.5), 0)
	require.NoError(t, err)
	require.NoError(t, v.Start())

	out := make([]float32, 4)
	m.Render(out)
	require.True(t, v.IsPlaying())

	require.NoError(t, v.Stop())
	assert.False(t, v.IsPlaying())

	m.Render(out)
	assert.Equal(t, make([]float32, 4), out)
	assert.False(t, v.IsAtEnd())
}

func TestRender_SumsVoices(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 2, 16)
	a, err := m.Attach(audiotest.NewConstantSource(8000, 2, 100, 0.25), 0)
	require.NoError(t, err)
	b, err := m.Attach(audiotest.NewConstantSource(8000, 2, 100, 0.5), 0)
	require.NoError(t, err)

	require.NoError(t, a.Start())
	require.NoError(t, b.Start())

	out := make([]float32, 8)
	m.Render(out)
	for _, s := range out {
		assert.InDelta(t, 0.75, s, 1e-6)
	}
	assert.Equal(t, 2, m.Voices())
}

func TestAttach_ConformsChannels(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 2, 16)
	v, err := m.Attach(audiotest.NewRampSource(8000, 1, 3), 0)
	require.NoError(t, err)
	require.NoError(t, v.Start())

	out := make([]float32, 6)
	m.Render(out)
	assert.Equal(t, []float32{1, 1, 2, 2, 3, 3}, out)
}

func TestDetach(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1, 4)
	v, err := m.Attach(audiotest.NewRampSource(8000, 1, 10), 0)
	require.NoError(t, err)

	other := newTestMixer(t, 1, 4)
	assert.ErrorIs(t, other.Detach(v), ErrUnknownVoice)

	require.NoError(t, m.Detach(v))
	assert.Zero(t, m.Voices())
	assert.ErrorIs(t, m.Detach(v), ErrDetached)
	assert.ErrorIs(t, v.Start(), ErrDetached)
	assert.ErrorIs(t, v.Stop(), ErrDetached)
	assert.ErrorIs(t, v.Seek(0), ErrDetached)
}

func TestDetach_WhileRendering(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 2, 64)
	src := audiotest.NewSineSource(8000, 2, 1<<30, 440)
	v, err := m.Attach(src, 0)
	require.NoError(t, err)
	require.NoError(t, v.Start())

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		out := make([]float32, 128)
		for {
			select {
			case <-stop:
				return
			default:
				m.Render(out)
			}
		}
	}()

	for src.Reads() < 10 {
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, m.Detach(v))
	reads := src.Reads()

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, reads, src.Reads(), "source read after detach")

	close(stop)
	wg.Wait()
}

func TestRender_ZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	m := newTestMixer(t, 2, 256)
	v, err := m.Attach(audiotest.NewConstantSource(8000, 2, 1<<30, 0.1), 0)
	require.NoError(t, err)
	require.NoError(t, v.Start())

	out := make([]float32, 512)
	allocs := testing.AllocsPerRun(200, func() {
		m.Render(out)
	})
	if allocs > 0 {
		t.Errorf("Render allocated %v times, want 0", allocs)
	}
}

func BenchmarkRender(b *testing.B) {
	m, err := NewMixer(Config{SampleRate: 48000, Channels: 2, PeriodFrames: 512})
	if err != nil {
		b.Fatal(err)
	}

	for range 8 {
		v, err := m.Attach(audiotest.NewSineSource(48000, 2, 1<<30, 440), 0)
		if err != nil {
			b.Fatal(err)
		}
		_ = v.Start()
	}

	out := make([]float32, 512*2)

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		m.Render(out)
	}
}
