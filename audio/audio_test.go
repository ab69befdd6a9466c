// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/pcmbridge/internal/audiotest"
)

type mockDecoder struct {
	name string
}

func (d *mockDecoder) Decode(io.Reader) (Source, error) {
	return audiotest.NewSilentSource(44100, 2, 100), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	wavDec := &mockDecoder{name: "wav"}
	mp3Dec := &mockDecoder{name: "mp3"}

	reg.Register("WAV", wavDec)
	reg.Register("mp3", mp3Dec)

	tests := []struct {
		format string
		want   Decoder
		wantOK bool
	}{
		{"wav", wavDec, true},
		{"Wav", wavDec, true},
		{"mp3", mp3Dec, true},
		{"flac", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			got, ok := reg.Get(tt.format)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Same(t, tt.want, got)
			}
		})
	}

	assert.Equal(t, []string{"mp3", "wav"}, reg.Formats())
}

func TestRegistry_Replace(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	first := &mockDecoder{name: "first"}
	second := &mockDecoder{name: "second"}

	reg.Register("ogg", first)
	reg.Register("ogg", second)

	got, ok := reg.Get("ogg")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	dec := &mockDecoder{name: "wav"}
	reg.Register("wav", dec)

	got, err := reg.Lookup("/tmp/sounds/intro.WAV")
	require.NoError(t, err)
	assert.Same(t, dec, got)

	_, err = reg.Lookup("README")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = reg.Lookup("song.flac")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestMemorySource(t *testing.T) {
	t.Parallel()

	src, err := NewMemorySource([]float32{1, 2, 3, 4, 5, 6}, 2, 8000)
	require.NoError(t, err)
	assert.Equal(t, int64(3), src.LengthFrames())
	assert.Equal(t, 2, src.Channels())
	assert.Equal(t, 8000, src.SampleRate())

	buf := make([]float32, 4)
	n, err := src.ReadSamples(buf)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, buf[:n])

	n, err = src.ReadSamples(buf)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []float32{5, 6}, buf[:n])

	n, err = src.ReadSamples(buf)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, src.SeekFrame(1))
	n, _ = src.ReadSamples(buf)
	assert.Equal(t, []float32{3, 4, 5, 6}, buf[:n])

	assert.Error(t, src.SeekFrame(4))
	assert.Error(t, src.SeekFrame(-1))

	_, err = src.ReadSamples(make([]float32, 3))
	assert.ErrorIs(t, err, ErrInvalidDstSize)
}

func TestMemorySource_CopiesInput(t *testing.T) {
	t.Parallel()

	in := []float32{0.1, 0.2}
	src, err := NewMemorySource(in, 1, 8000)
	require.NoError(t, err)

	in[0] = 9

	buf := make([]float32, 2)
	_, _ = src.ReadSamples(buf)
	assert.Equal(t, float32(0.1), buf[0])
}

func TestNewMemorySource_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewMemorySource(nil, 0, 8000)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = NewMemorySource(nil, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = NewMemorySource(make([]float32, 3), 2, 8000)
	assert.ErrorIs(t, err, ErrInvalidDstSize)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestAsReadSeeker(t *testing.T) {
	t.Parallel()

	br := bytes.NewReader([]byte("abc"))
	rs, err := AsReadSeeker(br)
	require.NoError(t, err)
	assert.Same(t, br, rs)

	rs, err = AsReadSeeker(strings.NewReader("hello"))
	require.NoError(t, err)
	_, err = rs.Seek(1, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(rs)
	require.NoError(t, err)
	assert.Equal(t, "ello", string(rest))

	_, err = AsReadSeeker(io.MultiReader(failingReader{}))
	assert.Error(t, err)
}

func TestChannelAdapter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   int
		out  int
		want []float32
	}{
		{name: "mono to stereo", in: 1, out: 2, want: []float32{1, 1, 2, 2}},
		{name: "stereo to quad", in: 2, out: 4, want: []float32{1, 1, 0, 0, 2, 2, 0, 0}},
		{name: "quad to stereo", in: 4, out: 2, want: []float32{1, 1, 2, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := NewChannelAdapter(audiotest.NewRampSource(8000, tt.in, 2), tt.out)
			assert.Equal(t, tt.out, a.Channels())
			assert.Equal(t, int64(2), a.LengthFrames())

			dst := make([]float32, 4*tt.out)
			n, err := a.ReadSamples(dst)
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, tt.want, dst[:n])
		})
	}
}

func TestChannelAdapter_SeekAndErrors(t *testing.T) {
	t.Parallel()

	src := audiotest.NewRampSource(8000, 1, 10)
	a := NewChannelAdapter(src, 2)

	_, err := a.ReadSamples(make([]float32, 3))
	assert.ErrorIs(t, err, ErrInvalidDstSize)

	require.NoError(t, a.SeekFrame(8))
	dst := make([]float32, 4)
	n, _ := a.ReadSamples(dst)
	assert.Equal(t, []float32{9, 9, 10, 10}, dst[:n])

	u := NewChannelAdapter(audiotest.Unseekable{Src: src}, 2)
	assert.ErrorIs(t, u.SeekFrame(0), ErrNotSeekable)
	assert.Equal(t, int64(-1), u.LengthFrames())

	require.NoError(t, a.Close())
	assert.True(t, src.Closed())
}

func TestConform(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(48000, 2, 10)

	same, err := Conform(src, 48000, 2)
	require.NoError(t, err)
	assert.Same(t, src, same)

	mono, err := Conform(src, 48000, 1)
	require.NoError(t, err)
	assert.IsType(t, &MonoMixer{}, mono)

	wide, err := Conform(src, 48000, 6)
	require.NoError(t, err)
	assert.IsType(t, &ChannelAdapter{}, wide)

	both, err := Conform(src, 16000, 1)
	require.NoError(t, err)
	assert.IsType(t, &Resampler{}, both)
	assert.Equal(t, 16000, both.SampleRate())
	assert.Equal(t, 1, both.Channels())

	_, err = Conform(src, 0, 2)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = Conform(audiotest.NewSilentSource(0, 2, 10), 48000, 2)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
