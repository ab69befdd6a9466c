// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/audio"
	"github.com/ik5/pcmbridge/internal/pcm"
)

const (
	channels      = 2
	bytesPerFrame = 4
	readFrames    = 2048
)

// mp3Reader is the part of gomp3.Decoder the source uses.
type mp3Reader interface {
	io.ReadSeeker
	SampleRate() int
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
}

func newSource(dec mp3Reader) *source {
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, readFrames*bytesPerFrame),
	}
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) BufSize() int    { return len(s.buf) / 2 }
func (s *source) Close() error    { return nil }

// LengthFrames returns -1 when the decoder cannot tell the length.
func (s *source) LengthFrames() int64 {
	n := s.dec.Length()
	if n < 0 {
		return -1
	}

	return n / bytesPerFrame
}

func (s *source) SeekFrame(frame int64) error {
	if frame < 0 {
		return fmt.Errorf("frame %d: %w", frame, ErrSeekRange)
	}
	if l := s.LengthFrames(); l >= 0 && frame > l {
		return fmt.Errorf("frame %d of %d: %w", frame, l, ErrSeekRange)
	}

	if _, err := s.dec.Seek(frame*bytesPerFrame, io.SeekStart); err != nil {
		return fmt.Errorf("seek MP3: %w", err)
	}

	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst)%channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	frames := min(len(dst)/channels, readFrames)
	if frames == 0 {
		return 0, nil
	}

	buf := s.buf[:frames*bytesPerFrame]
	n, err := s.dec.Read(buf)

	// Finish a frame split across two reads.
	if rem := n % bytesPerFrame; rem != 0 && err == nil {
		m, ferr := io.ReadFull(s.dec, buf[n:n+bytesPerFrame-rem])
		n += m
		err = ferr
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
	}
	n -= n % bytesPerFrame

	samples := pcm.Int16LEToFloat32(dst, buf[:n])

	if err == io.EOF {
		return samples, io.EOF
	}
	if err != nil {
		return samples, fmt.Errorf("decode MP3: %w", err)
	}

	return samples, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := audio.AsReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	dec, err := gomp3.NewDecoder(rs)
	if err != nil {
		return nil, fmt.Errorf("open MP3: %w", err)
	}

	src := newSource(dec)

	logrus.WithFields(logrus.Fields{
		"function":    "mp3.Decoder.Decode",
		"sample_rate": src.sampleRate,
		"frames":      src.LengthFrames(),
	}).Debug("MP3 stream opened")

	return src, nil
}
