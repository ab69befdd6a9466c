// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/audio"
)

// oggReader is the part of oggvorbis.Reader the source uses. Read returns
// a count of samples, not frames.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
	SetPosition(pos int64) error
	Length() int64
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
}

func (s *source) SampleRate() int     { return s.sampleRate }
func (s *source) Channels() int       { return s.channels }
func (s *source) BufSize() int        { return 4096 * s.channels }
func (s *source) Close() error        { return nil }
func (s *source) LengthFrames() int64 { return s.dec.Length() }

func (s *source) SeekFrame(frame int64) error {
	if frame < 0 || frame > s.dec.Length() {
		return fmt.Errorf("frame %d of %d: %w", frame, s.dec.Length(), ErrSeekRange)
	}

	if err := s.dec.SetPosition(frame); err != nil {
		return fmt.Errorf("seek Vorbis: %w", err)
	}

	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	if len(dst) == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst)
	n -= n % s.channels

	if err == io.EOF {
		return n, io.EOF
	}
	if err != nil {
		return n, fmt.Errorf("decode Vorbis: %w", err)
	}

	return n, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := audio.AsReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	dec, err := oggvorbis.NewReader(rs)
	if err != nil {
		return nil, fmt.Errorf("open Vorbis: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "vorbis.Decoder.Decode",
		"sample_rate": dec.SampleRate(),
		"channels":    dec.Channels(),
		"frames":      dec.Length(),
	}).Debug("Vorbis stream opened")

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}
