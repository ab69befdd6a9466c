// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/audio"
	"github.com/ik5/pcmbridge/internal/pcm"
)

const readFrames = 4096

// aiffReader is the part of aiff.Decoder the source reads from.
type aiffReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec  aiffReader
	open func() (aiffReader, error)

	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	pos        int64

	intBuf *goaudio.IntBuffer
}

func newSource(dec aiffReader, open func() (aiffReader, error), format *goaudio.Format, bitDepth int, frames int64) *source {
	return &source{
		dec:        dec,
		open:       open,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   bitDepth,
		frames:     frames,
		intBuf: &goaudio.IntBuffer{
			Data:           make([]int, readFrames*format.NumChannels),
			Format:         format,
			SourceBitDepth: bitDepth,
		},
	}
}

func (s *source) SampleRate() int     { return s.sampleRate }
func (s *source) Channels() int       { return s.channels }
func (s *source) BufSize() int        { return cap(s.intBuf.Data) }
func (s *source) Close() error        { return nil }
func (s *source) LengthFrames() int64 { return s.frames }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	if s.pos >= s.frames {
		return 0, io.EOF
	}

	frames := min(int64(len(dst)/s.channels), int64(readFrames), s.frames-s.pos)
	if frames == 0 {
		return 0, nil
	}

	s.intBuf.Data = s.intBuf.Data[:frames*int64(s.channels)]
	n, err := s.dec.PCMBuffer(s.intBuf)
	n -= n % s.channels

	for i, v := range s.intBuf.Data[:n] {
		dst[i] = pcm.IntToFloat32(v, s.bitDepth)
	}
	s.pos += int64(n / s.channels)

	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read AIFF samples: %w", err)
	}

	if n == 0 || err == io.EOF || s.pos >= s.frames {
		s.pos = max(s.pos, s.frames)
		return n, io.EOF
	}

	return n, nil
}

func (s *source) SeekFrame(frame int64) error {
	if frame < 0 || frame > s.frames {
		return fmt.Errorf("frame %d of %d: %w", frame, s.frames, ErrSeekRange)
	}

	dec, err := s.open()
	if err != nil {
		return fmt.Errorf("rewind AIFF: %w", err)
	}
	s.dec = dec
	s.pos = 0

	for s.pos < frame {
		want := min(frame-s.pos, int64(readFrames))
		s.intBuf.Data = s.intBuf.Data[:want*int64(s.channels)]

		n, err := s.dec.PCMBuffer(s.intBuf)
		s.pos += int64(n / s.channels)
		if n == 0 || err != nil {
			break
		}
	}

	return nil
}

// Decoder reads AIFF files through go-audio/aiff. Input that is not an
// io.ReadSeeker is buffered in memory.
type Decoder struct{}

func openDecoder(rs io.ReadSeeker) (*aiff.Decoder, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	return dec, nil
}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := audio.AsReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	dec, err := openDecoder(rs)
	if err != nil {
		return nil, err
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%d bits: %w", bitDepth, ErrUnsupportedBitDepth)
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, ErrUnsupportedLayout
	}

	open := func() (aiffReader, error) {
		return openDecoder(rs)
	}

	frames := int64(dec.NumSampleFrames)

	logrus.WithFields(logrus.Fields{
		"function":    "aiff.Decoder.Decode",
		"sample_rate": format.SampleRate,
		"channels":    format.NumChannels,
		"bit_depth":   bitDepth,
		"frames":      frames,
	}).Debug("AIFF stream opened")

	return newSource(dec, open, format, bitDepth, frames), nil
}
