// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/audio"
	"github.com/ik5/pcmbridge/internal/pcm"
)

const (
	wavFormatPCM = 1
	readFrames   = 4096
)

// pcmReader is the part of wav.Decoder the source reads from.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec  pcmReader
	open func() (pcmReader, error)

	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	pos        int64

	intBuf *goaudio.IntBuffer
}

func newSource(dec pcmReader, open func() (pcmReader, error), sampleRate, channels, bitDepth int, frames int64) *source {
	return &source{
		dec:        dec,
		open:       open,
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
		frames:     frames,
		intBuf: &goaudio.IntBuffer{
			Data:           make([]int, readFrames*channels),
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}
}

func (s *source) SampleRate() int     { return s.sampleRate }
func (s *source) Channels() int       { return s.channels }
func (s *source) BufSize() int        { return len(s.intBuf.Data) }
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
		if s.bitDepth == 8 {
			// 8-bit WAV is unsigned.
			v -= 128
		}
		dst[i] = pcm.IntToFloat32(v, s.bitDepth)
	}
	s.pos += int64(n / s.channels)

	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read WAV samples: %w", err)
	}

	if n == 0 || s.pos >= s.frames || err == io.EOF {
		s.pos = max(s.pos, s.frames)
		return n, io.EOF
	}

	return n, nil
}

// SeekFrame rewinds the decoder to the start of the PCM data and skips to
// frame.
func (s *source) SeekFrame(frame int64) error {
	if frame < 0 || frame > s.frames {
		return fmt.Errorf("frame %d of %d: %w", frame, s.frames, ErrSeekRange)
	}

	dec, err := s.open()
	if err != nil {
		return fmt.Errorf("rewind WAV: %w", err)
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

// Decoder reads integer PCM WAV files through go-audio/wav. Input that is
// not an io.ReadSeeker is buffered in memory.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := audio.AsReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("locate WAV data: %w", err)
	}

	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("format tag %d: %w", dec.WavAudioFormat, ErrUnsupportedEncoding)
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%d bits: %w", bitDepth, ErrUnsupportedBitDepth)
	}

	channels := int(dec.NumChans)
	sampleRate := int(dec.SampleRate)
	if channels <= 0 || sampleRate <= 0 {
		return nil, ErrInvalidFormat
	}

	frames := int64(dec.PCMSize) / int64(channels*bitDepth/8)

	open := func() (pcmReader, error) {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}

		d := wav.NewDecoder(rs)
		if err := d.FwdToPCM(); err != nil {
			return nil, err
		}

		return d, nil
	}

	logrus.WithFields(logrus.Fields{
		"function":    "wav.Decoder.Decode",
		"sample_rate": sampleRate,
		"channels":    channels,
		"bit_depth":   bitDepth,
		"frames":      frames,
	}).Debug("WAV stream opened")

	return newSource(dec, open, sampleRate, channels, bitDepth, frames), nil
}
