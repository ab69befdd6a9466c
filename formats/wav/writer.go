// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/pcmbridge/internal/pcm"
)

const writeChunk = 8192

// Recorder writes float32 frames to a 16-bit PCM WAV file. The header sizes
// are patched by Close, so w must be seekable.
type Recorder struct {
	enc      *wav.Encoder
	buf      *goaudio.IntBuffer
	channels int
	frames   int64
	closed   bool
}

func NewRecorder(w io.WriteSeeker, sampleRate, channels int) (*Recorder, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, ErrInvalidFormat
	}

	return &Recorder{
		enc:      wav.NewEncoder(w, sampleRate, 16, channels, wavFormatPCM),
		channels: channels,
		buf: &goaudio.IntBuffer{
			Data:           make([]int, 0, writeChunk),
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// Write appends interleaved samples. A trailing partial frame is rejected.
func (r *Recorder) Write(samples []float32) error {
	if r.closed {
		return ErrRecorderClosed
	}

	if len(samples)%r.channels != 0 {
		return fmt.Errorf("%d samples for %d channels: %w", len(samples), r.channels, ErrInvalidFormat)
	}

	for len(samples) > 0 {
		chunk := samples[:min(len(samples), writeChunk)]
		samples = samples[len(chunk):]

		r.buf.Data = r.buf.Data[:len(chunk)]
		for i, v := range chunk {
			r.buf.Data[i] = int(pcm.Float32ToInt16(v))
		}

		if err := r.enc.Write(r.buf); err != nil {
			return fmt.Errorf("write WAV samples: %w", err)
		}
		r.frames += int64(len(chunk) / r.channels)
	}

	return nil
}

// Frames returns the number of frames written so far.
func (r *Recorder) Frames() int64 { return r.frames }

// Close finalizes the header. It does not close the underlying writer.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.enc.Close(); err != nil {
		return fmt.Errorf("finalize WAV: %w", err)
	}

	return nil
}

// WriteWAV16 writes interleaved 16-bit samples as a complete WAV file.
func WriteWAV16(w io.WriteSeeker, sampleRate, channels int, samples []int16) error {
	if sampleRate <= 0 || channels <= 0 {
		return ErrInvalidFormat
	}

	if len(samples)%channels != 0 {
		return fmt.Errorf("%d samples for %d channels: %w", len(samples), channels, ErrInvalidFormat)
	}

	enc := wav.NewEncoder(w, sampleRate, 16, channels, wavFormatPCM)

	buf := &goaudio.IntBuffer{
		Data:           make([]int, 0, min(len(samples), writeChunk)),
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}

	for len(samples) > 0 {
		chunk := samples[:min(len(samples), writeChunk)]
		samples = samples[len(chunk):]

		buf.Data = buf.Data[:len(chunk)]
		for i, v := range chunk {
			buf.Data[i] = int(v)
		}

		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("write WAV samples: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize WAV: %w", err)
	}

	return nil
}
