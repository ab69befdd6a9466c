// SPDX-License-Identifier: EPL-2.0

package pcmbridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/audio"
	"github.com/ik5/pcmbridge/formats/aiff"
	"github.com/ik5/pcmbridge/formats/mp3"
	"github.com/ik5/pcmbridge/formats/vorbis"
	"github.com/ik5/pcmbridge/formats/wav"
	"github.com/ik5/pcmbridge/stream"
)

// DefaultRegistry returns a registry with the WAV, MP3, Ogg Vorbis and AIFF
// decoders.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})

	return reg
}

// Pump reads src in chunks of chunkFrames, converts it to the stream
// format and queues it, waiting retry whenever the ring is full. When src
// is exhausted the end of the stream is marked. Pump returns the number of
// frames queued; src is not closed.
func Pump(ctx context.Context, st *stream.Stream, src audio.Source, chunkFrames int, retry time.Duration) (int64, error) {
	if st == nil || src == nil || chunkFrames <= 0 {
		return 0, fmt.Errorf("pump: %w", stream.ErrInvalidArgument)
	}

	conformed, err := audio.Conform(src, st.SampleRate(), st.Channels())
	if err != nil {
		return 0, fmt.Errorf("pump: %w", err)
	}

	ch := st.Channels()
	buf := make([]float32, chunkFrames*ch)

	var total int64
	for {
		n, rerr := conformed.ReadSamples(buf)
		n -= n % ch

		if n > 0 {
			w, err := st.AppendAll(ctx, buf[:n], retry)
			total += int64(w)
			if err != nil {
				return total, fmt.Errorf("pump: %w", err)
			}
		}

		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return total, fmt.Errorf("pump: read source: %w", rerr)
		}
	}

	if err := st.MarkEnd(); err != nil {
		return total, fmt.Errorf("pump: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "pcmbridge.Pump",
		"frames":   total,
	}).Debug("Source pumped into stream")

	return total, nil
}
