// SPDX-License-Identifier: EPL-2.0

package opus

import (
	"context"
	"fmt"
	"time"

	pionopus "github.com/pion/opus"
	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/internal/pcm"
	"github.com/ik5/pcmbridge/stream"
)

// packetDecoder is the part of opus.Decoder the feeder uses. Output is
// interleaved signed 16-bit little-endian PCM.
type packetDecoder interface {
	Decode(in, out []byte) (pionopus.Bandwidth, bool, error)
}

// Feeder decodes packets into a stream. It is not safe for concurrent use
// and belongs to the stream's producer goroutine.
type Feeder struct {
	st       *stream.Stream
	dec      packetDecoder
	channels int

	raw     []byte
	decoded []float32
	pending []float32

	bandwidth pionopus.Bandwidth
	packets   int64
	dropped   int64
}

// NewFeeder creates a feeder for st, which must run at OutputRate with one
// or two channels. backlogFrames bounds how many decoded frames may wait
// for ring space; it must be at least one full packet.
func NewFeeder(st *stream.Stream, backlogFrames int) (*Feeder, error) {
	d := pionopus.NewDecoder()
	return newFeeder(st, &d, backlogFrames)
}

func newFeeder(st *stream.Stream, dec packetDecoder, backlogFrames int) (*Feeder, error) {
	if st == nil || dec == nil {
		return nil, fmt.Errorf("nil stream or decoder: %w", stream.ErrInvalidArgument)
	}

	if st.SampleRate() != OutputRate {
		return nil, fmt.Errorf("stream at %d Hz: %w", st.SampleRate(), ErrSampleRateMismatch)
	}

	ch := st.Channels()
	if ch != 1 && ch != 2 {
		return nil, fmt.Errorf("%d channels: %w", ch, ErrUnsupportedChannels)
	}

	if backlogFrames < maxPacketFrames {
		return nil, fmt.Errorf("backlog of %d frames is below one packet (%d): %w",
			backlogFrames, maxPacketFrames, stream.ErrInvalidArgument)
	}

	f := &Feeder{
		st:       st,
		dec:      dec,
		channels: ch,
		raw:      make([]byte, maxPacketFrames*2*2),
		decoded:  make([]float32, maxPacketFrames*2),
		pending:  make([]float32, 0, backlogFrames*ch),
	}

	logrus.WithFields(logrus.Fields{
		"function":       "opus.NewFeeder",
		"channels":       ch,
		"backlog_frames": backlogFrames,
	}).Debug("Opus feeder created")

	return f, nil
}

// Bandwidth reports the bandwidth of the last decoded packet.
func (f *Feeder) Bandwidth() pionopus.Bandwidth { return f.bandwidth }

// Packets reports how many packets were decoded.
func (f *Feeder) Packets() int64 { return f.packets }

// Dropped reports how many decoded packets were discarded because the
// backlog was full.
func (f *Feeder) Dropped() int64 { return f.dropped }

// Pending reports how many frames wait in the backlog.
func (f *Feeder) Pending() int { return len(f.pending) / f.channels }

// Feed decodes one packet and appends it to the stream. It returns the
// number of frames that reached the ring during this call, which may
// include older backlog. A packet that does not fit in the backlog is
// dropped and ErrBacklog is returned.
func (f *Feeder) Feed(packet []byte) (int, error) {
	info, err := parseTOC(packet)
	if err != nil {
		return 0, err
	}

	bw, stereo, err := f.dec.Decode(packet, f.raw)
	if err != nil {
		return 0, fmt.Errorf("decode Opus packet: %w", err)
	}
	f.bandwidth = bw
	f.packets++

	srcCh := 1
	if stereo {
		srcCh = 2
	}
	frames := info.frames()
	pcm.Int16LEToFloat32(f.decoded, f.raw[:frames*srcCh*2])

	written, err := f.Flush()
	if err != nil {
		return written, err
	}

	if len(f.pending)+frames*f.channels > cap(f.pending) {
		f.dropped++
		logrus.WithFields(logrus.Fields{
			"function": "opus.Feeder.Feed",
			"pending":  f.Pending(),
			"frames":   frames,
		}).Warn("Opus backlog full, dropping packet")
		return written, ErrBacklog
	}

	f.pending = appendFrames(f.pending, f.decoded[:frames*srcCh], srcCh, f.channels)

	n, err := f.Flush()
	return written + n, err
}

// appendFrames converts interleaved frames from srcCh to dstCh channels.
func appendFrames(dst, src []float32, srcCh, dstCh int) []float32 {
	switch {
	case srcCh == dstCh:
		return append(dst, src...)
	case srcCh == 2 && dstCh == 1:
		for i := 0; i+1 < len(src); i += 2 {
			dst = append(dst, (src[i]+src[i+1])*0.5)
		}
	default:
		for _, v := range src {
			dst = append(dst, v, v)
		}
	}

	return dst
}

// Flush moves as much of the backlog into the ring as fits.
func (f *Feeder) Flush() (int, error) {
	if len(f.pending) == 0 {
		return 0, nil
	}

	n, err := f.st.AppendSamples(f.pending)
	used := n * f.channels
	rest := copy(f.pending, f.pending[used:])
	f.pending = f.pending[:rest]

	return n, err
}

// Drain appends the whole backlog, waiting for ring space, then marks the
// end of the stream.
func (f *Feeder) Drain(ctx context.Context, retry time.Duration) error {
	n, err := f.st.AppendAll(ctx, f.pending, retry)
	rest := copy(f.pending, f.pending[n*f.channels:])
	f.pending = f.pending[:rest]
	if err != nil {
		return fmt.Errorf("drain Opus backlog: %w", err)
	}

	if err := f.st.MarkEnd(); err != nil {
		return fmt.Errorf("drain Opus backlog: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "opus.Feeder.Drain",
		"packets":  f.packets,
		"dropped":  f.dropped,
	}).Debug("Opus feeder drained")

	return nil
}
