// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/formats/wav"
	"github.com/ik5/pcmbridge/ring"
)

// tee copies the rendered mix into a WAV file. capture runs on the device
// callback and only touches the ring; run drains the ring on its own
// goroutine.
type tee struct {
	rb      *ring.Buffer
	rec     *wav.Recorder
	dropped atomic.Int64
}

func newTee(w io.WriteSeeker, sampleRate, channels, capacityFrames int) (*tee, error) {
	rb, err := ring.New(channels, sampleRate, capacityFrames)
	if err != nil {
		return nil, fmt.Errorf("record buffer: %w", err)
	}

	rec, err := wav.NewRecorder(w, sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("record file: %w", err)
	}

	return &tee{rb: rb, rec: rec}, nil
}

// capture queues out. Frames that do not fit are counted and dropped.
func (t *tee) capture(out []float32) {
	ch := t.rb.Channels()
	frames := len(out) / ch
	written := 0

	for written < frames {
		dst := t.rb.AcquireWrite(frames - written)
		if len(dst) == 0 {
			break
		}

		n := copy(dst, out[written*ch:frames*ch]) / ch
		_ = t.rb.CommitWrite(n)
		written += n
	}

	if written < frames {
		t.dropped.Add(int64(frames - written))
	}
}

func (t *tee) drain() error {
	ch := t.rb.Channels()

	for {
		src := t.rb.AcquireRead(t.rb.AvailableRead())
		if len(src) == 0 {
			return nil
		}

		if err := t.rec.Write(src); err != nil {
			return err
		}
		_ = t.rb.CommitRead(len(src) / ch)
	}
}

// run drains every poll until ctx is done, then writes what is left and
// finalizes the file.
func (t *tee) run(ctx context.Context, poll time.Duration) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := t.drain(); err != nil {
				_ = t.rec.Close()
				return err
			}

			logrus.WithFields(logrus.Fields{
				"function": "tee.run",
				"frames":   t.rec.Frames(),
				"dropped":  t.dropped.Load(),
			}).Info("Recording finished")

			return t.rec.Close()
		case <-ticker.C:
			if err := t.drain(); err != nil {
				_ = t.rec.Close()
				return err
			}
		}
	}
}
