// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge"
	"github.com/ik5/pcmbridge/config"
	"github.com/ik5/pcmbridge/engine"
	"github.com/ik5/pcmbridge/sound"
)

const (
	modeTone   = "tone"
	modeFile   = "file"
	modeStream = "stream"
)

var errUnknownMode = errors.New("unknown mode")

type options struct {
	mode    string
	path    string
	freq    float64
	seconds float64
	loop    bool
	record  string
}

func (o options) flags() engine.Flags {
	if o.loop {
		return engine.FlagLooping
	}
	return 0
}

// toneSamples returns a mono sine at half scale.
func toneSamples(sampleRate int, freq, seconds float64) []float32 {
	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames)

	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}

	return out
}

// openSound builds the sound for opts. In stream mode the returned channel
// yields the producer result once the file has been queued.
func openSound(ctx context.Context, eng engine.Engine, cfg *config.Config, opts options) (*sound.Sound, <-chan error, error) {
	switch opts.mode {
	case modeTone:
		samples := toneSamples(cfg.Engine.SampleRate, opts.freq, opts.seconds)
		snd, err := sound.NewFromPCM(eng, samples, 1, cfg.Engine.SampleRate, opts.flags())
		return snd, nil, err

	case modeFile:
		snd, err := sound.NewFromFile(eng, opts.path, pcmbridge.DefaultRegistry(), opts.flags())
		return snd, nil, err

	case modeStream:
		return openStreaming(ctx, eng, cfg, opts)
	}

	return nil, nil, fmt.Errorf("%q: %w", opts.mode, errUnknownMode)
}

func openStreaming(ctx context.Context, eng engine.Engine, cfg *config.Config, opts options) (*sound.Sound, <-chan error, error) {
	dec, err := pcmbridge.DefaultRegistry().Lookup(opts.path)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(opts.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", opts.path, err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("decode %s: %w", opts.path, err)
	}

	snd, err := sound.NewStreaming(eng, eng.Channels(), eng.SampleRate(), cfg.Stream.CapacityFrames, 0)
	if err != nil {
		_ = src.Close()
		_ = f.Close()
		return nil, nil, err
	}

	st, err := snd.Stream()
	if err != nil {
		_ = snd.Close()
		_ = src.Close()
		_ = f.Close()
		return nil, nil, err
	}

	done := make(chan error, 1)
	go func() {
		defer f.Close()
		defer src.Close()

		_, err := pcmbridge.Pump(ctx, st, src, cfg.Stream.ChunkFrames, 10*time.Millisecond)
		done <- err
	}()

	return snd, done, nil
}

// waitForEnd polls snd until it stopped at its end or ctx is done.
func waitForEnd(ctx context.Context, snd *sound.Sound, poll time.Duration) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		state := snd.State()
		if state == sound.Stopped && snd.AtEnd() {
			return nil
		}

		fields := logrus.Fields{
			"function": "waitForEnd",
			"state":    state.String(),
		}
		if p, err := snd.Progress(); err == nil {
			fields["progress"] = fmt.Sprintf("%.0f%%", p*100)
		} else if c, err := snd.CursorSeconds(); err == nil {
			fields["position"] = fmt.Sprintf("%.1fs", c)
		}
		logrus.WithFields(fields).Debug("Playing")
	}
}
