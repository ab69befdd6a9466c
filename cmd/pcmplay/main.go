// SPDX-License-Identifier: EPL-2.0

// Command pcmplay plays a tone, a file or a file pushed through a streaming
// sound on the default PortAudio output device.
//
//	pcmplay -mode tone -freq 440 -seconds 2
//	pcmplay -mode file -path intro.ogg -loop
//	pcmplay -mode stream -path talk.mp3 -record mix.wav
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/config"
	"github.com/ik5/pcmbridge/engine"
	"github.com/ik5/pcmbridge/internal/logging"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "pcmplay:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		opts       options
		configPath string
		envPath    string
	)

	flag.StringVar(&opts.mode, "mode", modeTone, "tone, file or stream")
	flag.StringVar(&opts.path, "path", "", "audio file for file and stream modes")
	flag.Float64Var(&opts.freq, "freq", 440, "tone frequency in Hz")
	flag.Float64Var(&opts.seconds, "seconds", 2, "tone length in seconds")
	flag.BoolVar(&opts.loop, "loop", false, "loop until interrupted")
	flag.StringVar(&opts.record, "record", "", "also write the mix to this WAV file")
	flag.StringVar(&configPath, "config", "", "YAML configuration file")
	flag.StringVar(&envPath, "env", ".env", "dotenv file with PCMBRIDGE_* overrides")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if err := cfg.LoadEnv(envPath); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logging.Setup(cfg.Logging, os.Stderr); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mix, err := engine.NewMixer(engine.Config{
		SampleRate:   cfg.Engine.SampleRate,
		Channels:     cfg.Engine.Channels,
		PeriodFrames: cfg.Engine.PeriodFrames,
	})
	if err != nil {
		return err
	}
	defer mix.Close()

	var (
		rec     *tee
		recDone chan error
	)
	recCtx, stopRec := context.WithCancel(context.Background())
	defer stopRec()

	if opts.record != "" {
		f, err := os.Create(opts.record)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.record, err)
		}
		defer f.Close()

		rec, err = newTee(f, cfg.Engine.SampleRate, cfg.Engine.Channels, cfg.Stream.CapacityFrames)
		if err != nil {
			return err
		}

		recDone = make(chan error, 1)
		go func() { recDone <- rec.run(recCtx, 50*time.Millisecond) }()
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	device, err := portaudio.OpenDefaultStream(0, cfg.Engine.Channels, float64(cfg.Engine.SampleRate), cfg.Engine.PeriodFrames,
		func(out []float32) {
			mix.Render(out)
			if rec != nil {
				rec.capture(out)
			}
		})
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer device.Close()

	snd, producer, err := openSound(ctx, mix, cfg, opts)
	if err != nil {
		return err
	}
	defer snd.Close()

	if err := device.Start(); err != nil {
		return fmt.Errorf("start output: %w", err)
	}

	if err := snd.Start(); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "run",
		"mode":        opts.mode,
		"path":        opts.path,
		"sample_rate": cfg.Engine.SampleRate,
		"channels":    cfg.Engine.Channels,
		"kind":        snd.Kind().String(),
	}).Info("Playback started")

	playErr := waitForEnd(ctx, snd, 250*time.Millisecond)

	if err := device.Stop(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "run",
			"error":    err.Error(),
		}).Warn("Failed to stop output")
	}

	if producer != nil {
		if err := <-producer; err != nil && !errors.Is(err, context.Canceled) {
			playErr = errors.Join(playErr, err)
		}
	}

	if rec != nil {
		stopRec()
		playErr = errors.Join(playErr, <-recDone)
	}

	return playErr
}
