// SPDX-License-Identifier: EPL-2.0

// Command pcmconvert decodes any supported file and writes it as a 16-bit
// WAV file at the requested rate and channel count.
//
//	pcmconvert -rate 8000 -channels 1 input.mp3 output.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge"
	"github.com/ik5/pcmbridge/audio"
	"github.com/ik5/pcmbridge/formats/wav"
)

func main() {
	rate := flag.Int("rate", 8000, "output sample rate in Hz")
	channels := flag.Int("channels", 1, "output channel count")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: pcmconvert [-rate hz] [-channels n] <input.{wav|mp3|ogg|aiff}> <output.wav>")
		os.Exit(1)
	}

	frames, err := convert(flag.Arg(0), flag.Arg(1), *rate, *channels)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pcmconvert:", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d frames to %s\n", frames, flag.Arg(1))
}

func convert(inPath, outPath string, rate, channels int) (int64, error) {
	dec, err := pcmbridge.DefaultRegistry().Lookup(inPath)
	if err != nil {
		return 0, err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", inPath, err)
	}
	defer in.Close()

	src, err := dec.Decode(in)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", inPath, err)
	}
	defer src.Close()

	conformed, err := audio.Conform(src, rate, channels)
	if err != nil {
		return 0, err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	rec, err := wav.NewRecorder(out, rate, channels)
	if err != nil {
		return 0, err
	}

	buf := make([]float32, 4096*channels)
	for {
		n, rerr := conformed.ReadSamples(buf)
		if n > 0 {
			if err := rec.Write(buf[:n-n%channels]); err != nil {
				return rec.Frames(), err
			}
		}

		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return rec.Frames(), fmt.Errorf("read %s: %w", inPath, rerr)
		}
	}

	if err := rec.Close(); err != nil {
		return rec.Frames(), err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "convert",
		"input":       inPath,
		"output":      outPath,
		"src_rate":    src.SampleRate(),
		"sample_rate": rate,
		"channels":    channels,
		"frames":      rec.Frames(),
	}).Debug("File converted")

	return rec.Frames(), nil
}
