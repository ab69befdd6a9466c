// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes PCM WAV files with go-audio/wav.
//
// Decoder produces a seekable audio.Source with a known length from 8, 16,
// 24 or 32-bit integer PCM:
//
//	f, _ := os.Open("intro.wav")
//	src, err := wav.Decoder{}.Decode(f)
//
// Seeking rewinds to the start of the data chunk and skips forward, so it
// costs time proportional to the target frame.
//
// Recorder and WriteWAV16 write 16-bit PCM. Both need an io.WriteSeeker
// because the chunk sizes are written when the file is finalized:
//
//	f, _ := os.Create("mix.wav")
//	rec, _ := wav.NewRecorder(f, 48000, 2)
//	_ = rec.Write(block)
//	_ = rec.Close()
package wav
