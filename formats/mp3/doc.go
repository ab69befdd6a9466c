// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 files with github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit little-endian stereo, so every source from
// this package has two channels regardless of the file:
//
//	f, _ := os.Open("theme.mp3")
//	src, err := mp3.Decoder{}.Decode(f)
//
// Sources are seekable and report their length when the input is an
// io.ReadSeeker. Other readers are buffered in memory first.
package mp3
