// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files with github.com/jfreymuth/oggvorbis.
//
//	f, _ := os.Open("ambience.ogg")
//	src, err := vorbis.Decoder{}.Decode(f)
//
// The decoder yields float32 samples directly, so reads do not allocate.
// Sources are seekable and know their length.
package vorbis
