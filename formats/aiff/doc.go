// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes 8, 16, 24 and 32-bit AIFF files with
// github.com/go-audio/aiff.
//
//	f, _ := os.Open("hit.aiff")
//	src, err := aiff.Decoder{}.Decode(f)
//
// Register the decoder under both "aiff" and "aif" to cover the usual
// extensions. Sources know their length; seeking re-reads the file from the
// start of the sound data.
package aiff
