// SPDX-License-Identifier: EPL-2.0

package stream

// SampleFormat identifies the encoding of one sample.
type SampleFormat uint8

const (
	FormatUnknown SampleFormat = iota
	FormatU8
	FormatS16
	FormatS24
	FormatS32
	FormatF32
)

func (f SampleFormat) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16:
		return "s16"
	case FormatS24:
		return "s24"
	case FormatS32:
		return "s32"
	case FormatF32:
		return "f32"
	default:
		return "unknown"
	}
}

// Format describes the PCM layout a pull source produces.
type Format struct {
	Sample     SampleFormat
	Channels   int
	SampleRate int
}
