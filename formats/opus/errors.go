// SPDX-License-Identifier: EPL-2.0

package opus

import "errors"

var (
	ErrInvalidPacket       = errors.New("invalid Opus packet")
	ErrUnsupportedChannels = errors.New("unsupported stream channel count")
	ErrSampleRateMismatch  = errors.New("stream sample rate does not match decoder output")
	ErrBacklog             = errors.New("decoded backlog is full")
)
