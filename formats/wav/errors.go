// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile          = errors.New("not a WAV file")
	ErrUnsupportedEncoding = errors.New("only integer PCM WAV is supported")
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")
	ErrSeekRange           = errors.New("seek outside WAV data")
	ErrInvalidFormat       = errors.New("sample rate and channels must be greater than 0")
	ErrRecorderClosed      = errors.New("recorder closed")
)
