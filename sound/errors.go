// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"errors"

	"github.com/ik5/pcmbridge/stream"
)

var (
	ErrInvalidArgument   = stream.ErrInvalidArgument
	ErrInvalidOperation  = stream.ErrInvalidOperation
	ErrResourceExhausted = stream.ErrResourceExhausted
	ErrClosed            = errors.New("sound closed")
)
