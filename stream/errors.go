// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"errors"

	"github.com/ik5/pcmbridge/ring"
)

var (
	// ErrInvalidArgument reports missing or zero-sized input where a value
	// is required. It is the same value as ring.ErrInvalidArgument.
	ErrInvalidArgument = ring.ErrInvalidArgument
	// ErrInvalidOperation reports an operation that the stream's current
	// state does not allow, such as appending after MarkEnd.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrResourceExhausted reports that the ring storage could not be
	// allocated. It is the same value as ring.ErrResourceExhausted.
	ErrResourceExhausted = ring.ErrResourceExhausted
	// ErrClosed is returned by every method of a closed stream.
	ErrClosed = errors.New("stream closed")
)
