// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid mixer configuration")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrClosed          = errors.New("mixer closed")
	ErrDetached        = errors.New("voice detached")
	ErrUnknownVoice    = errors.New("voice does not belong to this mixer")
)
