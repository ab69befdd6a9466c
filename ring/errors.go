// SPDX-License-Identifier: EPL-2.0

package ring

import "errors"

var (
	// ErrInvalidArgument is returned when a size or count is zero, negative
	// or larger than the span handed out by the matching acquire call.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrResourceExhausted is returned when the requested storage cannot be
	// allocated.
	ErrResourceExhausted = errors.New("resource exhausted")
)
