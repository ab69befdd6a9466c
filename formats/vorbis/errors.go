// SPDX-License-Identifier: EPL-2.0

package vorbis

import "errors"

var ErrSeekRange = errors.New("seek outside Vorbis stream")
