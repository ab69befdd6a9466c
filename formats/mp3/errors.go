// SPDX-License-Identifier: EPL-2.0

package mp3

import "errors"

var ErrSeekRange = errors.New("seek outside MP3 stream")
