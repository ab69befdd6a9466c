// SPDX-License-Identifier: EPL-2.0

package stream

import "sync/atomic"

// EndFlag records that the producer will append no more frames.
// The zero value is cleared.
type EndFlag struct {
	v atomic.Bool
}

func (f *EndFlag) Set()        { f.v.Store(true) }
func (f *EndFlag) Clear()      { f.v.Store(false) }
func (f *EndFlag) IsSet() bool { return f.v.Load() }
