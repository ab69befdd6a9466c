// SPDX-License-Identifier: EPL-2.0

// Package ring implements a single-producer/single-consumer ring buffer of
// interleaved float32 PCM frames.
//
// The buffer is addressed in frames (one sample per channel) and exposes an
// acquire/commit protocol on both sides, so the producer can decode straight
// into the buffer and the consumer can mix straight out of it:
//
//	dst := rb.AcquireWrite(512)          // contiguous span, may be shorter
//	n := copy(dst, decoded) / rb.Channels()
//	_ = rb.CommitWrite(n)
//
//	src := rb.AcquireRead(256)
//	mix(out, src)
//	_ = rb.CommitRead(len(src) / rb.Channels())
//
// A span never crosses the end of the storage; callers that need more frames
// than the span holds loop and acquire again.
//
// # Concurrency
//
// Exactly one goroutine may call the write side (AcquireWrite, CommitWrite,
// AvailableWrite) and exactly one other goroutine may call the read side
// (AcquireRead, CommitRead, AvailableRead). No locks are taken: the producer
// only stores the write cursor and the consumer only stores the read cursor.
// Cursors are free-running uint64 counters published with sync/atomic, which
// gives release semantics on commit and acquire semantics on the opposite
// side's load.
//
// AvailableRead and AvailableWrite are snapshots. Seen from the consumer,
// AvailableRead never overstates what can be read; seen from the producer,
// AvailableWrite never overstates what can be written.
//
// Reset rewinds both cursors and must only be called while neither side is
// inside an acquire/commit pair.
//
// None of the span operations allocate, block or log, which makes the read
// side safe to call from a real-time audio callback.
package ring
