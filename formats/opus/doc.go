// SPDX-License-Identifier: EPL-2.0

// Package opus decodes Opus packets received from the network and appends
// the PCM to a stream.Stream.
//
// A Feeder runs on the producer goroutine. Each packet is decoded with
// github.com/pion/opus at 48 kHz, folded or duplicated to the stream's
// channel count and appended without blocking. Frames that do not fit in
// the ring wait in a bounded backlog and are retried on the next Feed or
// Flush:
//
//	st, _ := stream.New(2, 48000, 48000)
//	f, _ := opus.NewFeeder(st, 9600)
//	for pkt := range packets {
//		if _, err := f.Feed(pkt); errors.Is(err, opus.ErrBacklog) {
//			// the consumer stalled; the packet was dropped
//		}
//	}
//	f.Drain(ctx, 10*time.Millisecond)
package opus
