// SPDX-License-Identifier: EPL-2.0

package opus

import "fmt"

// OutputRate is the rate every packet is decoded at.
const OutputRate = 48000

// maxPacketFrames is 120 ms at OutputRate, the longest legal packet.
const maxPacketFrames = OutputRate * 120 / 1000

// frameSizes holds the per-frame duration in 48 kHz frames for each TOC
// configuration.
var frameSizes = [32]int{
	// SILK NB, MB, WB
	480, 960, 1920, 2880,
	480, 960, 1920, 2880,
	480, 960, 1920, 2880,
	// Hybrid SWB, FB
	480, 960,
	480, 960,
	// CELT NB, WB, SWB, FB
	120, 240, 480, 960,
	120, 240, 480, 960,
	120, 240, 480, 960,
	120, 240, 480, 960,
}

// packetInfo is what the TOC byte says about a packet.
type packetInfo struct {
	config int
	stereo bool
	count  int
}

func (p packetInfo) frames() int { return frameSizes[p.config] * p.count }

func parseTOC(packet []byte) (packetInfo, error) {
	if len(packet) == 0 {
		return packetInfo{}, fmt.Errorf("empty packet: %w", ErrInvalidPacket)
	}

	toc := packet[0]
	info := packetInfo{
		config: int(toc >> 3),
		stereo: toc&0x04 != 0,
	}

	switch toc & 0x03 {
	case 0:
		info.count = 1
	case 1, 2:
		info.count = 2
	case 3:
		if len(packet) < 2 {
			return packetInfo{}, fmt.Errorf("missing frame count byte: %w", ErrInvalidPacket)
		}
		info.count = int(packet[1] & 0x3f)
		if info.count == 0 {
			return packetInfo{}, fmt.Errorf("zero frames: %w", ErrInvalidPacket)
		}
	}

	if info.frames() > maxPacketFrames {
		return packetInfo{}, fmt.Errorf("%d frames exceed 120 ms: %w", info.frames(), ErrInvalidPacket)
	}

	return info, nil
}
