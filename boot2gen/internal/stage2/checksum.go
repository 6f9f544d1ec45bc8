// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stage2

import (
	"hash/crc32"
	"math/bits"
)

// Checksum calculates the boot2 checksum of the payload the same way the
// RP2040 boot ROM does it.
//
// The boot ROM shifts the data MSB first so every input byte and the final
// 32-bit result are bit reversed relative to the usual reflected CRC-32. The
// library result is also complemented once more. The outcome equals
// CRC-32/MPEG-2 (poly 0x04c11db7, init 0xffffffff, no reflection, no final
// xor). Keep the reflections explicit: they describe the hardware.
func Checksum(payload []byte) uint32 {
	rev := make([]byte, len(payload))
	for i, b := range payload {
		rev[i] = bits.Reverse8(b)
	}
	crc := crc32.ChecksumIEEE(rev) ^ 0xffff_ffff
	return bits.Reverse32(crc)
}
