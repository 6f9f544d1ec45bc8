// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stage2 finalizes the RP2040 second-stage bootloader (boot2). The
// boot ROM copies ContainerSize bytes from the beginning of the flash to the
// SRAM and jumps there only if the last four bytes hold a valid checksum of
// the preceding ones.
package stage2

import "fmt"

// Container layout as read by the boot ROM:
//
//	0            PayloadSize  raw image, zero padded
//	PayloadSize  ChecksumSize checksum, little-endian
const (
	ContainerSize = 256
	ChecksumSize  = 4
	PayloadSize   = ContainerSize - ChecksumSize
	MaxRawSize    = PayloadSize - 1

	FlashAddr = 0x1000_0000 // XIP address of the container
)

// Layout describes a container of non-default size.
type Layout struct {
	Size int
}

// DefaultLayout is the layout expected by the RP2040 boot ROM.
var DefaultLayout = Layout{ContainerSize}

func (l Layout) PayloadSize() int    { return l.Size - ChecksumSize }
func (l Layout) ChecksumOffset() int { return l.Size - ChecksumSize }

// MaxRawSize returns the size of the largest raw image that fits in the
// container. At least one padding byte is always required.
func (l Layout) MaxRawSize() int { return l.PayloadSize() - 1 }

// Validate reports whether the layout can hold a non-empty payload and a word
// aligned checksum.
func (l Layout) Validate() error {
	if l.Size <= ChecksumSize+1 {
		return fmt.Errorf("stage2: container size %d too small", l.Size)
	}
	if l.Size%4 != 0 {
		return fmt.Errorf("stage2: container size %d not a multiple of 4", l.Size)
	}
	return nil
}
