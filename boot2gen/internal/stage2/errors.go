// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stage2

import (
	"errors"
	"fmt"
)

var (
	ErrImageTooLarge = errors.New("image too large")
	ErrChecksum      = errors.New("checksum mismatch")
)

// TooLargeError is returned when the raw image doesn't fit in the container
// together with its checksum.
type TooLargeError struct {
	Size      int // raw image size
	Max       int // maximum raw image size
	Container int // container size
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf(
		"input size (%d bytes) too large for final size (%d bytes), max %d bytes",
		e.Size, e.Container, e.Max,
	)
}

func (e *TooLargeError) Is(target error) bool { return target == ErrImageTooLarge }

// ChecksumError is returned by Verify.
type ChecksumError struct {
	Stored   uint32
	Computed uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf(
		"checksum mismatch: stored %#08x, computed %#08x",
		e.Stored, e.Computed,
	)
}

func (e *ChecksumError) Is(target error) bool { return target == ErrChecksum }
