// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stage2

import "encoding/binary"

// Image is the finalized boot2 container.
type Image [ContainerSize]byte

// Payload returns the padded raw image.
func (img *Image) Payload() []byte { return img[:PayloadSize] }

// Checksum returns the stored checksum.
func (img *Image) Checksum() uint32 {
	return binary.LittleEndian.Uint32(img[PayloadSize:])
}

// Pack finalizes raw into dst. The length of dst is the container size. The
// raw image is copied to the beginning of dst, followed by zero padding up to
// len(dst)-ChecksumSize and the little-endian checksum of everything before
// it. If raw doesn't fit, Pack returns *TooLargeError and leaves dst intact.
func Pack(dst, raw []byte) error {
	l := Layout{len(dst)}
	if err := l.Validate(); err != nil {
		return err
	}
	if len(raw) > l.MaxRawSize() {
		return &TooLargeError{len(raw), l.MaxRawSize(), l.Size}
	}
	payload := dst[:l.PayloadSize()]
	n := copy(payload, raw)
	clear(payload[n:])
	binary.LittleEndian.PutUint32(dst[l.ChecksumOffset():], Checksum(payload))
	return nil
}

// Finalize returns the finalized container for the raw image.
func Finalize(raw []byte) (*Image, error) {
	img := new(Image)
	if err := Pack(img[:], raw); err != nil {
		return nil, err
	}
	return img, nil
}

// FinalizeSize works like Finalize but for a container of the given size.
func FinalizeSize(raw []byte, size int) ([]byte, error) {
	if size == ContainerSize {
		img, err := Finalize(raw)
		if err != nil {
			return nil, err
		}
		return img[:], nil
	}
	if err := (Layout{size}).Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if err := Pack(buf, raw); err != nil {
		return nil, err
	}
	return buf, nil
}

// Verify checks the checksum stored at the end of the container.
func Verify(container []byte) error {
	l := Layout{len(container)}
	if err := l.Validate(); err != nil {
		return err
	}
	off := l.ChecksumOffset()
	stored := binary.LittleEndian.Uint32(container[off:])
	computed := Checksum(container[:off])
	if stored != computed {
		return &ChecksumError{stored, computed}
	}
	return nil
}
