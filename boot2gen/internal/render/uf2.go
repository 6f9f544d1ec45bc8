// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/embeddedgo/boot2/boot2gen/internal/stage2"
)

const (
	uf2NotMainFlash    = 0x00000001
	uf2FamilyIDPresent = 0x00002000

	uf2FamilyRP2040 = 0xe48bff56

	uf2Magic0 = 0x0a324655
	uf2Magic1 = 0x9e5d5157
	uf2Magic2 = 0x0ab16f30

	uf2BlockSize   = 512
	uf2PayloadSize = 256
)

type uf2block struct {
	Magic0 uint32
	Magic1 uint32
	Flags  uint32
	Addr   uint32
	Len    uint32
	Seq    uint32
	Total  uint32
	Family uint32
	Data   [uf2PayloadSize]byte
	_      [476 - uf2PayloadSize]byte
	Magic2 uint32
}

type uf2Writer struct {
	w io.Writer
	b uf2block
}

func newUF2Writer(w io.Writer, addr, flags, family uint32, size int) *uf2Writer {
	u := new(uf2Writer)
	u.w = w
	u.b.Magic0 = uf2Magic0
	u.b.Magic1 = uf2Magic1
	u.b.Flags = flags
	u.b.Addr = addr
	u.b.Total = uint32((size + len(u.b.Data) - 1) / len(u.b.Data))
	u.b.Family = family
	u.b.Magic2 = uf2Magic2
	return u
}

func (u *uf2Writer) Write(p []byte) (n int, err error) {
	b := &u.b
	for len(p) != 0 {
		m := copy(b.Data[b.Len:], p)
		n += m
		p = p[m:]
		b.Len += uint32(m)
		if int(b.Len) == len(b.Data) {
			err = binary.Write(u.w, binary.LittleEndian, b)
			if err != nil {
				return
			}
			b.Addr += b.Len
			b.Seq++
			b.Len = 0
		}
	}
	return
}

// Flush writes the last incomplete block padded with zeros. The RP2040 boot
// ROM accepts only full 256-byte payloads, so the padding changes the length
// of the flashed data. Callers that need an exact round trip must write a
// multiple of uf2PayloadSize.
func (u *uf2Writer) Flush() (err error) {
	b := &u.b
	if b.Len == 0 {
		return
	}
	clear(b.Data[b.Len:])
	b.Len = uint32(len(b.Data))
	err = binary.Write(u.w, binary.LittleEndian, b)
	b.Addr += b.Len
	b.Seq++
	b.Len = 0
	return
}

func renderUF2(w io.Writer, a *Artifact) error {
	if len(a.Data)%uf2PayloadSize != 0 {
		return fmt.Errorf("size %d is not a multiple of %d", len(a.Data), uf2PayloadSize)
	}
	u := newUF2Writer(
		w, stage2.FlashAddr, uf2FamilyIDPresent, uf2FamilyRP2040, len(a.Data),
	)
	if _, err := u.Write(a.Data); err != nil {
		return err
	}
	return u.Flush()
}

// parseUF2 returns the payloads of the main flash blocks. The blocks must be
// in order and contiguous starting from the flash address.
func parseUF2(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%uf2BlockSize != 0 {
		return nil, fmt.Errorf("size %d is not a multiple of %d", len(data), uf2BlockSize)
	}
	r := bytes.NewReader(data)
	addr := uint32(stage2.FlashAddr)
	var out []byte
	for seq := uint32(0); r.Len() != 0; seq++ {
		var b uf2block
		if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
			return nil, err
		}
		if b.Magic0 != uf2Magic0 || b.Magic1 != uf2Magic1 || b.Magic2 != uf2Magic2 {
			return nil, fmt.Errorf("block %d: bad magic", seq)
		}
		if b.Flags&uf2NotMainFlash != 0 {
			continue
		}
		if b.Seq != seq || b.Addr != addr || int(b.Len) > len(b.Data) {
			return nil, fmt.Errorf("block %d: unexpected seq/addr/len", seq)
		}
		out = append(out, b.Data[:b.Len]...)
		addr += b.Len
	}
	if len(out) == 0 {
		return nil, errors.New("no main flash blocks")
	}
	return out, nil
}
