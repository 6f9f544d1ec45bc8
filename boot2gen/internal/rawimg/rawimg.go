// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rawimg reads the raw boot2 image produced by the SDK build. The
// image can be stored as a plain binary, an ELF file or an Intel HEX file.
package rawimg

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"

	"github.com/marcinbor85/gohex"

	"github.com/embeddedgo/boot2/boot2gen/internal/stage2"
	"github.com/embeddedgo/boot2/boot2gen/internal/util"
)

var ErrInputUnavailable = errors.New("input unavailable")

// InputError describes a raw image that cannot be read.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return "could not read input file '" + e.Path + "': " + e.Err.Error()
}

func (e *InputError) Unwrap() error { return e.Err }

func (e *InputError) Is(target error) bool { return target == ErrInputUnavailable }

// Read reads the raw image from the named file. The file format is
// determined by the file extension: .elf, .hex (or .ihex), anything else is
// read as a plain binary. Gaps between ELF sections or HEX records are
// filled with zeros.
//
// The image must fit in a container of the given size (zero means
// stage2.ContainerSize). A larger image is reported as *stage2.TooLargeError
// before its data is loaded into memory.
func Read(name string, container int) (data []byte, err error) {
	if container <= 0 {
		container = stage2.ContainerSize
	}
	l := stage2.Layout{Size: container}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	limit := l.MaxRawSize()
	defer func() {
		if err != nil && !errors.Is(err, stage2.ErrImageTooLarge) {
			err = &InputError{name, err}
		}
	}()
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch util.Ext(name) {
	case "elf":
		return readELF(f, limit, container)
	case "hex", "ihex":
		return readHex(f, limit, container)
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Mode().IsRegular() && fi.Size() > int64(limit) {
		return nil, tooLarge(uint64(fi.Size()), limit, container)
	}
	data, err = io.ReadAll(io.LimitReader(f, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > limit {
		return nil, tooLarge(uint64(len(data)), limit, container)
	}
	return data, nil
}

func readELF(r io.ReaderAt, limit, container int) ([]byte, error) {
	ss, err := util.ReadELF(r)
	if err != nil {
		return nil, err
	}
	return flatten(ss, limit, container)
}

func readHex(r io.Reader, limit, container int) ([]byte, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, err
	}
	var ss util.Sections
	for _, seg := range mem.GetDataSegments() {
		ss = append(ss, &util.Section{Paddr: uint64(seg.Address), Data: seg.Data})
	}
	return flatten(ss, limit, container)
}

func flatten(ss util.Sections, limit, container int) ([]byte, error) {
	if len(ss) == 0 {
		return nil, errors.New("no loadable data")
	}
	size := ss.Size()
	if size > uint64(limit) {
		return nil, tooLarge(size, limit, container)
	}
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := ss.Flatten(buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// tooLarge saturates size so that spans wider than int are still reported.
func tooLarge(size uint64, limit, container int) error {
	n := int(min(size, uint64(math.MaxInt)))
	return &stage2.TooLargeError{Size: n, Max: limit, Container: container}
}
