// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"debug/elf"
	"errors"
	"io"
	"sort"
)

type Section struct {
	Name  string
	Vaddr uint64 // address in the memory during execution
	Paddr uint64 // phisical location of the section in the Flash/ROM
	Data  []byte
}

type Sections []*Section

// ReadELF reads the loadable sections of the program from r and returns them
// as a slice. The order of the returned sections is unspecified.
func ReadELF(r io.ReaderAt) (Sections, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ss Sections
	for _, s := range f.Sections {
		if s.Type != elf.SHT_PROGBITS || s.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		paddr := s.Addr
		for _, p := range f.Progs {
			if p.Type != elf.PT_LOAD {
				continue
			}
			if p.Off <= s.Offset && s.Offset < p.Off+p.Filesz {
				paddr = p.Paddr + s.Offset - p.Off
				break
			}
		}
		ss = append(ss, &Section{s.Name, s.Addr, paddr, data})
	}
	return ss, nil
}

// SortByPaddr sorts sections according to the Paddr field.
func (ss Sections) SortByPaddr() {
	sort.Slice(
		ss,
		func(i, j int) bool {
			return ss[i].Paddr < ss[j].Paddr
		},
	)
}

// Size returns the number of bytes Flatten writes.
func (ss Sections) Size() uint64 {
	if len(ss) == 0 {
		return 0
	}
	lo, hi := ss[0].Paddr, ss[0].Paddr
	for _, s := range ss {
		lo = min(lo, s.Paddr)
		hi = max(hi, s.Paddr+uint64(len(s.Data)))
	}
	return hi - lo
}

// Flatten flattens sections by writting their data to the provided io.Writer
// according to the Paddr field (before writting the sections are sorted using
// SortPaddr method). The gaps between sections are filled using the pad byte.
func (ss Sections) Flatten(w io.Writer, pad byte) (n int, err error) {
	if len(ss) == 0 {
		return
	}
	ss.SortByPaddr()
	pa := ss[0].Paddr
	n, err = w.Write(ss[0].Data)
	if err != nil {
		return
	}
	pa += uint64(n)
	var padCache []byte
	for _, s := range ss[1:] {
		if s.Paddr < pa {
			err = errors.New("flatten: overlaping sections")
			return
		}
		m := int(s.Paddr - pa)
		if m != 0 {
			m, err = w.Write(PadBytes(&padCache, m, pad))
			n += m
			if err != nil {
				return
			}
			pa += uint64(m)
		}
		m, err = w.Write(s.Data)
		n += m
		if err != nil {
			return
		}
		pa += uint64(m)
	}
	return
}

// PadBytes returns the slice containing n byte equal b.
func PadBytes(cache *[]byte, n int, b byte) []byte {
	if len(*cache) < n {
		*cache = make([]byte, n)
		for i := range *cache {
			(*cache)[i] = b
		}
	}
	return (*cache)[:n]
}
