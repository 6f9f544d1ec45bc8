// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render writes the finalized boot2 container in one of the
// supported artifact formats and reads it back.
package render

import (
	"bytes"
	"fmt"
	"go/token"
	"io"
	"maps"
	"regexp"
	"slices"
)

const (
	DefaultSymbol  = "boot2"
	DefaultSection = ".boot2"
	DefaultFormat  = "cpp"

	// RowLen is the number of bytes in a single row of the source array.
	RowLen = 16
)

// Artifact is the finalized container together with the names used to
// embed it in the source code.
type Artifact struct {
	Symbol  string // name of the array
	Section string // linker section the array is placed in
	Package string // Go package name, used by the go format only
	Data    []byte
}

func (a *Artifact) symbol() string {
	if a.Symbol == "" {
		return DefaultSymbol
	}
	return a.Symbol
}

func (a *Artifact) section() string {
	if a.Section == "" {
		return DefaultSection
	}
	return a.Section
}

// Format describes an artifact format.
type Format struct {
	Name  string
	Ext   string // file name extension without the leading dot
	Descr string
	Align int // the container size must be a multiple of Align if not zero

	// Render writes the artifact to w.
	Render func(w io.Writer, a *Artifact) error

	// Parse reconstructs the container bytes from the rendered artifact.
	Parse func(data []byte) ([]byte, error)
}

var formats = map[string]*Format{
	"cpp": {"cpp", "cpp", "C++ source, extern \"C\" array", 0, renderCPP, parseSource},
	"c":   {"c", "c", "C source array", 0, renderC, parseSource},
	"go":  {"go", "go", "Go source array", 0, renderGo, parseSource},
	"hex": {"hex", "hex", "Intel HEX at the flash address", 0, renderHex, parseHex},
	"uf2": {"uf2", "uf2", "UF2 for the rp2040 family", uf2PayloadSize, renderUF2, parseUF2},
	"bin": {"bin", "bin", "binary container", 0, renderBin, parseBin},
}

// Lookup returns the format of the given name.
func Lookup(name string) (*Format, error) {
	f, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (known: %v)", name, Names())
	}
	return f, nil
}

// ByExt returns the format that uses the given file name extension.
func ByExt(ext string) (*Format, bool) {
	for _, f := range formats {
		if f.Ext == ext {
			return f, true
		}
	}
	return nil, false
}

// Names returns the sorted names of the known formats.
func Names() []string {
	return slices.Sorted(maps.Keys(formats))
}

// CheckSize reports whether the format can carry a container of the given
// size without changing its length.
func (f *Format) CheckSize(size int) error {
	if f.Align != 0 && size%f.Align != 0 {
		return fmt.Errorf(
			"format %s: container size %d is not a multiple of %d",
			f.Name, size, f.Align,
		)
	}
	return nil
}

var (
	symbolName  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	sectionName = regexp.MustCompile(`^[.A-Za-z_][.A-Za-z0-9_$]*$`)
)

// CheckNames reports whether symbol and section can be used in the generated
// source code. Empty names stand for the defaults.
func CheckNames(symbol, section string) error {
	if symbol != "" && (!symbolName.MatchString(symbol) || token.IsKeyword(symbol)) {
		return fmt.Errorf("bad symbol name %q", symbol)
	}
	if section != "" && !sectionName.MatchString(section) {
		return fmt.Errorf("bad section name %q", section)
	}
	return nil
}

// Bytes renders the artifact to a byte slice.
func (f *Format) Bytes(a *Artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.CheckSize(len(a.Data)); err != nil {
		return nil, err
	}
	if err := CheckNames(a.Symbol, a.Section); err != nil {
		return nil, err
	}
	if err := f.Render(&buf, a); err != nil {
		return nil, fmt.Errorf("render %s: %w", f.Name, err)
	}
	return buf.Bytes(), nil
}

func renderBin(w io.Writer, a *Artifact) error {
	_, err := w.Write(a.Data)
	return err
}

func parseBin(data []byte) ([]byte, error) {
	return slices.Clone(data), nil
}
