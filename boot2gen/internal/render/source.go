// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"text/template"
)

const cTmpl = `// Stage2 bootloader

#include <{{.Include}}>
{{.Linkage}}__attribute__((section("{{.Section}}"))) const uint8_t {{.Symbol}}[{{.Len}}] = {
{{range .Rows}}	 {{.}},
{{end}}};
`

const goTmpl = `// Code generated by boot2gen. DO NOT EDIT.

package {{.Package}}

// {{.Symbol}} is the stage2 bootloader. It must be placed in the {{.Section}}
// section.
var {{.Symbol}} = [{{.Len}}]byte{
{{range .Rows}}	{{.}},
{{end}}}
`

var (
	cTemplate  = template.Must(template.New("c").Parse(cTmpl))
	goTemplate = template.Must(template.New("go").Parse(goTmpl))
)

type sourceData struct {
	Include string
	Linkage string
	Section string
	Symbol  string
	Package string
	Len     int
	Rows    []string
}

func newSourceData(a *Artifact) *sourceData {
	d := &sourceData{
		Section: a.section(),
		Symbol:  a.symbol(),
		Package: a.Package,
		Len:     len(a.Data),
	}
	for offs := 0; offs < len(a.Data); offs += RowLen {
		chunk := a.Data[offs:min(offs+RowLen, len(a.Data))]
		row := make([]string, len(chunk))
		for i, b := range chunk {
			row[i] = fmt.Sprintf("0x%02x", b)
		}
		d.Rows = append(d.Rows, strings.Join(row, ", "))
	}
	return d
}

func renderCPP(w io.Writer, a *Artifact) error {
	d := newSourceData(a)
	d.Include = "cstdint"
	d.Linkage = `extern "C" `
	return cTemplate.Execute(w, d)
}

func renderC(w io.Writer, a *Artifact) error {
	d := newSourceData(a)
	d.Include = "stdint.h"
	return cTemplate.Execute(w, d)
}

func renderGo(w io.Writer, a *Artifact) error {
	if a.Package == "" {
		return errors.New("go: package name not set")
	}
	return goTemplate.Execute(w, newSourceData(a))
}

// arrayDecl matches the beginning of the array initializer in C and Go:
// `name[256] = {` and `[256]byte{`.
var arrayDecl = regexp.MustCompile(`\[(\d+)\](?:\s*=\s*|byte)\{`)

// parseSource reads the byte literals of the first array declared in the C,
// C++ or Go source.
func parseSource(src []byte) ([]byte, error) {
	m := arrayDecl.FindSubmatchIndex(src)
	if m == nil {
		return nil, errors.New("no array declaration found")
	}
	n, err := strconv.Atoi(string(src[m[2]:m[3]]))
	if err != nil {
		return nil, fmt.Errorf("bad array length: %w", err)
	}
	body := src[m[1]:]
	end := bytes.IndexByte(body, '}')
	if end < 0 {
		return nil, errors.New("unterminated array initializer")
	}
	data := make([]byte, 0, n)
	for _, f := range bytes.Split(body[:end], []byte{','}) {
		lit := string(bytes.TrimSpace(f))
		if lit == "" {
			continue
		}
		b, err := strconv.ParseUint(lit, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("bad byte literal %q: %w", lit, err)
		}
		data = append(data, byte(b))
	}
	if len(data) != n {
		return nil, fmt.Errorf("array declared with %d bytes but has %d", n, len(data))
	}
	return data, nil
}
