// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

// PackageName returns the name of the Go package in dir. If dir contains no
// Go package the name is derived from the base name of dir.
func PackageName(dir string) string {
	cfg := &packages.Config{Mode: packages.NeedName, Dir: dir}
	pkgs, err := packages.Load(cfg, ".")
	if err == nil && len(pkgs) == 1 && pkgs[0].Name != "" {
		return pkgs[0].Name
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "boot2"
	}
	name := strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9', r == '_':
			return r
		case 'A' <= r && r <= 'Z':
			return r + 'a' - 'A'
		}
		return -1
	}, filepath.Base(abs))
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		return "boot2"
	}
	return name
}
