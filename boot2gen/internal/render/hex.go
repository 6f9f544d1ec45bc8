// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"

	"github.com/embeddedgo/boot2/boot2gen/internal/stage2"
)

func renderHex(w io.Writer, a *Artifact) error {
	mem := gohex.NewMemory()
	if err := mem.AddBinary(stage2.FlashAddr, a.Data); err != nil {
		return err
	}
	return mem.DumpIntelHex(w, RowLen)
}

func parseHex(data []byte) ([]byte, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	segs := mem.GetDataSegments()
	if len(segs) != 1 {
		return nil, fmt.Errorf("want one contiguous segment, found %d", len(segs))
	}
	if segs[0].Address != stage2.FlashAddr {
		return nil, fmt.Errorf(
			"data at %#x, want %#x", segs[0].Address, stage2.FlashAddr,
		)
	}
	return segs[0].Data, nil
}
