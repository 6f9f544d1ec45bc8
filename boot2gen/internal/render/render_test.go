// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/embeddedgo/boot2/boot2gen/internal/stage2"
)

func seq(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestRenderCPP(t *testing.T) {
	t.Parallel()

	f, err := Lookup("cpp")
	require.NoError(t, err)
	out, err := f.Bytes(&Artifact{Data: seq(20)})
	require.NoError(t, err)

	want := "// Stage2 bootloader\n\n" +
		"#include <cstdint>\n" +
		"extern \"C\" __attribute__((section(\".boot2\"))) const uint8_t boot2[20] = {\n" +
		"\t 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,\n" +
		"\t 0x10, 0x11, 0x12, 0x13,\n" +
		"};\n"
	require.Equal(t, want, string(out))
}

func TestRenderC(t *testing.T) {
	t.Parallel()

	f, err := Lookup("c")
	require.NoError(t, err)
	out, err := f.Bytes(&Artifact{Symbol: "bs2", Section: ".boot2_w25q080", Data: seq(4)})
	require.NoError(t, err)
	require.Contains(t, string(out), "#include <stdint.h>\n")
	require.Contains(t, string(out),
		"\n__attribute__((section(\".boot2_w25q080\"))) const uint8_t bs2[4] = {\n")
	require.NotContains(t, string(out), "extern")
}

func TestRenderGo(t *testing.T) {
	t.Parallel()

	f, err := Lookup("go")
	require.NoError(t, err)
	_, err = f.Bytes(&Artifact{Data: seq(4)})
	require.Error(t, err)

	out, err := f.Bytes(&Artifact{Package: "rp2040", Data: seq(4)})
	require.NoError(t, err)
	require.Contains(t, string(out), "package rp2040\n")
	require.Contains(t, string(out), "var boot2 = [4]byte{\n\t0x00, 0x01, 0x02, 0x03,\n}\n")
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	img, err := stage2.Finalize([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	a := &Artifact{Package: "boot2", Data: img[:]}

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			f, err := Lookup(name)
			require.NoError(t, err)
			out, err := f.Bytes(a)
			require.NoError(t, err)
			data, err := f.Parse(out)
			require.NoError(t, err)
			require.Equal(t, img[:], data)
			require.NoError(t, stage2.Verify(data))
		})
	}
}

func TestRowsConsistent(t *testing.T) {
	t.Parallel()

	f, err := Lookup("cpp")
	require.NoError(t, err)
	out, err := f.Bytes(&Artifact{Data: make([]byte, stage2.ContainerSize)})
	require.NoError(t, err)
	var rows int
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "\t ") {
			rows++
			require.Equal(t, RowLen, strings.Count(line, "0x"))
		}
	}
	require.Equal(t, stage2.ContainerSize/RowLen, rows)
}

func TestUF2Block(t *testing.T) {
	t.Parallel()

	f, err := Lookup("uf2")
	require.NoError(t, err)
	out, err := f.Bytes(&Artifact{Data: bytes.Repeat([]byte{0xa5}, stage2.ContainerSize)})
	require.NoError(t, err)
	require.Len(t, out, uf2BlockSize)
	require.Equal(t, []byte{0x55, 0x46, 0x32, 0x0a}, out[:4])
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x10}, out[12:16])
	require.Equal(t, []byte{0x56, 0xff, 0x8b, 0xe4}, out[28:32])
}

func TestUF2Size(t *testing.T) {
	t.Parallel()

	f, err := Lookup("uf2")
	require.NoError(t, err)

	data, err := stage2.FinalizeSize([]byte{0x01, 0x02, 0x03}, 300)
	require.NoError(t, err)
	require.Error(t, f.CheckSize(len(data)))
	_, err = f.Bytes(&Artifact{Data: data})
	require.Error(t, err)

	data, err = stage2.FinalizeSize([]byte{0x01, 0x02, 0x03}, 512)
	require.NoError(t, err)
	require.NoError(t, f.CheckSize(len(data)))
	out, err := f.Bytes(&Artifact{Data: data})
	require.NoError(t, err)
	require.Len(t, out, 2*uf2BlockSize)
	back, err := f.Parse(out)
	require.NoError(t, err)
	require.Equal(t, data, back)
	require.NoError(t, stage2.Verify(back))

	cpp, err := Lookup("cpp")
	require.NoError(t, err)
	require.NoError(t, cpp.CheckSize(300))
}

func TestCheckNames(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct{ symbol, section string }{
		{"", ""},
		{"boot2", ".boot2"},
		{"_bs2_w25q080", ".boot2.w25q080"},
	} {
		require.NoError(t, CheckNames(tt.symbol, tt.section), tt)
	}
	for _, tt := range []struct{ symbol, section string }{
		{"1boot", ""},
		{"boot-2", ""},
		{"func", ""},
		{"boot2", `.boot2"`},
		{"boot2", ".boot 2"},
	} {
		require.Error(t, CheckNames(tt.symbol, tt.section), tt)
	}

	f, err := Lookup("c")
	require.NoError(t, err)
	_, err = f.Bytes(&Artifact{Section: `.boot2") x("`, Data: seq(4)})
	require.Error(t, err)
}

func TestParseSourceErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no array":     "// nothing here\n",
		"unterminated": "const uint8_t boot2[2] = {\n\t 0x00, 0x01,\n",
		"short":        "const uint8_t boot2[3] = {\n\t 0x00, 0x01,\n};\n",
		"bad literal":  "const uint8_t boot2[2] = {\n\t 0x00, 0x100,\n};\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseSource([]byte(src))
			require.Error(t, err)
		})
	}
}

func TestParseUF2Errors(t *testing.T) {
	t.Parallel()

	_, err := parseUF2(make([]byte, 100))
	require.Error(t, err)
	_, err = parseUF2(make([]byte, uf2BlockSize))
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	_, err := Lookup("asm")
	require.Error(t, err)
	f, ok := ByExt("hex")
	require.True(t, ok)
	require.Equal(t, "hex", f.Name)
	_, ok = ByExt("elf")
	require.False(t, ok)
	require.Equal(t, []string{"bin", "c", "cpp", "go", "hex", "uf2"}, Names())
}

func TestPackageNameFallback(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "Boot-Stage2")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.Equal(t, "bootstage2", PackageName(dir))
}
