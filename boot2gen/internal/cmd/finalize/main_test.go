// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package finalize

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/embeddedgo/boot2/boot2gen/internal/stage2"
)

func run(args ...string) error {
	c := Command("finalize")
	c.SetArgs(args)
	c.SilenceErrors = true
	c.SilenceUsage = true
	return c.ExecuteContext(context.Background())
}

func TestCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := filepath.Join(dir, "bs2_default.bin")
	require.NoError(t, os.WriteFile(raw, []byte{0x01, 0x02, 0x03}, 0o644))

	require.NoError(t, run(raw))
	src, err := os.ReadFile(filepath.Join(dir, "bs2_default.cpp"))
	require.NoError(t, err)
	require.Contains(t, string(src), "const uint8_t boot2[256] = {\n\t 0x01, 0x02, 0x03, 0x00,")

	// The output would replace the input.
	require.Error(t, run(raw, "--format", "bin"))
	require.Error(t, run(raw, raw))
	got, err := os.ReadFile(raw)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0x03}, got)
}

func TestCommandVariant(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := filepath.Join(dir, "bs2_default.bin")
	require.NoError(t, os.WriteFile(raw, []byte{0x01, 0x02, 0x03}, 0o644))
	outDir := filepath.Join(dir, "src")

	require.NoError(t, run(raw, "--variant", "w25q080", "--target", "rp2040", "-o", outDir))
	src, err := os.ReadFile(filepath.Join(outDir, "boot2_rp2040_w25q080.cpp"))
	require.NoError(t, err)
	require.Contains(t, string(src), "\t 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x73, 0xb8, 0x76, 0xa7,\n};\n")

	require.NoError(t, run(raw, filepath.Join(dir, "boot2.bin"), "-f", "bin"))
	bin, err := os.ReadFile(filepath.Join(dir, "boot2.bin"))
	require.NoError(t, err)
	img, err := stage2.Finalize([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.Equal(t, img[:], bin)
}

func TestCommandTooLarge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := filepath.Join(dir, "bs2_big.bin")
	require.NoError(t, os.WriteFile(raw, make([]byte, stage2.PayloadSize), 0o644))
	out := filepath.Join(dir, "boot2.cpp")

	err := run(raw, out, "--variant", "w25q080")
	require.ErrorIs(t, err, stage2.ErrImageTooLarge)
	require.Contains(t, err.Error(), "variant w25q080")
	_, err = os.Stat(out)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCommandBadSize(t *testing.T) {
	t.Parallel()

	require.Error(t, run("in.bin", "--size", "10"))
	require.Error(t, run("in.bin", "--format", "asm"))
}

func TestCommandOutputChecks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := filepath.Join(dir, "bs2_default.bin")
	require.NoError(t, os.WriteFile(raw, []byte{0x01, 0x02, 0x03}, 0o644))
	out := filepath.Join(dir, "boot2.uf2")

	require.Error(t, run(raw, out, "-f", "uf2", "--size", "300"))
	_, err := os.Stat(out)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.NoError(t, run(raw, out, "-f", "uf2", "--size", "512"))

	require.Error(t, run(raw, "--symbol", "1boot"))
	require.Error(t, run(raw, "--section", `.boot2"`))
	_, err = os.Stat(filepath.Join(dir, "bs2_default.cpp"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
