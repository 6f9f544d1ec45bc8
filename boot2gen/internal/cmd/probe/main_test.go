// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/embeddedgo/boot2/boot2gen/internal/render"
	"github.com/embeddedgo/boot2/boot2gen/internal/stage2"
)

func TestReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f, err := render.Lookup("cpp")
	require.NoError(t, err)
	var files []string
	for i, v := range []string{"generic_03h", "w25q080"} {
		img, err := stage2.Finalize([]byte{byte(i + 1)})
		require.NoError(t, err)
		out, err := f.Bytes(&render.Artifact{Data: img[:]})
		require.NoError(t, err)
		name := filepath.Join(dir, "boot2_"+v+".cpp")
		require.NoError(t, os.WriteFile(name, out, 0o644))
		files = append(files, name)
	}

	flash, err := stage2.Finalize([]byte{2})
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, Report(&out, flash[:], files))
	require.Contains(t, out.String(), "boot2:     valid")
	require.Contains(t, out.String(), "variant:   "+files[1])

	out.Reset()
	other, err := stage2.Finalize([]byte{3})
	require.NoError(t, err)
	require.Error(t, Report(&out, other[:], files))
	require.Contains(t, out.String(), "no match")
}

func TestReportInvalid(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := Report(&out, bytes.Repeat([]byte{0xff}, stage2.ContainerSize), nil)
	require.ErrorIs(t, err, stage2.ErrChecksum)
	require.Contains(t, out.String(), "invalid")
}
