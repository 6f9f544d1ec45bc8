// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "boot2_w25q080.cpp", Name("w25q080", "", "cpp"))
	require.Equal(t, "boot2_rp2040_w25q080.cpp", Name("w25q080", "rp2040", "cpp"))
}

func TestWrite(t *testing.T) {
	t.Parallel()

	name := filepath.Join(t.TempDir(), "src", "boot2_w25q080.cpp")
	require.NoError(t, Write(name, []byte("first\n")))
	got, err := os.ReadFile(name)
	require.NoError(t, err)
	require.Equal(t, "first\n", string(got))

	require.NoError(t, Write(name, []byte("second\n")))
	got, err = os.ReadFile(name)
	require.NoError(t, err)
	require.Equal(t, "second\n", string(got))

	entries, err := os.ReadDir(filepath.Dir(name))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteUnwritable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	name := filepath.Join(blocker, "boot2_w25q080.cpp")
	err := Write(name, []byte("data"))
	require.ErrorIs(t, err, ErrOutputUnwritable)
	require.Contains(t, err.Error(), name)

	_, err = os.Stat(name)
	require.Error(t, err)
}

// newPath is where update.Apply writes the new content before the swap.
func newPath(name string) string {
	return filepath.Join(filepath.Dir(name), "."+filepath.Base(name)+".new")
}

func TestWriteNewFails(t *testing.T) {
	t.Parallel()

	name := filepath.Join(t.TempDir(), "boot2_w25q080.cpp")
	// A non-empty directory where the new content goes makes the update fail
	// after the staging file has been created.
	blocker := newPath(stagingPath(name))
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "x"), 0o755))

	err := Write(name, []byte("data"))
	require.ErrorIs(t, err, ErrOutputUnwritable)

	_, err = os.Stat(name)
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(stagingPath(name))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteReplaceFails(t *testing.T) {
	t.Parallel()

	name := filepath.Join(t.TempDir(), "boot2_w25q080.cpp")
	require.NoError(t, Write(name, []byte("first\n")))

	// The existing file cannot be moved aside onto a non-empty directory.
	old := filepath.Join(filepath.Dir(name), "."+filepath.Base(name)+".old")
	require.NoError(t, os.MkdirAll(filepath.Join(old, "x"), 0o755))

	err := Write(name, []byte("second\n"))
	require.ErrorIs(t, err, ErrOutputUnwritable)

	got, err := os.ReadFile(name)
	require.NoError(t, err)
	require.Equal(t, "first\n", string(got))
	_, err = os.Stat(newPath(name))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteDir(t *testing.T) {
	t.Parallel()

	name := filepath.Join(t.TempDir(), "boot2_w25q080.cpp")
	require.NoError(t, os.Mkdir(name, 0o755))
	require.ErrorIs(t, Write(name, []byte("data")), ErrOutputUnwritable)
}
