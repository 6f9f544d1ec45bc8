// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package artifact names the generated files and writes them so that a
// failed write never leaves a partial artifact behind.
package artifact

import (
	"bytes"
	"crypto"
	"crypto/sha512"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	update "github.com/doitdistributed/go-update"
)

const (
	FileMode fs.FileMode = 0o644
	DirMode  fs.FileMode = 0o755
)

var ErrOutputUnwritable = errors.New("output unwritable")

// OutputError describes an artifact that cannot be written.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return "could not write output file '" + e.Path + "': " + e.Err.Error()
}

func (e *OutputError) Unwrap() error { return e.Err }

func (e *OutputError) Is(target error) bool { return target == ErrOutputUnwritable }

// Name returns the file name of the artifact generated for the variant. The
// target is optional.
func Name(variant, target, ext string) string {
	if target == "" {
		return "boot2_" + variant + "." + ext
	}
	return "boot2_" + target + "_" + variant + "." + ext
}

// Write replaces the content of the named file with data. The new content is
// written to a temporary file in the same directory, verified and renamed
// over the destination. Missing parent directories are created.
//
// A new destination is first built under a hidden staging name and renamed
// into place only when complete, so the artifact either has its previous
// content (or doesn't exist) or the new one. A crash may leave hidden
// staging files behind; they are overwritten by the next Write.
func Write(name string, data []byte) (err error) {
	defer func() {
		if err != nil {
			err = &OutputError{name, err}
		}
	}()
	if err = os.MkdirAll(filepath.Dir(name), DirMode); err != nil {
		return err
	}
	fi, err := os.Stat(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return create(name, data)
	case err != nil:
		return err
	case fi.IsDir():
		return errors.New("is a directory")
	}
	return replace(name, data)
}

// create writes a file that doesn't exist yet.
func create(name string, data []byte) error {
	staging := stagingPath(name)
	// update.Apply renames the existing file aside so it must exist.
	f, err := os.OpenFile(staging, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, FileMode)
	if err != nil {
		return err
	}
	f.Close()
	if err = replace(staging, data); err != nil {
		os.Remove(staging)
		return err
	}
	if err = os.Rename(staging, name); err != nil {
		os.Remove(staging)
		return err
	}
	return nil
}

// replace atomically replaces the content of the existing file.
func replace(name string, data []byte) error {
	sum := sha512.Sum512(data)
	dir, base := filepath.Dir(name), filepath.Base(name)
	old := filepath.Join(dir, "."+base+".old")
	err := update.Apply(bytes.NewReader(data), update.Options{
		TargetPath:  name,
		TargetMode:  FileMode,
		Checksum:    sum[:],
		Hash:        crypto.SHA512,
		OldSavePath: old,
	})
	if err != nil {
		os.Remove(filepath.Join(dir, "."+base+".new"))
		if rerr := update.RollbackError(err); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	os.Remove(old)
	return nil
}

func stagingPath(name string) string {
	return filepath.Join(filepath.Dir(name), "."+filepath.Base(name)+".tmp")
}
