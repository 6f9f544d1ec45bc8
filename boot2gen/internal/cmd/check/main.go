// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/embeddedgo/boot2/boot2gen/internal/logger"
	"github.com/embeddedgo/boot2/boot2gen/internal/render"
	"github.com/embeddedgo/boot2/boot2gen/internal/stage2"
	"github.com/embeddedgo/boot2/boot2gen/internal/util"
)

const Descr = "verify the size and checksum of generated artifacts"

// Load reads the artifact and returns the container it holds. The format is
// determined by the file name extension.
func Load(name string) ([]byte, error) {
	f, ok := render.ByExt(util.Ext(name))
	if !ok {
		return nil, fmt.Errorf("%s: unknown artifact format", name)
	}
	src, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	data, err := f.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return data, nil
}

// Verify checks the container size and checksum.
func Verify(data []byte, size int) error {
	if len(data) != size {
		return fmt.Errorf("size %d, want %d", len(data), size)
	}
	return stage2.Verify(data)
}

func check(w io.Writer, name string, size int) error {
	data, err := Load(name)
	if err != nil {
		return err
	}
	if err := Verify(data, size); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	sum := binary.LittleEndian.Uint32(data[len(data)-stage2.ChecksumSize:])
	fmt.Fprintf(w, "%s: ok, checksum %#08x\n", name, sum)
	return nil
}

func Command(name string) *cobra.Command {
	var size int
	c := &cobra.Command{
		Use:   name + " [flags] FILE...",
		Short: Descr,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithName(cmd.Context(), name)
			var errs []error
			for _, file := range args {
				if err := check(cmd.OutOrStdout(), file, size); err != nil {
					logger.ErrorKV(ctx, "check failed", "file", file, "error", err)
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}
	c.Flags().IntVar(&size, "size", stage2.ContainerSize, "expected container size in bytes")
	return c
}
