// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/embeddedgo/boot2/boot2gen/internal/cmd/check"
	"github.com/embeddedgo/boot2/boot2gen/internal/logger"
	"github.com/embeddedgo/boot2/boot2gen/internal/picoboot"
	"github.com/embeddedgo/boot2/boot2gen/internal/stage2"
)

const Descr = "read boot2 from an RP2040 in BOOTSEL mode and identify it"

// Match returns the name of the first artifact whose container equals data.
func Match(data []byte, artifacts []string) (string, error) {
	for _, name := range artifacts {
		a, err := check.Load(name)
		if err != nil {
			return "", err
		}
		if bytes.Equal(a, data) {
			return name, nil
		}
	}
	return "", nil
}

// Report prints the result of the boot2 verification to w.
func Report(w io.Writer, data []byte, artifacts []string) error {
	verr := stage2.Verify(data)
	if verr != nil {
		fmt.Fprintf(w, "boot2:     invalid (%v)\n", verr)
	} else {
		sum := binary.LittleEndian.Uint32(data[len(data)-stage2.ChecksumSize:])
		fmt.Fprintf(w, "boot2:     valid, checksum %#08x\n", sum)
	}
	if len(artifacts) == 0 {
		return verr
	}
	name, err := Match(data, artifacts)
	if err != nil {
		return err
	}
	if name == "" {
		fmt.Fprintln(w, "variant:   no match")
		return errors.Join(verr, errors.New("boot2 doesn't match any of the given artifacts"))
	}
	fmt.Fprintf(w, "variant:   %s\n", name)
	return verr
}

func Command(name string) *cobra.Command {
	var busAddr string
	c := &cobra.Command{
		Use:   name + " [flags] [ARTIFACT...]",
		Short: Descr,
		Long: Descr + `.

The first ` + fmt.Sprint(stage2.ContainerSize) + ` bytes of the flash are verified the same way the boot
ROM does it and compared with the given artifacts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithName(cmd.Context(), name)
			pb, err := picoboot.Connect(busAddr)
			if err != nil {
				return err
			}
			defer pb.Close()
			if err = pb.ExclusiveAccess(true); err != nil {
				return err
			}
			chip, err := pb.Chip()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "device:    %s\n", picoboot.ChipName(chip))
			if chip != picoboot.ChipRP2040 {
				logger.Warnf(ctx, "the %s boot ROM doesn't use boot2", picoboot.ChipName(chip))
			}
			if err = pb.ExitXIP(); err != nil {
				return err
			}
			data := make([]byte, stage2.ContainerSize)
			if _, err = pb.ReadAt(data, stage2.FlashAddr); err != nil {
				return err
			}
			if err = pb.EnterXIP(); err != nil {
				logger.WarnKV(ctx, "cannot restore XIP mode", "error", err)
			}
			return Report(w, data, args)
		},
	}
	c.Flags().StringVar(&busAddr, "usb", "", "select the USB device by `BUS:ADDR`")
	return c
}
