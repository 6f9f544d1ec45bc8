// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package finalize

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/embeddedgo/boot2/boot2gen/internal/artifact"
	"github.com/embeddedgo/boot2/boot2gen/internal/config"
	"github.com/embeddedgo/boot2/boot2gen/internal/gen"
	"github.com/embeddedgo/boot2/boot2gen/internal/logger"
	"github.com/embeddedgo/boot2/boot2gen/internal/render"
	"github.com/embeddedgo/boot2/boot2gen/internal/stage2"
	"github.com/embeddedgo/boot2/boot2gen/internal/util"
)

const Descr = "pad and checksum a single raw boot2 image"

func Command(name string) *cobra.Command {
	var (
		variant, target string
		format, outDir  string
		symbol, section string
		pkg             string
		size            int
	)
	c := &cobra.Command{
		Use:   name + " [flags] RAW [OUT]",
		Short: Descr,
		Long: Descr + `.

RAW is a plain binary, an ELF (.elf) or an Intel HEX (.hex) file. If OUT
is omitted the artifact is written to OUT_DIR/boot2_[TARGET_]VARIANT.EXT if
the variant is given, otherwise next to RAW with the extension replaced.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithName(cmd.Context(), name)
			f, err := config.CheckOutput(format, size, symbol, section)
			if err != nil {
				return err
			}
			in := args[0]
			var out string
			switch {
			case len(args) > 1:
				out = args[1]
			case variant != "":
				out = filepath.Join(outDir, artifact.Name(variant, target, f.Ext))
			default:
				out = util.ReplaceExt(in, f.Ext)
			}
			if filepath.Clean(out) == filepath.Clean(in) {
				return errors.New("output file would overwrite the input file: " + in)
			}
			if f.Name == "go" && pkg == "" {
				pkg = render.PackageName(filepath.Dir(out))
			}
			job := &gen.Job{
				Variant: variant,
				Target:  target,
				Input:   in,
				Output:  out,
				Format:  f,
				Size:    size,
				Symbol:  symbol,
				Section: section,
				Package: pkg,
			}
			res := job.Finalize(ctx)
			if res.Err != nil {
				return res.Err
			}
			logger.InfoKV(ctx, "finalized",
				"output", out,
				"raw_size", res.RawSize,
				"max_size", size-stage2.ChecksumSize-1,
				"checksum", fmt.Sprintf("%#08x", res.Checksum),
			)
			return nil
		},
	}
	fl := c.Flags()
	fl.StringVar(&variant, "variant", "", "variant name used to name the output")
	fl.StringVar(&target, "target", "", "target name used to name the output")
	fl.StringVarP(&format, "format", "f", render.DefaultFormat,
		"output format: "+strings.Join(render.Names(), ", "))
	fl.StringVarP(&outDir, "out-dir", "o", config.DefaultOutputDir, "output directory")
	fl.IntVar(&size, "size", stage2.ContainerSize, "container size in bytes")
	fl.StringVar(&symbol, "symbol", render.DefaultSymbol, "array name")
	fl.StringVar(&section, "section", render.DefaultSection, "linker section")
	fl.StringVar(&pkg, "package", "", "Go package name (go format)")
	return c
}
