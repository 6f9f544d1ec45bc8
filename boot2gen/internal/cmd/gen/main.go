// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/embeddedgo/boot2/boot2gen/internal/config"
	"github.com/embeddedgo/boot2/boot2gen/internal/gen"
	"github.com/embeddedgo/boot2/boot2gen/internal/logger"
	"github.com/embeddedgo/boot2/boot2gen/internal/render"
)

const Descr = "finalize all configured boot2 variants"

func Command(name string) *cobra.Command {
	var (
		cfgPath, format, outDir, input string
		jobs                           int
		only                           []string
	)
	c := &cobra.Command{
		Use:   name + " [flags]",
		Short: Descr,
		Long: Descr + `.

The variants, the raw image path template and the output parameters are
read from the config file (` + config.DefaultFilename + ` by default). Every variant is
finalized independently: the failure of one doesn't stop the others but
makes the command exit with a non-zero status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			fl := cmd.Flags()
			if fl.Changed("format") {
				cfg.Format = format
			}
			if fl.Changed("out-dir") {
				cfg.OutputDir = outDir
			}
			if fl.Changed("input") {
				cfg.Input = input
			}
			if fl.Changed("jobs") {
				cfg.Jobs = jobs
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			rep, err := gen.Run(ctx, cfg, only)
			if rep != nil {
				logger.Infof(ctx, "finalized %d of %d variants",
					len(rep.Results)-len(rep.Failed()), len(rep.Results))
			}
			return err
		},
	}
	fl := c.Flags()
	fl.StringVarP(&cfgPath, "config", "c", "", "config file (default "+config.DefaultFilename+" if present)")
	fl.StringVarP(&format, "format", "f", "", "output format: "+strings.Join(render.Names(), ", "))
	fl.StringVarP(&outDir, "out-dir", "o", "", "output directory")
	fl.StringVar(&input, "input", "", "raw image path template, e.g. build/boot2_{{.Variant}}/bs2_default.bin")
	fl.IntVarP(&jobs, "jobs", "j", 0, "number of variants finalized in parallel (0: number of CPUs)")
	fl.StringSliceVar(&only, "variant", nil, "finalize only the listed variants")
	return c
}
