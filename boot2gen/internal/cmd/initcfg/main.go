// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package initcfg

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/embeddedgo/boot2/boot2gen/internal/config"
	"github.com/embeddedgo/boot2/boot2gen/internal/logger"
)

const Descr = "write the default config file"

func Command(name string) *cobra.Command {
	var (
		cfgPath string
		force   bool
	)
	c := &cobra.Command{
		Use:   name + " [flags]",
		Short: Descr,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				if _, err := os.Stat(cfgPath); err == nil {
					return errors.New(cfgPath + " already exists (use --force)")
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}
			cfg := &config.Config{Variants: config.DefaultVariants}
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.InfoKV(cmd.Context(), "config written", "path", cfgPath)
			return nil
		},
	}
	c.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultFilename, "config file")
	c.Flags().BoolVar(&force, "force", false, "overwrite the existing file")
	return c
}
