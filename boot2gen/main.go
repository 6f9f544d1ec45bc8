// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Boot2gen finalizes the RP2040 second-stage bootloader images: pads them to
// the size read by the boot ROM, appends the checksum and writes them as
// source arrays placed in the .boot2 section.
package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/embeddedgo/boot2/boot2gen/internal/cmd/check"
	"github.com/embeddedgo/boot2/boot2gen/internal/cmd/finalize"
	"github.com/embeddedgo/boot2/boot2gen/internal/cmd/gen"
	"github.com/embeddedgo/boot2/boot2gen/internal/cmd/initcfg"
	"github.com/embeddedgo/boot2/boot2gen/internal/cmd/probe"
	"github.com/embeddedgo/boot2/boot2gen/internal/logger"
	"github.com/embeddedgo/boot2/boot2gen/internal/version"
)

type tool struct {
	descr   string
	command func(name string) *cobra.Command
}

var tools = map[string]tool{
	"check":    {check.Descr, check.Command},
	"finalize": {finalize.Descr, finalize.Command},
	"gen":      {gen.Descr, gen.Command},
	"init":     {initcfg.Descr, initcfg.Command},
	"probe":    {probe.Descr, probe.Command},
}

func rootCommand() *cobra.Command {
	var (
		logLevel string
		quiet    bool
	)
	root := &cobra.Command{
		Use:           "boot2gen",
		Short:         "finalize RP2040 second-stage bootloader images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level: %s", logLevel)
			}
			if quiet {
				level = zapcore.ErrorLevel
			}
			logger.SetLevel(level)
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.BoolVarP(&quiet, "quiet", "q", false, "log errors only")

	for _, name := range slices.Sorted(maps.Keys(tools)) {
		c := tools[name].command(name)
		c.Short = tools[name].descr
		root.AddCommand(c)
	}
	root.AddCommand(version.Command())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		os.Exit(1)
	}
}
