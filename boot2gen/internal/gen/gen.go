// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gen finalizes the configured boot2 variants and writes their
// artifacts. Every variant is processed independently: a failing variant
// doesn't stop the others.
package gen

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/embeddedgo/boot2/boot2gen/internal/artifact"
	"github.com/embeddedgo/boot2/boot2gen/internal/config"
	"github.com/embeddedgo/boot2/boot2gen/internal/logger"
	"github.com/embeddedgo/boot2/boot2gen/internal/rawimg"
	"github.com/embeddedgo/boot2/boot2gen/internal/render"
	"github.com/embeddedgo/boot2/boot2gen/internal/stage2"
)

// Job describes the finalization of a single raw image.
type Job struct {
	Variant string
	Target  string
	Input   string
	Output  string
	Format  *render.Format
	Size    int // container size

	Symbol  string
	Section string
	Package string
}

// Result is the outcome of a Job.
type Result struct {
	Job      *Job
	RawSize  int
	Checksum uint32
	Err      error
}

// Report collects the results of Run in the order of the jobs.
type Report struct {
	Results []*Result
}

// Failed returns the results of the failed jobs.
func (r *Report) Failed() []*Result {
	var failed []*Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins the errors of all failed jobs.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}

func (j *Job) String() string {
	if j.Target == "" {
		return j.Variant
	}
	return j.Target + "/" + j.Variant
}

// Finalize reads the raw image, finalizes it and writes the rendered
// artifact. Nothing is written if any step fails.
func (j *Job) Finalize(ctx context.Context) (res *Result) {
	res = &Result{Job: j}
	defer func() {
		if res.Err != nil && j.Variant != "" {
			res.Err = fmt.Errorf("variant %s: %w", j, res.Err)
		}
	}()
	if res.Err = ctx.Err(); res.Err != nil {
		return
	}
	raw, err := rawimg.Read(j.Input, j.Size)
	if err != nil {
		res.Err = err
		return
	}
	res.RawSize = len(raw)
	logger.DebugKV(ctx, "read raw image", "input", j.Input, "size", len(raw))
	data, err := stage2.FinalizeSize(raw, j.Size)
	if err != nil {
		res.Err = err
		return
	}
	res.Checksum = binary.LittleEndian.Uint32(data[len(data)-stage2.ChecksumSize:])
	out, err := j.Format.Bytes(&render.Artifact{
		Symbol:  j.Symbol,
		Section: j.Section,
		Package: j.Package,
		Data:    data,
	})
	if err != nil {
		res.Err = err
		return
	}
	res.Err = artifact.Write(j.Output, out)
	return
}

// Jobs returns the jobs described by the configuration. If only is not empty
// the jobs are limited to the listed variants.
func Jobs(cfg *config.Config, only []string) ([]*Job, error) {
	for _, v := range only {
		if !slices.Contains(cfg.Variants, v) {
			return nil, fmt.Errorf("unknown variant %q", v)
		}
	}
	f, err := render.Lookup(cfg.Format)
	if err != nil {
		return nil, err
	}
	pkg := cfg.GoPackage
	if f.Name == "go" && pkg == "" {
		pkg = render.PackageName(cfg.OutputDir)
	}
	targets := cfg.Targets
	if len(targets) == 0 {
		targets = []string{""}
	}
	var jobs []*Job
	outputs := make(map[string]*Job)
	for _, target := range targets {
		for _, variant := range cfg.Variants {
			if len(only) != 0 && !slices.Contains(only, variant) {
				continue
			}
			in, err := cfg.InputPath(variant, target)
			if err != nil {
				return nil, err
			}
			j := &Job{
				Variant: variant,
				Target:  target,
				Input:   in,
				Output:  filepath.Join(cfg.OutputDir, artifact.Name(variant, target, f.Ext)),
				Format:  f,
				Size:    cfg.ContainerSize,
				Symbol:  cfg.Symbol,
				Section: cfg.Section,
				Package: pkg,
			}
			if other := outputs[j.Output]; other != nil {
				return nil, fmt.Errorf("%s and %s write the same file %s", other, j, j.Output)
			}
			outputs[j.Output] = j
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}

// Run finalizes all the variants described by the configuration, at most
// cfg.Jobs of them in parallel. The returned error joins the errors of all
// failed variants.
func Run(ctx context.Context, cfg *config.Config, only []string) (*Report, error) {
	ctx = logger.WithName(ctx, "gen")
	jobs, err := Jobs(cfg, only)
	if err != nil {
		return nil, err
	}
	rep := &Report{Results: make([]*Result, len(jobs))}
	var g errgroup.Group
	g.SetLimit(max(cfg.Jobs, 1))
	for i, j := range jobs {
		g.Go(func() error {
			ctx := logger.WithKV(ctx, "variant", j.Variant)
			if j.Target != "" {
				ctx = logger.WithKV(ctx, "target", j.Target)
			}
			res := j.Finalize(ctx)
			rep.Results[i] = res
			if res.Err != nil {
				logger.ErrorKV(ctx, "finalization failed", "error", res.Err)
				return res.Err
			}
			logger.InfoKV(ctx, "finalized",
				"output", j.Output,
				"raw_size", res.RawSize,
				"checksum", fmt.Sprintf("%#08x", res.Checksum),
			)
			return nil
		})
	}
	if g.Wait() != nil {
		return rep, rep.Err()
	}
	return rep, nil
}
