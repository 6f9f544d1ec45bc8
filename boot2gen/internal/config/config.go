// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/embeddedgo/boot2/boot2gen/internal/artifact"
	"github.com/embeddedgo/boot2/boot2gen/internal/render"
	"github.com/embeddedgo/boot2/boot2gen/internal/stage2"
)

// Config describes which boot2 variants are finalized and where the raw
// images are read from and the artifacts written to.
type Config struct {
	// Variants lists the boot2 flavors, usually named after the flash chip.
	Variants []string `yaml:"variants"`
	// Targets lists the hardware targets. Empty means a single target and
	// the target name is omitted from the artifact names.
	Targets []string `yaml:"targets,omitempty"`
	// Input is the template of the raw image path (fields: Variant, Target).
	Input string `yaml:"input"`
	// OutputDir is the directory the artifacts are written to.
	OutputDir string `yaml:"output_dir"`
	// Format is the artifact format (see render.Names).
	Format string `yaml:"format"`
	// ContainerSize is the size of the finalized image.
	ContainerSize int `yaml:"container_size"`
	// Symbol is the name of the generated array.
	Symbol string `yaml:"symbol"`
	// Section is the linker section the array is placed in.
	Section string `yaml:"section"`
	// GoPackage is the package name used by the go format. Empty means the
	// name of the package in OutputDir.
	GoPackage string `yaml:"go_package,omitempty"`
	// Jobs limits the number of variants finalized in parallel. Zero means
	// the number of CPUs.
	Jobs int `yaml:"jobs,omitempty"`

	inputTmpl *template.Template
}

const (
	// DefaultFilename is the config file looked for in the current directory.
	DefaultFilename = "boot2gen.yaml"

	DefaultInput     = "build/boot2_{{.Variant}}/src/rp2_common/boot_stage2/bs2_default.bin"
	DefaultOutputDir = "src"

	DefaultFileMode fs.FileMode = 0o644
)

// DefaultVariants are the boot2 variants provided by the Pico SDK.
var DefaultVariants = []string{
	"generic_03h",
	"at25sf128a",
	"is25lp080",
	"w25q080",
	"w25x10cl",
}

var (
	errConfigIsNotSet = errors.New("configuration is not set")
	errNoVariants     = errors.New("no variants configured")

	validName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// Default returns the configuration used when there is no config file.
func Default() *Config {
	cfg := &Config{Variants: slices.Clone(DefaultVariants)}
	if err := Validate(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration from the named file. If name is empty the
// DefaultFilename is tried and the Default configuration is returned if it
// doesn't exist.
func Load(name string) (*Config, error) {
	explicit := name != ""
	if !explicit {
		name = DefaultFilename
	}
	contents, err := os.ReadFile(filepath.Clean(name))
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", name, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", name, err)
	}
	return &cfg, nil
}

// Save writes the configuration to the named file.
func Save(name string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}
	if name == "" {
		name = DefaultFilename
	}
	c := *cfg
	if err := Validate(&c); err != nil {
		return err
	}
	c.Jobs = cfg.Jobs // keep the number of CPUs out of the file
	data, err := yaml.Marshal(&c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(name), data, DefaultFileMode); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate fills the unset fields with defaults and checks the result.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}
	if len(cfg.Variants) == 0 {
		return errNoVariants
	}
	if err := checkNames("variant", cfg.Variants); err != nil {
		return err
	}
	if err := checkNames("target", cfg.Targets); err != nil {
		return err
	}
	if err := checkArtifactNames(cfg.Variants, cfg.Targets); err != nil {
		return err
	}
	if cfg.Input == "" {
		cfg.Input = DefaultInput
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.Format == "" {
		cfg.Format = render.DefaultFormat
	}
	if cfg.ContainerSize == 0 {
		cfg.ContainerSize = stage2.ContainerSize
	}
	if cfg.Symbol == "" {
		cfg.Symbol = render.DefaultSymbol
	}
	if cfg.Section == "" {
		cfg.Section = render.DefaultSection
	}
	if _, err := CheckOutput(cfg.Format, cfg.ContainerSize, cfg.Symbol, cfg.Section); err != nil {
		return err
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("bad number of jobs: %d", cfg.Jobs)
	}
	if cfg.Jobs == 0 {
		cfg.Jobs = runtime.NumCPU()
	}
	t, err := template.New("input").Option("missingkey=error").Parse(cfg.Input)
	if err != nil {
		return fmt.Errorf("bad input template: %w", err)
	}
	cfg.inputTmpl = t
	if _, err := cfg.InputPath("v", "t"); err != nil {
		return err
	}
	return nil
}

func checkNames(what string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !validName.MatchString(name) {
			return fmt.Errorf("bad %s name %q", what, name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate %s %q", what, name)
		}
		seen[name] = true
	}
	return nil
}

// checkArtifactNames rejects the variant/target pairs that would write the
// same artifact, e.g. target a_b with variant c and target a with variant b_c.
func checkArtifactNames(variants, targets []string) error {
	if len(targets) == 0 {
		return nil
	}
	seen := make(map[string]string, len(variants)*len(targets))
	for _, t := range targets {
		for _, v := range variants {
			name := artifact.Name(v, t, "")
			job := t + "/" + v
			if other, ok := seen[name]; ok {
				return fmt.Errorf("%s and %s use the same artifact name %q", other, job, name)
			}
			seen[name] = job
		}
	}
	return nil
}

// CheckOutput looks up the output format and checks that it can carry a
// container of the given size under the given symbol and section names.
func CheckOutput(format string, size int, symbol, section string) (*render.Format, error) {
	f, err := render.Lookup(format)
	if err != nil {
		return nil, err
	}
	if err := (stage2.Layout{Size: size}).Validate(); err != nil {
		return nil, err
	}
	if err := f.CheckSize(size); err != nil {
		return nil, err
	}
	if err := render.CheckNames(symbol, section); err != nil {
		return nil, err
	}
	return f, nil
}

// InputPath returns the path to the raw image of the variant built for the
// target.
func (cfg *Config) InputPath(variant, target string) (string, error) {
	if cfg.inputTmpl == nil {
		return "", errConfigIsNotSet
	}
	var buf bytes.Buffer
	err := cfg.inputTmpl.Execute(&buf, struct{ Variant, Target string }{variant, target})
	if err != nil {
		return "", fmt.Errorf("bad input template: %w", err)
	}
	return buf.String(), nil
}
