// Package project reads the qll.toml project manifest.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing.
	ErrPackageNameMissing = errors.New("missing [package].name")
	// ErrCompilerMismatch means the running compiler does not satisfy
	// [package].compiler.
	ErrCompilerMismatch = errors.New("compiler version does not satisfy the manifest")
)

// Manifest is a decoded qll.toml.
type Manifest struct {
	// Path of the manifest; Root is its directory.
	Path string
	Root string

	Package Package
	Build   Build
}

type Package struct {
	Name string `toml:"name"`
	// Compiler is a semver constraint such as ">= 0.4, < 1".
	Compiler string `toml:"compiler"`
}

// Build holds defaults for check and build; flags override them.
type Build struct {
	// Inputs are unit paths or globs relative to the manifest.
	Inputs         []string `toml:"inputs"`
	Library        bool     `toml:"library"`
	Entry          string   `toml:"entry"`
	Output         string   `toml:"output"`
	Format         string   `toml:"format"`
	MaxDiagnostics int      `toml:"max-diagnostics"`
	Exports        []string `toml:"exports"`
}

type manifestFile struct {
	Package Package `toml:"package"`
	Build   Build   `toml:"build"`
}

// Load parses the manifest at path. Unknown keys are errors.
func Load(path string) (*Manifest, error) {
	var cfg manifestFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if c := strings.TrimSpace(cfg.Package.Compiler); c != "" {
		if _, err := semver.NewConstraint(c); err != nil {
			return nil, fmt.Errorf("%s: [package].compiler: %w", path, err)
		}
	}
	if cfg.Build.MaxDiagnostics < 0 {
		return nil, fmt.Errorf("%s: [build].max-diagnostics must not be negative", path)
	}
	return &Manifest{
		Path:    path,
		Root:    filepath.Dir(path),
		Package: cfg.Package,
		Build:   cfg.Build,
	}, nil
}

// CheckCompiler validates version against [package].compiler. An empty
// constraint accepts everything.
func (m *Manifest) CheckCompiler(version string) error {
	if strings.TrimSpace(m.Package.Compiler) == "" {
		return nil
	}
	c, err := semver.NewConstraint(m.Package.Compiler)
	if err != nil {
		return fmt.Errorf("%s: [package].compiler: %w", m.Path, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("compiler version %q: %w", version, err)
	}
	if ok, errs := c.Validate(v); !ok {
		reasons := make([]string, len(errs))
		for i, e := range errs {
			reasons[i] = e.Error()
		}
		return fmt.Errorf("%s: %w: %s", m.Path, ErrCompilerMismatch, strings.Join(reasons, "; "))
	}
	return nil
}

// InputPaths expands [build].inputs relative to Root. Globs expand in
// lexical order; the first occurrence of a path wins.
func (m *Manifest) InputPaths() ([]string, error) {
	var out []string
	for _, in := range m.Build.Inputs {
		p := in
		if !filepath.IsAbs(p) {
			p = filepath.Join(m.Root, p)
		}
		matches := []string{p}
		if strings.ContainsAny(in, "*?[") {
			var err error
			matches, err = filepath.Glob(p)
			if err != nil {
				return nil, fmt.Errorf("%s: input %q: %w", m.Path, in, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("%s: input %q matches nothing", m.Path, in)
			}
		}
		for _, match := range matches {
			if !slices.Contains(out, match) {
				out = append(out, match)
			}
		}
	}
	return out, nil
}

// OutputPath resolves [build].output relative to Root; empty stays empty.
func (m *Manifest) OutputPath() string {
	if m.Build.Output == "" || filepath.IsAbs(m.Build.Output) {
		return m.Build.Output
	}
	return filepath.Join(m.Root, m.Build.Output)
}
