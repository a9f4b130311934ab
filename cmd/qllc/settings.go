package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qllc/internal/diagfmt"
	"qllc/internal/pipeline"
	"qllc/internal/project"
	"qllc/internal/version"
)

// settings is the manifest merged with the flags; flags win.
type settings struct {
	manifest *project.Manifest

	inputs   []string
	opts     pipeline.Options
	output   string
	format   string // text|msgpack
	emitLive bool

	diagFormat diagfmt.Format
	quiet      bool
	timings    bool
	ui         uiMode
}

var errNoInputs = errors.New("no inputs: pass unit files or run inside a project with " + project.ManifestName)

// addBuildFlags registers the flags shared by build and watch.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "write directives to this file (default stdout)")
	cmd.Flags().Bool("library", false, "link a library: export global::$initialize, no entry point")
	cmd.Flags().String("entry", "main", "entry function")
	cmd.Flags().String("format", "text", "directive output format (text|msgpack)")
	cmd.Flags().Bool("emit-live", false, "print the live declarations")
	cmd.Flags().StringSlice("export", nil, "extra liveness roots")
}

func loadSettings(cmd *cobra.Command, args []string) (*settings, error) {
	s := &settings{opts: pipeline.Options{Entry: "main"}, format: "text"}

	m, found, err := project.Discover(".")
	if err != nil {
		return nil, err
	}
	if found {
		if err := m.CheckCompiler(version.Number); err != nil {
			return nil, err
		}
		s.manifest = m
		s.opts.Library = m.Build.Library
		if m.Build.Entry != "" {
			s.opts.Entry = m.Build.Entry
		}
		s.opts.Exports = m.Build.Exports
		s.opts.MaxDiagnostics = m.Build.MaxDiagnostics
		s.output = m.OutputPath()
		if m.Build.Format != "" {
			s.format = m.Build.Format
		}
	}

	switch {
	case len(args) > 0:
		s.inputs = args
	case found:
		if s.inputs, err = m.InputPaths(); err != nil {
			return nil, err
		}
	}
	if len(s.inputs) == 0 {
		return nil, errNoInputs
	}

	pf := cmd.Root().PersistentFlags()
	if pf.Changed("max-diagnostics") || !found || s.opts.MaxDiagnostics == 0 {
		if s.opts.MaxDiagnostics, err = pf.GetInt("max-diagnostics"); err != nil {
			return nil, err
		}
	}
	if s.quiet, err = pf.GetBool("quiet"); err != nil {
		return nil, err
	}
	if s.timings, err = pf.GetBool("timings"); err != nil {
		return nil, err
	}
	uiValue, err := pf.GetString("ui")
	if err != nil {
		return nil, err
	}
	if s.ui, err = readUIMode(uiValue); err != nil {
		return nil, err
	}
	diagValue, err := pf.GetString("diagnostics-format")
	if err != nil {
		return nil, err
	}
	if s.diagFormat, err = diagfmt.ParseFormat(diagValue); err != nil {
		return nil, err
	}

	if err := s.applyBuildFlags(cmd); err != nil {
		return nil, err
	}
	if s.format != "text" && s.format != "msgpack" {
		return nil, fmt.Errorf("invalid output format %q (expected text|msgpack)", s.format)
	}
	for _, in := range s.inputs {
		if _, err := os.Stat(in); err != nil {
			return nil, fmt.Errorf("input %s: %w", in, err)
		}
	}
	return s, nil
}

// applyBuildFlags copies the build flags that were set; check has none.
func (s *settings) applyBuildFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	var err error
	if f.Lookup("output") == nil {
		return nil
	}
	if f.Changed("output") {
		if s.output, err = f.GetString("output"); err != nil {
			return err
		}
	}
	if f.Changed("library") {
		if s.opts.Library, err = f.GetBool("library"); err != nil {
			return err
		}
	}
	if f.Changed("entry") {
		if s.opts.Entry, err = f.GetString("entry"); err != nil {
			return err
		}
	}
	if f.Changed("format") {
		if s.format, err = f.GetString("format"); err != nil {
			return err
		}
	}
	if f.Changed("export") {
		extra, err := f.GetStringSlice("export")
		if err != nil {
			return err
		}
		s.opts.Exports = append(append([]string(nil), s.opts.Exports...), extra...)
	}
	s.emitLive, err = f.GetBool("emit-live")
	return err
}
