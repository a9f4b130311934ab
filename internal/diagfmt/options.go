// Package diagfmt renders diagnostics: the short one-line form, a coloured
// pretty form with notes, and JSON.
package diagfmt

import (
	"fmt"
	"path/filepath"
	"strings"

	"qllc/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints paths as the parser reported them.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeBasename
)

// Format is an output format of diagnostics.
type Format string

const (
	FormatShort  Format = "short"
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
)

// ParseFormat accepts short, pretty and json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatShort, FormatPretty, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown diagnostics format %q (want short, pretty or json)", s)
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	ShowNotes bool
	Max       int // обрезка вывода, не Bag
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	IncludeNotes bool
	Max          int
}

func formatPath(file string, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(file); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeBasename:
		return filepath.Base(file)
	}
	return file
}

// location renders loc as file(line)[column] under mode; nil is empty.
func location(loc *source.Location, mode PathMode) string {
	if loc == nil {
		return ""
	}
	l := *loc
	if l.File != "" {
		l.File = formatPath(l.File, mode)
	}
	return l.String()
}

func limit(n, max int) int {
	if max > 0 && max < n {
		return max
	}
	return n
}
