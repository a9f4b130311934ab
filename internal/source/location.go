package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Location is a position in a parsed translation unit as reported by the parser.
// Line and Column are 1-based; zero means unknown.
type Location struct {
	File   string
	Line   int
	Column int
}

// At is a shorthand constructor used by decoders and tests.
func At(file string, line, column int) *Location {
	return &Location{File: normalizePath(file), Line: line, Column: column}
}

// String renders the location as file(line)[column].
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	return fmt.Sprintf("%s(%d)[%d]", l.File, l.Line, l.Column)
}

// Less orders locations by file, line and column; nil sorts first.
func (l *Location) Less(other *Location) bool {
	switch {
	case l == nil:
		return other != nil
	case other == nil:
		return false
	case l.File != other.File:
		return l.File < other.File
	case l.Line != other.Line:
		return l.Line < other.Line
	default:
		return l.Column < other.Column
	}
}

// Equal reports whether both locations point to the same place.
func (l *Location) Equal(other *Location) bool {
	if l == nil || other == nil {
		return l == other
	}
	return *l == *other
}

func normalizePath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}
