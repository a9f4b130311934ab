package sema

import (
	"fmt"

	"qllc/internal/diag"
	"qllc/internal/source"
	"qllc/internal/types"
)

// MaxInstantiationDepth bounds nested template instantiation.
const MaxInstantiationDepth = types.MaxExpansionDepth

// Source is one frame of the instantiation chain: the instance being
// checked and the place that requested it.
type Source struct {
	Name   string
	Loc    *source.Location
	Parent *Source
	depth  int
}

// Depth is the number of frames up to and including s.
func (s *Source) Depth() int {
	if s == nil {
		return 0
	}
	return s.depth
}

// Notes renders the chain innermost first.
func (s *Source) Notes() []diag.Note {
	var notes []diag.Note
	for cur := s; cur != nil; cur = cur.Parent {
		notes = append(notes, diag.Note{
			Location: cur.Loc,
			Msg:      fmt.Sprintf("in instantiation of `%s`", cur.Name),
		})
	}
	return notes
}

// Instantiate returns a context for checking the instance name requested at
// loc. When the chain is already MaxInstantiationDepth frames deep it
// reports the overflow and returns false.
func (c *Context) Instantiate(name string, loc *source.Location) (*Context, bool) {
	if c.source.Depth() >= MaxInstantiationDepth {
		c.Errorf(loc, diag.TplDepthExceeded, "template instantiation depth exceeds %d while instantiating %s", MaxInstantiationDepth, name)
		return nil, false
	}
	next := *c
	next.source = &Source{Name: name, Loc: loc, Parent: c.source, depth: c.source.Depth() + 1}
	return &next, true
}

// Source returns the innermost instantiation frame, or nil.
func (c *Context) Source() *Source { return c.source }
