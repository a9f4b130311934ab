package types

import "qllc/internal/source"

type Pointer struct {
	Elem Type
	Loc  *source.Location
}

func NewPointer(elem Type) *Pointer { return &Pointer{Elem: elem, Loc: elem.Location()} }

func (p *Pointer) Location() *source.Location { return p.Loc }
func (p *Pointer) String() string             { return "*" + p.Elem.String() }
func (p *Pointer) mangle() string             { return "*" + p.Elem.mangle() }
func (p *Pointer) Resolve() Type              { return p }
func (p *Pointer) Size() int                  { return 1 }
func (p *Pointer) BindNames(env Env)          { p.Elem.BindNames(env) }

func (p *Pointer) Substitute(s Substitution) Type {
	return &Pointer{Elem: p.Elem.Substitute(s), Loc: p.Loc}
}

func (p *Pointer) Kindcheck(env Env, kc KindChecker) {
	p.Elem.Kindcheck(env, kc.Pointer())
}

func (p *Pointer) unifiable(other Type, u *unifier) bool {
	o, ok := other.(*Pointer)
	return ok && u.unify(p.Elem, o.Elem)
}

// Slice is a runtime descriptor of pointer, length and capacity.
type Slice struct {
	Elem Type
	Loc  *source.Location
}

// SliceSize is the number of words in a slice descriptor.
const SliceSize = 3

// Offsets of the descriptor words.
const (
	SlicePointer  = 0
	SliceLength   = 1
	SliceCapacity = 2
)

func (sl *Slice) Location() *source.Location { return sl.Loc }
func (sl *Slice) String() string             { return "[" + sl.Elem.String() + "]" }
func (sl *Slice) mangle() string             { return "[" + sl.Elem.mangle() + "]" }
func (sl *Slice) Resolve() Type              { return sl }
func (sl *Slice) Size() int                  { return SliceSize }
func (sl *Slice) BindNames(env Env)          { sl.Elem.BindNames(env) }

func (sl *Slice) Substitute(s Substitution) Type {
	return &Slice{Elem: sl.Elem.Substitute(s), Loc: sl.Loc}
}

func (sl *Slice) Kindcheck(env Env, kc KindChecker) {
	sl.Elem.Kindcheck(env, kc.Slice())
}

func (sl *Slice) unifiable(other Type, u *unifier) bool {
	o, ok := other.(*Slice)
	return ok && u.unify(sl.Elem, o.Elem)
}
