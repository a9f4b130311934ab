package types

import (
	"qllc/internal/diag"
	"qllc/internal/source"
)

type nameSet map[string]struct{}

func (s nameSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

// union returns a fresh set; receivers are never mutated so checkers can
// be copied by value along each path.
func union(sets ...nameSet) nameSet {
	out := make(nameSet)
	for _, s := range sets {
		for name := range s {
			out[name] = struct{}{}
		}
	}
	return out
}

// KindChecker tracks, along one path through a type definition, how each
// named type on the path has been reached:
//
//	directs   no indirection or aggregate yet
//	structs   through a struct but no pointer
//	pointers  through a pointer or slice but no struct
//	visiteds  through both; recursion through these terminates
//
// A KindChecker is a value; each step returns a new one. depth counts the
// template expansions on the path.
type KindChecker struct {
	directs  nameSet
	structs  nameSet
	pointers nameSet
	visiteds nameSet
	depth    int
}

// MaxExpansionDepth bounds nested template expansion, both while checking
// definitions and while instantiating functions.
const MaxExpansionDepth = 10

// Expand is taken when descending into a template instance. It reports
// false once the path already holds MaxExpansionDepth expansions.
func (kc KindChecker) Expand() (KindChecker, bool) {
	if kc.depth >= MaxExpansionDepth {
		return kc, false
	}
	kc.depth++
	return kc, true
}

func NewKindChecker() KindChecker {
	return KindChecker{}
}

// Direct records name as being defined on the current path.
func (kc KindChecker) Direct(name string) KindChecker {
	kc.directs = union(kc.directs, nameSet{name: {}})
	return kc
}

// Pointer is taken when descending into a pointer's element.
func (kc KindChecker) Pointer() KindChecker {
	return KindChecker{
		pointers: union(kc.pointers, kc.directs),
		visiteds: union(kc.visiteds, kc.structs),
		depth:    kc.depth,
	}
}

// Slice behaves like Pointer: the elements live behind the descriptor.
func (kc KindChecker) Slice() KindChecker {
	return kc.Pointer()
}

// Struct is taken when descending into a struct member.
func (kc KindChecker) Struct() KindChecker {
	return KindChecker{
		structs:  union(kc.structs, kc.directs),
		visiteds: union(kc.visiteds, kc.pointers),
		depth:    kc.depth,
	}
}

// Array is taken when descending into a fixed array's element: the
// elements are stored inline, so nothing changes.
func (kc KindChecker) Array() KindChecker {
	return kc
}

// Function is taken for argument and return types; a function value is a
// single word no matter what it mentions.
func (kc KindChecker) Function() KindChecker {
	return KindChecker{
		visiteds: union(kc.visiteds, kc.directs, kc.structs, kc.pointers),
		depth:    kc.depth,
	}
}

// Reference checks a use of the named type. A name already on the path
// with an unpaid obligation is reported; a name reached through both a
// struct and an indirection is accepted; anything else has its definition
// checked with the name added to the path. label is what the error names.
// It returns false when the reference was reported.
func (kc KindChecker) Reference(env Env, loc *source.Location, name, label string, definition func(KindChecker)) bool {
	switch {
	case kc.visiteds.has(name):
		return true
	case kc.directs.has(name), kc.structs.has(name), kc.pointers.has(name):
		env.Errorf(loc, diag.KindRecursiveType, "recursive type %s has infinite size", label)
		return false
	}
	definition(kc.Direct(name))
	return true
}
