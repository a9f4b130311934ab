package types

import (
	"fmt"

	"qllc/internal/diag"
	"qllc/internal/source"
)

// UnsizedLength marks [T; ?]: an array whose length is not part of its
// type. Values of such a type are the address of the first element.
const UnsizedLength = -1

type Array struct {
	Elem   Type
	Length int
	Loc    *source.Location
}

func (a *Array) Location() *source.Location { return a.Loc }
func (a *Array) Resolve() Type              { return a }
func (a *Array) BindNames(env Env)          { a.Elem.BindNames(env) }

func (a *Array) String() string {
	if a.Length == UnsizedLength {
		return fmt.Sprintf("[%s; ?]", a.Elem)
	}
	return fmt.Sprintf("[%s; %d]", a.Elem, a.Length)
}

func (a *Array) mangle() string {
	if a.Length == UnsizedLength {
		return fmt.Sprintf("[%s; ?]", a.Elem.mangle())
	}
	return fmt.Sprintf("[%s; %d]", a.Elem.mangle(), a.Length)
}

func (a *Array) Size() int {
	if a.Length == UnsizedLength {
		return 1
	}
	return a.Length * a.Elem.Size()
}

func (a *Array) Substitute(s Substitution) Type {
	return &Array{Elem: a.Elem.Substitute(s), Length: a.Length, Loc: a.Loc}
}

func (a *Array) Kindcheck(env Env, kc KindChecker) {
	switch {
	case a.Length == UnsizedLength:
		a.Elem.Kindcheck(env, kc.Pointer())
	case a.Length < 0:
		env.Errorf(a.Loc, diag.KindInvalidLength, "invalid array length %d", a.Length)
	default:
		a.Elem.Kindcheck(env, kc.Array())
	}
}

func (a *Array) unifiable(other Type, u *unifier) bool {
	o, ok := other.(*Array)
	return ok && a.Length == o.Length && u.unify(a.Elem, o.Elem)
}
