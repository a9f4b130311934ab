// Package types implements the type algebra: the closed set of type
// variants, nominal and structural unification, sizes, substitution for
// template instantiation and the kind-checker for recursive definitions.
package types

import (
	"qllc/internal/diag"
	"qllc/internal/source"
)

// Type is implemented by every variant in this package and only there.
type Type interface {
	Location() *source.Location
	String() string

	// Resolve dealiases identifiers, instantiations and projections down to
	// the underlying shape. Bound variables resolve to their binding.
	Resolve() Type

	// Size is the size in machine words; defined once the type has been
	// kind-checked and contains no unbound variables.
	Size() int

	// Substitute replaces the variables in s and clones the rest.
	Substitute(s Substitution) Type

	// BindNames resolves every identifier in the type against env without
	// descending into the definitions they name.
	BindNames(env Env)

	// Kindcheck validates that the type has a finite size.
	Kindcheck(env Env, kc KindChecker)

	unifiable(other Type, u *unifier) bool
	mangle() string
}

// Substitution maps template parameters to concrete types.
type Substitution map[*Variable]Type

// Binding is what a type identifier resolves to.
type Binding struct {
	// Qualified is the fully qualified name, e.g. global::list::Node.
	Qualified string
	Type      Type
	// Scope is the environment the definition was written in.
	Scope Env
}

// Env is the view of the type-checking context the type algebra needs.
// LookupType returns nil when name is not declared and an error when it is
// ambiguous.
type Env interface {
	LookupType(name string) (*Binding, error)
	Errorf(loc *source.Location, code diag.Code, format string, args ...any)
}

// IsEqualTo reports nominal equality: aliases are not resolved.
func IsEqualTo(a, b Type) bool {
	return newUnifier(true).unify(a, b)
}

// IsConvertibleTo reports whether a value of type from can be used where
// to is expected. Aliases are resolved and arrays decay to slices.
func IsConvertibleTo(from, to Type) bool {
	return newUnifier(false).unify(from, to)
}

// IsNumeric reports whether t is convertible to byte.
func IsNumeric(t Type) bool {
	return IsConvertibleTo(t, Byte)
}

// IsIntegral reports whether a value of t fits a register and can be used
// as a condition.
func IsIntegral(t Type) bool {
	switch r := t.Resolve().(type) {
	case *Pointer, *Function, *Builtin:
		return true
	case *Array:
		return r.Length == UnsizedLength
	}
	return false
}

// IsError reports whether t is, or names, the error sentinel.
func IsError(t Type) bool {
	for {
		switch v := normalize(t).(type) {
		case *Builtin:
			return v.Kind == BuiltinError
		case *Identifier:
			if v.binding == nil {
				return false
			}
			t = v.target()
		case *TemplateInstantiation:
			if v.cyclic {
				return true
			}
			if v.inst == nil {
				return false
			}
			t = v.inst
		default:
			return false
		}
	}
}

// IsVoid reports whether t resolves to void.
func IsVoid(t Type) bool {
	b, ok := t.Resolve().(*Builtin)
	return ok && b.Kind == BuiltinVoid
}

// Mangle renders t with fully qualified names; two types with the same
// mangled form are the same type.
func Mangle(t Type) string {
	return t.mangle()
}

// normalize follows bound variables and identifiers naming template
// parameters.
func normalize(t Type) Type {
	for {
		switch v := t.(type) {
		case *Variable:
			if v.binding == nil {
				return v
			}
			t = v.binding
		case *Identifier:
			if v.binding == nil {
				return v
			}
			tv, ok := v.binding.Type.(*Variable)
			if !ok {
				return v
			}
			t = tv
		default:
			return t
		}
	}
}

// dealias strips identifiers, instantiations and projections at the head.
func dealias(t Type) Type {
	for {
		switch v := normalize(t).(type) {
		case *Identifier:
			t = v.target()
		case *TemplateInstantiation:
			t = v.instance()
		case *Dot:
			t = v.member()
		default:
			return v
		}
	}
}

// unifier carries the mode and the named pairs already assumed equal, so
// recursive types compare coinductively.
type unifier struct {
	nominal bool
	assumed map[[2]string]struct{}
}

func newUnifier(nominal bool) *unifier {
	return &unifier{nominal: nominal}
}

func named(t Type) bool {
	switch t.(type) {
	case *Identifier, *TemplateInstantiation:
		return true
	}
	return false
}

func (u *unifier) unify(a, b Type) bool {
	a, b = normalize(a), normalize(b)
	if a == b {
		return true
	}
	if IsError(a) || IsError(b) {
		return true
	}
	if va, ok := a.(*Variable); ok {
		if vb, ok := b.(*Variable); ok && va == vb {
			return true
		}
		va.Bind(b)
		return true
	}
	if vb, ok := b.(*Variable); ok {
		vb.Bind(a)
		return true
	}
	if _, ok := a.(*Dot); ok {
		a = dealias(a)
	}
	if _, ok := b.(*Dot); ok {
		b = dealias(b)
	}
	if u.nominal {
		return a.unifiable(b, u)
	}
	if named(a) || named(b) {
		key := [2]string{a.mangle(), b.mangle()}
		if key[0] == key[1] {
			return true
		}
		if _, ok := u.assumed[key]; ok {
			return true
		}
		if u.assumed == nil {
			u.assumed = make(map[[2]string]struct{})
		}
		u.assumed[key] = struct{}{}
		a, b = dealias(a), dealias(b)
		if IsError(a) || IsError(b) {
			return true
		}
		return u.unify(a, b)
	}
	if ok, handled := u.decay(a, b); handled {
		return ok
	}
	return a.unifiable(b, u)
}

// decay handles the structural conversions into slices.
func (u *unifier) decay(from, to Type) (ok, handled bool) {
	switch t := to.(type) {
	case *Slice:
		switch f := from.(type) {
		case *Pointer:
			if arr, isArr := dealias(f.Elem).(*Array); isArr && arr.Length != UnsizedLength {
				return u.unify(arr.Elem, t.Elem), true
			}
		case *Array:
			if f.Length != UnsizedLength {
				return u.unify(f.Elem, t.Elem), true
			}
		case *Struct:
			if elem, shaped := sliceShape(f); shaped {
				return u.unify(elem, t.Elem), true
			}
		}
	case *Struct:
		if f, isSlice := from.(*Slice); isSlice {
			if elem, shaped := sliceShape(t); shaped {
				return u.unify(f.Elem, elem), true
			}
		}
	}
	return false, false
}

// sliceShape reports whether s is laid out as a slice descriptor and
// returns its element type.
func sliceShape(s *Struct) (Type, bool) {
	if len(s.Members) != 3 ||
		s.Members[0].Name != "pointer" ||
		s.Members[1].Name != "length" ||
		s.Members[2].Name != "capacity" {
		return nil, false
	}
	ptr, ok := dealias(s.Members[0].Type).(*Pointer)
	if !ok {
		return nil, false
	}
	for _, m := range s.Members[1:] {
		if b, isByte := dealias(m.Type).(*Builtin); !isByte || b.Kind != BuiltinByte {
			return nil, false
		}
	}
	return ptr.Elem, true
}
