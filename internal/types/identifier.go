package types

import (
	"fmt"

	"qllc/internal/diag"
	"qllc/internal/source"
)

// Identifier names a declared type or a template parameter. It is bound
// exactly once, on first use, to what its name resolves to.
type Identifier struct {
	Name    string
	Loc     *source.Location
	binding *Binding
	// cyclic is set when the kind-checker finds that this reference closes
	// an infinite cycle; the identifier then stands for the error type.
	cyclic bool
}

func NewIdentifier(name string, loc *source.Location) *Identifier {
	return &Identifier{Name: name, Loc: loc}
}

func (id *Identifier) Location() *source.Location { return id.Loc }
func (id *Identifier) String() string             { return id.Name }

func (id *Identifier) mangle() string {
	if id.binding == nil {
		return id.Name
	}
	if v, ok := id.binding.Type.(*Variable); ok {
		return v.mangle()
	}
	return id.binding.Qualified
}

// Binding returns what the identifier was bound to, or nil.
func (id *Identifier) Binding() *Binding { return id.binding }

// BindTo sets the binding; binding twice is an internal error.
func (id *Identifier) BindTo(b *Binding) {
	if id.binding != nil {
		panic(fmt.Errorf("type identifier %s bound twice (%s, %s)", id.Name, id.binding.Qualified, b.Qualified))
	}
	id.binding = b
}

func (id *Identifier) BindNames(env Env) {
	if id.binding != nil {
		return
	}
	b, err := env.LookupType(id.Name)
	switch {
	case err != nil:
		env.Errorf(id.Loc, diag.ResAmbiguous, "%v", err)
		b = &Binding{Qualified: id.Name, Type: Error}
	case b == nil:
		env.Errorf(id.Loc, diag.ResUnknownType, "unknown type %s", id.Name)
		b = &Binding{Qualified: id.Name, Type: Error}
	}
	id.binding = b
}

func (id *Identifier) target() Type {
	if id.binding == nil {
		panic(fmt.Errorf("type identifier %s used before binding", id.Name))
	}
	if id.cyclic {
		return Error
	}
	return id.binding.Type
}

func (id *Identifier) Resolve() Type { return id.target().Resolve() }
func (id *Identifier) Size() int     { return id.target().Size() }

func (id *Identifier) Substitute(s Substitution) Type {
	if id.binding == nil {
		return NewIdentifier(id.Name, id.Loc)
	}
	if v, ok := id.binding.Type.(*Variable); ok {
		if t, ok := s[v]; ok {
			return t
		}
	}
	return id
}

func (id *Identifier) Kindcheck(env Env, kc KindChecker) {
	id.BindNames(env)
	b := id.binding
	switch b.Type.(type) {
	case *Variable:
		return
	case *Builtin:
		return
	}
	scope := b.Scope
	if scope == nil {
		scope = env
	}
	if !kc.Reference(env, id.Loc, b.Qualified, b.Qualified, func(next KindChecker) {
		b.Type.Kindcheck(scope, next)
	}) {
		id.cyclic = true
	}
}

func (id *Identifier) unifiable(other Type, u *unifier) bool {
	o, ok := other.(*Identifier)
	if !ok {
		return false
	}
	return id.mangle() == o.mangle()
}
