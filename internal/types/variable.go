package types

import (
	"fmt"

	"qllc/internal/source"
)

// VariableIDs numbers the variables of one compilation, so mangled names
// of unbound variables do not depend on what else ran in the process.
// The zero value is ready to use.
type VariableIDs struct {
	last uint64
}

// New creates an unbound variable with the next id.
func (ids *VariableIDs) New(name string, loc *source.Location) *Variable {
	ids.last++
	return &Variable{Name: name, Loc: loc, id: ids.last}
}

// Variable is a unification placeholder: a template parameter or a type
// still to be inferred. It binds once; the first concrete type it is
// unified with sticks.
type Variable struct {
	Name    string
	Loc     *source.Location
	id      uint64
	binding Type
}

func (v *Variable) Location() *source.Location { return v.Loc }

// Bound returns the binding, or nil.
func (v *Variable) Bound() Type { return v.binding }

// Bind fixes the variable to t; binding twice is an internal error.
func (v *Variable) Bind(t Type) {
	if t == Type(v) {
		return
	}
	if v.binding != nil {
		panic(fmt.Errorf("type variable %s bound twice (%s, %s)", v.Name, v.binding, t))
	}
	v.binding = t
}

func (v *Variable) String() string {
	if v.binding != nil {
		return v.binding.String()
	}
	return v.Name
}

func (v *Variable) mangle() string {
	if v.binding != nil {
		return v.binding.mangle()
	}
	return fmt.Sprintf("%s#%d", v.Name, v.id)
}

func (v *Variable) Resolve() Type {
	if v.binding != nil {
		return v.binding.Resolve()
	}
	return v
}

func (v *Variable) Size() int {
	if v.binding == nil {
		panic(fmt.Errorf("size of unbound type variable %s", v.Name))
	}
	return v.binding.Size()
}

func (v *Variable) Substitute(s Substitution) Type {
	if t, ok := s[v]; ok {
		return t
	}
	if v.binding != nil {
		return v.binding.Substitute(s)
	}
	return v
}

func (v *Variable) BindNames(env Env) {
	if v.binding != nil {
		v.binding.BindNames(env)
	}
}

func (v *Variable) Kindcheck(env Env, kc KindChecker) {
	if v.binding != nil {
		v.binding.Kindcheck(env, kc)
	}
}

// unifiable is only reached for bound variables, which normalize away.
func (v *Variable) unifiable(Type, *unifier) bool { return false }
