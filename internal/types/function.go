package types

import (
	"strings"

	"qllc/internal/source"
)

type Function struct {
	Args   []Type
	Return Type
	Loc    *source.Location
}

func (f *Function) Location() *source.Location { return f.Loc }
func (f *Function) Resolve() Type              { return f }
func (f *Function) Size() int                  { return 1 }
func (f *Function) String() string             { return f.render(Type.String) }
func (f *Function) mangle() string             { return f.render(Type.mangle) }

func (f *Function) render(r func(Type) string) string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = r(a)
	}
	return "(" + strings.Join(args, ", ") + ") => " + r(f.Return)
}

func (f *Function) Substitute(s Substitution) Type {
	args := make([]Type, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.Substitute(s)
	}
	return &Function{Args: args, Return: f.Return.Substitute(s), Loc: f.Loc}
}

func (f *Function) BindNames(env Env) {
	for _, a := range f.Args {
		a.BindNames(env)
	}
	f.Return.BindNames(env)
}

func (f *Function) Kindcheck(env Env, kc KindChecker) {
	inner := kc.Function()
	for _, a := range f.Args {
		a.Kindcheck(env, inner)
	}
	f.Return.Kindcheck(env, inner)
}

// Arguments unify in the reverse direction: a function accepting T can be
// used where one accepting something convertible to T is expected.
func (f *Function) unifiable(other Type, u *unifier) bool {
	o, ok := other.(*Function)
	if !ok || len(f.Args) != len(o.Args) {
		return false
	}
	for i := range f.Args {
		if !u.unify(o.Args[i], f.Args[i]) {
			return false
		}
	}
	return u.unify(f.Return, o.Return)
}
