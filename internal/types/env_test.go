package types

import (
	"fmt"
	"sort"
	"testing"

	"qllc/internal/diag"
	"qllc/internal/source"
)

// testEnv is a flat namespace of type declarations.
type testEnv struct {
	parent *testEnv
	names  map[string]*Binding
	order  []string
	errs   *[]string
	ids    *VariableIDs
}

func newTestEnv() *testEnv {
	return &testEnv{names: make(map[string]*Binding), errs: new([]string), ids: new(VariableIDs)}
}

func (e *testEnv) LookupType(name string) (*Binding, error) {
	for cur := e; cur != nil; cur = cur.parent {
		if b, ok := cur.names[name]; ok {
			return b, nil
		}
	}
	return nil, nil
}

func (e *testEnv) Errorf(loc *source.Location, code diag.Code, format string, args ...any) {
	*e.errs = append(*e.errs, fmt.Sprintf("%s: %s", code.ID(), fmt.Sprintf(format, args...)))
}

func (e *testEnv) declare(name string, t Type) {
	e.names[name] = &Binding{Qualified: "global::" + name, Type: t, Scope: e}
	e.order = append(e.order, name)
}

// declareTemplate declares name<params...> = body(params).
func (e *testEnv) declareTemplate(name string, params []string, body func(vars []Type) Type) *Template {
	inner := &testEnv{parent: e, names: make(map[string]*Binding), errs: e.errs, ids: e.ids}
	vars := make([]*Variable, len(params))
	refs := make([]Type, len(params))
	for i, p := range params {
		vars[i] = e.ids.New(p, nil)
		inner.names[p] = &Binding{Qualified: p, Type: vars[i], Scope: inner}
		refs[i] = NewIdentifier(p, nil)
	}
	tmpl := NewTemplate(vars, body(refs), nil)
	e.names[name] = &Binding{Qualified: "global::" + name, Type: tmpl, Scope: inner}
	e.order = append(e.order, name)
	return tmpl
}

// check runs the bind pass over every declaration, then kind-checks each.
func (e *testEnv) check() []string {
	for _, name := range e.order {
		b := e.names[name]
		b.Type.BindNames(b.Scope)
	}
	for _, name := range e.order {
		b := e.names[name]
		b.Type.Kindcheck(b.Scope, NewKindChecker().Direct(b.Qualified))
	}
	out := dedup(*e.errs)
	sort.Strings(out)
	return out
}

func dedup(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func id(name string) *Identifier { return NewIdentifier(name, nil) }

func ptr(t Type) *Pointer { return &Pointer{Elem: t} }

func slice(t Type) *Slice { return &Slice{Elem: t} }

func array(t Type, n int) *Array { return &Array{Elem: t, Length: n} }

func fn(ret Type, args ...Type) *Function { return &Function{Args: args, Return: ret} }

func st(pairs ...any) *Struct {
	s := &Struct{}
	for i := 0; i < len(pairs); i += 2 {
		s.Members = append(s.Members, Member{Name: pairs[i].(string), Type: pairs[i+1].(Type)})
	}
	return s
}

func inst(name string, args ...Type) *TemplateInstantiation {
	return &TemplateInstantiation{Name: id(name), Args: args}
}

func expectErrors(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got errors %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("error %d: got %q want %q", i, got[i], want[i])
		}
	}
}
