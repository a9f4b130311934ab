package ast

import (
	"fmt"
	"strings"

	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/sema"
	"qllc/internal/source"
	"qllc/internal/types"
)

// Separator joins namespace names in qualified identifiers.
const Separator = "::"

// RootName is the name of the outermost namespace.
const RootName = "global"

// Namespace is a scope of declarations. Types and values live in separate
// tables, so one name may denote both.
type Namespace struct {
	Name string
	Loc  *source.Location

	parent   *Namespace
	children map[string]*Namespace
	types    map[string]*types.Binding
	values   map[string]*sema.TypedStorage
	usings   []*UsingDeclaration
	ctx      *sema.Context
	program  *Program
}

var _ sema.Namespace = (*Namespace)(nil)

func newNamespace(name string, parent *Namespace, p *Program, ctx *sema.Context) *Namespace {
	ns := &Namespace{
		Name:     name,
		parent:   parent,
		children: make(map[string]*Namespace),
		types:    make(map[string]*types.Binding),
		values:   make(map[string]*sema.TypedStorage),
		program:  p,
	}
	ns.ctx = ctx.ForNamespace(ns)
	return ns
}

// Qualified returns the fully qualified name, e.g. global::std::mem.
func (ns *Namespace) Qualified() string {
	if ns.parent == nil {
		return RootName
	}
	return ns.parent.Qualified() + Separator + ns.Name
}

// Parent returns the enclosing namespace, nil for the root.
func (ns *Namespace) Parent() *Namespace { return ns.parent }

// Context is the type-checking context resolving names in ns.
func (ns *Namespace) Context() *sema.Context { return ns.ctx }

func (ns *Namespace) qualify(name string) string {
	return ns.Qualified() + Separator + name
}

// child returns the nested namespace name, creating it on first use.
// Namespaces are reopened, not redeclared.
func (ns *Namespace) child(name string, loc *source.Location) *Namespace {
	if c, ok := ns.children[name]; ok {
		return c
	}
	c := newNamespace(name, ns, ns.program, ns.ctx)
	c.Loc = loc
	ns.children[name] = c
	return c
}

func (ns *Namespace) addType(name string, b *types.Binding, loc *source.Location) bool {
	if _, ok := ns.types[name]; ok {
		ns.ctx.Errorf(loc, diag.ResDuplicate, "type %s is already declared in %s", name, ns.Qualified())
		return false
	}
	ns.types[name] = b
	return true
}

func (ns *Namespace) addValue(name string, st *sema.TypedStorage, loc *source.Location) bool {
	if _, ok := ns.values[name]; ok {
		ns.ctx.Errorf(loc, diag.ResDuplicate, "%s is already declared in %s", name, ns.Qualified())
		return false
	}
	ns.values[name] = st
	return true
}

// LookupType resolves a possibly qualified type name. Builtins are found
// when nothing declared matches.
func (ns *Namespace) LookupType(name string) (*types.Binding, error) {
	b, err := lookup(ns, name, func(n *Namespace, leaf string) (*types.Binding, bool) {
		b, ok := n.types[leaf]
		return b, ok
	})
	if err != nil || b != nil {
		return b, err
	}
	if t, ok := types.LookupBuiltin(name); ok {
		return &types.Binding{Qualified: name, Type: t}, nil
	}
	return nil, nil
}

// LookupValue resolves a possibly qualified global or function name.
func (ns *Namespace) LookupValue(name string) (*sema.TypedStorage, error) {
	return lookup(ns, name, func(n *Namespace, leaf string) (*sema.TypedStorage, bool) {
		st, ok := n.values[leaf]
		return st, ok
	})
}

// LookupNamespace resolves a namespace name the way using declarations do:
// nested namespaces first, then the enclosing ones. Usings are not
// followed.
func (ns *Namespace) LookupNamespace(name string) *Namespace {
	path := append(splitQualified(name), "")
	self := func(n *Namespace, _ string) (*Namespace, bool) { return n, true }
	for cur := ns; cur != nil; cur = cur.parent {
		if n, ok := direct(cur, path, self); ok {
			return n
		}
	}
	return nil
}

// lookup tries, in each namespace from ns outwards, the name itself and
// then every using import of that namespace. Two imports providing
// different declarations is an ambiguity.
func lookup[T comparable](ns *Namespace, name string, get func(*Namespace, string) (T, bool)) (T, error) {
	var zero T
	parts := splitQualified(name)
	for cur := ns; cur != nil; cur = cur.parent {
		if v, ok := direct(cur, parts, get); ok {
			return v, nil
		}
		var (
			found []*Namespace
			val   T
		)
		for _, u := range cur.usings {
			if u.target == nil {
				continue
			}
			v, ok := direct(u.target, parts, get)
			if !ok || (len(found) > 0 && v == val) {
				continue
			}
			found = append(found, u.target)
			val = v
		}
		switch len(found) {
		case 0:
		case 1:
			return val, nil
		default:
			return zero, fmt.Errorf("%s is ambiguous: found in %s and %s", name, found[0].Qualified(), found[1].Qualified())
		}
	}
	return zero, nil
}

// direct walks the namespace path in parts from ns and looks the last part
// up with get. At the root a leading global:: is accepted.
func direct[T any](ns *Namespace, parts []string, get func(*Namespace, string) (T, bool)) (T, bool) {
	var zero T
	if ns.parent == nil && len(parts) > 1 && parts[0] == RootName {
		parts = parts[1:]
	}
	cur := ns
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur.children[p]
		if !ok {
			return zero, false
		}
		cur = next
	}
	return get(cur, parts[len(parts)-1])
}

// splitQualified splits on :: outside template argument lists, so
// global::f<global::Point> has two parts.
func splitQualified(name string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '<':
			depth++
		case '>':
			// => в типах функций не закрывает список аргументов
			if i > 0 && name[i-1] == '=' {
				continue
			}
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && strings.HasPrefix(name[i:], Separator) {
				parts = append(parts, name[start:i])
				i += len(Separator) - 1
				start = i + 1
			}
		}
	}
	return append(parts, name[start:])
}

// NamespaceDeclaration opens (or reopens) a nested namespace.
type NamespaceDeclaration struct {
	Name  string
	Decls []Declaration
	Loc   *source.Location
}

func (d *NamespaceDeclaration) Location() *source.Location { return d.Loc }

func (d *NamespaceDeclaration) declare(ns *Namespace) {
	child := ns.child(d.Name, d.Loc)
	for _, inner := range d.Decls {
		inner.declare(child)
	}
}

// Compile is never reached: namespace members are compiled individually.
func (d *NamespaceDeclaration) Compile(*codegen.Unit) {
	panic(fmt.Errorf("namespace %s compiled directly", d.Name))
}

// UsingDeclaration makes the declarations of another namespace visible
// unqualified in the enclosing one.
type UsingDeclaration struct {
	Namespace string
	Loc       *source.Location

	owner  *Namespace
	target *Namespace
}

func (d *UsingDeclaration) Location() *source.Location { return d.Loc }

func (d *UsingDeclaration) declare(ns *Namespace) {
	d.owner = ns
	ns.usings = append(ns.usings, d)
	ns.program.usings = append(ns.program.usings, d)
}

// resolve finds the imported namespace; usings do not see each other.
func (d *UsingDeclaration) resolve() {
	d.target = d.owner.LookupNamespace(d.Namespace)
	if d.target == nil {
		d.owner.ctx.Errorf(d.Loc, diag.ResUnknownNamespace, "unknown namespace %s", d.Namespace)
	}
}

// Target is the resolved namespace, nil before binding or when unknown.
func (d *UsingDeclaration) Target() *Namespace { return d.target }

func (d *UsingDeclaration) Compile(*codegen.Unit) {}
