package ast

import (
	"fmt"

	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/liveness"
	"qllc/internal/sema"
	"qllc/internal/types"
)

// typeDeclaration is implemented by declarations entering the type table.
type typeDeclaration interface {
	Declaration
	bind()
	kindcheck()
}

// Program is the whole-program view: the global namespace and every
// declaration in it, in source order. Template instances are appended to
// the functions as they are created.
type Program struct {
	Root *Namespace

	ctx            *sema.Context
	typeDecls      []typeDeclaration
	globals        []*GlobalDeclaration
	functions      []*FunctionDeclaration
	functionByName map[string]*FunctionDeclaration
	templates      []*TemplateFunctionDeclaration
	templateByName map[string]*TemplateFunctionDeclaration
	usings         []*UsingDeclaration
}

// NewProgram enters decls into a fresh global namespace. Duplicate names
// are reported through ctx.
func NewProgram(ctx *sema.Context, decls []Declaration) *Program {
	p := &Program{
		ctx:            ctx,
		functionByName: make(map[string]*FunctionDeclaration),
		templateByName: make(map[string]*TemplateFunctionDeclaration),
	}
	p.Root = newNamespace(RootName, nil, p, ctx)
	for _, d := range decls {
		d.declare(p.Root)
	}
	return p
}

func (p *Program) addFunction(fn *FunctionDeclaration) {
	p.functions = append(p.functions, fn)
	p.functionByName[fn.qualified] = fn
}

// Context is the root type-checking context.
func (p *Program) Context() *sema.Context { return p.ctx }

// Bind resolves using declarations and the names inside type definitions.
func (p *Program) Bind() {
	for _, u := range p.usings {
		u.resolve()
	}
	for _, d := range p.typeDecls {
		d.bind()
	}
}

// Kindcheck validates type definitions and declared signatures.
func (p *Program) Kindcheck() {
	for _, d := range p.typeDecls {
		d.kindcheck()
	}
	for _, g := range p.globals {
		g.kindcheck()
	}
	for _, fn := range p.functions {
		fn.kindcheck()
	}
	for _, t := range p.templates {
		t.kindcheck()
	}
}

// Typecheck checks global initializers, then function bodies. Template
// instances are checked when first requested. Templates that end up with
// no instance are reported by the deferred checks.
func (p *Program) Typecheck() {
	for _, g := range p.globals {
		g.typecheck()
	}
	for i := 0; i < len(p.functions); i++ {
		p.functions[i].typecheck()
	}
	for _, t := range p.templates {
		p.ctx.Defer(func() {
			if len(t.instances) == 0 {
				t.ns.ctx.Warnf(t.Loc, diag.DefUnusedTemplate, "template function %s is never instantiated", t.qualified)
			}
		})
	}
}

// Deferred runs the checks queued during type-checking. It reports false
// when they were skipped because of earlier errors.
func (p *Program) Deferred() bool { return p.ctx.RunDeferred() }

// Function returns the function with the given qualified name, instances
// included.
func (p *Program) Function(qualified string) (*FunctionDeclaration, bool) {
	fn, ok := p.functionByName[qualified]
	return fn, ok
}

// Template returns the template function with the given qualified name.
func (p *Program) Template(qualified string) (*TemplateFunctionDeclaration, bool) {
	t, ok := p.templateByName[qualified]
	return t, ok
}

// Lookup resolves a value name from the global namespace.
func (p *Program) Lookup(name string) (*sema.TypedStorage, error) {
	return p.Root.LookupValue(name)
}

// Routines returns the liveness nodes: every global and function with the
// names it references. Exported declarations and interrupt handlers are
// roots.
func (p *Program) Routines() []liveness.Node {
	nodes := make([]liveness.Node, 0, len(p.globals)+len(p.functions))
	for _, g := range p.globals {
		nodes = append(nodes, liveness.Node{Name: g.qualified, Refs: g.refs, Root: g.Exported})
	}
	for _, fn := range p.functions {
		nodes = append(nodes, liveness.Node{Name: fn.qualified, Refs: fn.refs, Root: fn.Exported || fn.Interrupt})
	}
	return nodes
}

// Compile emits every live global and function into u, globals first.
// visit, when set, wraps the compilation of each declaration.
func (p *Program) Compile(u *codegen.Unit, live liveness.Set, visit func(name string, compile func())) {
	if visit == nil {
		visit = func(_ string, compile func()) { compile() }
	}
	for _, g := range p.globals {
		if live.Has(g.qualified) {
			visit(g.qualified, func() { g.Compile(u) })
		}
	}
	for _, fn := range p.functions {
		if live.Has(fn.qualified) {
			visit(fn.qualified, func() { fn.Compile(u) })
		}
	}
}

// program returns the program a context resolves names in.
func program(ctx *sema.Context) *Program {
	ns, ok := ctx.Namespace().(*Namespace)
	if !ok {
		panic(fmt.Errorf("context is not bound to a program namespace"))
	}
	return ns.program
}

// templateOf returns the template function declared as st, if any.
func templateOf(ctx *sema.Context, st *sema.TypedStorage) (*TemplateFunctionDeclaration, *types.Template, bool) {
	tmpl, ok := st.Type.(*types.Template)
	if !ok || st.Class != sema.StorageFunction {
		return nil, nil, false
	}
	d, ok := program(ctx).Template(st.Qualified)
	return d, tmpl, ok
}
