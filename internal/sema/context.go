// Package sema holds the type-checking context shared by every declaration,
// expression and statement of a program.
package sema

import (
	"fmt"
	"maps"
	"slices"

	"qllc/internal/diag"
	"qllc/internal/source"
	"qllc/internal/types"
)

// shared is the state of one compilation; every derived context points to
// the same value.
type shared struct {
	reporter diag.Reporter
	errors   int
	warnings int
	deferred []func()
	vars     types.VariableIDs
}

// body is the state of one declaration being checked: its scopes, the
// static names it references, the expected return type and loop nesting.
type body struct {
	scopes []map[string]*TypedStorage
	refs   map[string]struct{}
	ret    types.Type
	loops  int
}

// Context implements types.Env. Derived contexts are cheap copies that
// share the compilation state; the declaration state is shared between a
// context and the copies made from it until Function or Declaration starts
// a new one.
type Context struct {
	shared     *shared
	namespace  Namespace
	typeParams map[string]*types.Binding
	body       *body
	source     *Source
}

var _ types.Env = (*Context)(nil)

// New creates the root context of a compilation.
func New(reporter diag.Reporter) *Context {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Context{shared: &shared{reporter: reporter}}
}

// NewVariable creates an unbound type variable numbered within this
// compilation.
func (c *Context) NewVariable(name string, loc *source.Location) *types.Variable {
	return c.shared.vars.New(name, loc)
}

// Variables returns the variable counter of this compilation.
func (c *Context) Variables() *types.VariableIDs { return &c.shared.vars }

// ForNamespace returns a context resolving names in ns.
func (c *Context) ForNamespace(ns Namespace) *Context {
	next := *c
	next.namespace = ns
	return &next
}

// Namespace returns the namespace names are resolved in.
func (c *Context) Namespace() Namespace { return c.namespace }

// WithTypeParams returns a context where params shadow declared types.
func (c *Context) WithTypeParams(params map[string]*types.Binding) *Context {
	next := *c
	next.typeParams = make(map[string]*types.Binding, len(c.typeParams)+len(params))
	maps.Copy(next.typeParams, c.typeParams)
	maps.Copy(next.typeParams, params)
	return &next
}

// ForInstance returns a context for checking a template instance declared
// in ns: params replace every type parameter in scope. The instantiation
// chain is kept.
func (c *Context) ForInstance(ns Namespace, params map[string]*types.Binding) *Context {
	next := *c
	next.namespace = ns
	next.typeParams = maps.Clone(params)
	next.body = nil
	return &next
}

// Function starts checking a function body returning ret.
func (c *Context) Function(ret types.Type) *Context {
	next := *c
	next.body = &body{refs: make(map[string]struct{}), ret: ret}
	next.body.scopes = append(next.body.scopes, make(map[string]*TypedStorage))
	return &next
}

// Declaration starts checking a global initializer.
func (c *Context) Declaration() *Context {
	next := *c
	next.body = &body{refs: make(map[string]struct{})}
	next.body.scopes = append(next.body.scopes, make(map[string]*TypedStorage))
	return &next
}

func (c *Context) report(loc *source.Location, code diag.Code, sev diag.Severity, msg string) {
	switch sev {
	case diag.SevError:
		c.shared.errors++
	case diag.SevWarning:
		c.shared.warnings++
	}
	c.shared.reporter.Report(code, sev, loc, msg, c.source.Notes())
}

// Errorf reports an error; inside an instantiation the chain is attached as
// notes.
func (c *Context) Errorf(loc *source.Location, code diag.Code, format string, args ...any) {
	c.report(loc, code, diag.SevError, fmt.Sprintf(format, args...))
}

func (c *Context) Warnf(loc *source.Location, code diag.Code, format string, args ...any) {
	c.report(loc, code, diag.SevWarning, fmt.Sprintf(format, args...))
}

// Failed reports whether any error was reported in this compilation.
func (c *Context) Failed() bool { return c.shared.errors > 0 }

// Errors returns the number of errors reported so far.
func (c *Context) Errors() int { return c.shared.errors }

// Warnings returns the number of warnings reported so far.
func (c *Context) Warnings() int { return c.shared.warnings }

// LookupType resolves a type name: template parameters first, then the
// namespace.
func (c *Context) LookupType(name string) (*types.Binding, error) {
	if b, ok := c.typeParams[name]; ok {
		return b, nil
	}
	if c.namespace == nil {
		if t, ok := types.LookupBuiltin(name); ok {
			return &types.Binding{Qualified: name, Type: t}, nil
		}
		return nil, nil
	}
	return c.namespace.LookupType(name)
}

// CheckType binds and kind-checks a type written in a declaration or an
// expression, and returns it.
func (c *Context) CheckType(t types.Type) types.Type {
	t.BindNames(c)
	t.Kindcheck(c, types.NewKindChecker())
	return t
}

// Defer queues f to run after every declaration has been checked.
func (c *Context) Defer(f func()) {
	c.shared.deferred = append(c.shared.deferred, f)
}

// RunDeferred runs the queued checks in order, including the ones they
// queue. Nothing runs when errors were already reported; those checks would
// mostly repeat them.
func (c *Context) RunDeferred() bool {
	if c.Failed() {
		return false
	}
	for i := 0; i < len(c.shared.deferred); i++ {
		c.shared.deferred[i]()
	}
	c.shared.deferred = nil
	return true
}

// Pending returns the number of queued deferred checks.
func (c *Context) Pending() int { return len(c.shared.deferred) }

// ReturnType is the declared return type of the function being checked.
func (c *Context) ReturnType() (types.Type, bool) {
	if c.body == nil || c.body.ret == nil {
		return nil, false
	}
	return c.body.ret, true
}

func (c *Context) EnterLoop() { c.mustBody().loops++ }

func (c *Context) LeaveLoop() {
	b := c.mustBody()
	if b.loops == 0 {
		panic(fmt.Errorf("loop exit without entry"))
	}
	b.loops--
}

func (c *Context) InLoop() bool { return c.body != nil && c.body.loops > 0 }

// Reference records that the declaration being checked uses qualified.
func (c *Context) Reference(qualified string) {
	if c.body == nil || qualified == "" {
		return
	}
	c.body.refs[qualified] = struct{}{}
}

// References returns the recorded static references, sorted.
func (c *Context) References() []string {
	if c.body == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.body.refs))
}

func (c *Context) mustBody() *body {
	if c.body == nil {
		panic(fmt.Errorf("no declaration is being checked"))
	}
	return c.body
}
