// Package ast holds the checked program tree: declarations, namespaces,
// expressions and statements. Every expression and statement both
// type-checks against a sema.Context and compiles into a codegen.Compiler;
// Substitute clones a node for a template instance.
package ast

import (
	"qllc/internal/codegen"
	"qllc/internal/isa"
	"qllc/internal/sema"
	"qllc/internal/source"
	"qllc/internal/types"
)

// Node is anything with a source location.
type Node interface {
	Location() *source.Location
}

// Expression is a value-producing node.
type Expression interface {
	Node
	// Typecheck validates the expression and returns its type. hint is the
	// type the context expects, or nil.
	Typecheck(ctx *sema.Context, hint types.Type) types.Type
	// Type is the type found by Typecheck.
	Type() types.Type
	// Compile returns a register holding the value, or the address when
	// lvalue is set. Values that do not fit a register are always
	// addresses.
	Compile(c *codegen.Compiler, lvalue bool) isa.Register
	Substitute(s types.Substitution) Expression
}

// Statement is an executable node.
type Statement interface {
	Node
	Typecheck(ctx *sema.Context)
	Compile(c *codegen.Compiler)
	Substitute(s types.Substitution) Statement
}

// Declaration is a top-level or namespace-level node.
type Declaration interface {
	Node
	// Compile emits the declaration into u. Only reached for live
	// declarations.
	Compile(u *codegen.Unit)
	declare(ns *Namespace)
}

type expr struct {
	Loc *source.Location
	typ types.Type
}

func (e *expr) Location() *source.Location { return e.Loc }

func (e *expr) Type() types.Type {
	if e.typ == nil {
		return types.Error
	}
	return e.typ
}

func (e *expr) set(t types.Type) types.Type {
	e.typ = t
	return t
}

type stmt struct {
	Loc *source.Location
}

func (s *stmt) Location() *source.Location { return s.Loc }

func substituteAll(es []Expression, s types.Substitution) []Expression {
	if es == nil {
		return nil
	}
	out := make([]Expression, len(es))
	for i, e := range es {
		out[i] = e.Substitute(s)
	}
	return out
}

func substituteTypes(ts []types.Type, s types.Substitution) []types.Type {
	if ts == nil {
		return nil
	}
	out := make([]types.Type, len(ts))
	for i, t := range ts {
		out[i] = t.Substitute(s)
	}
	return out
}

func substituteType(t types.Type, s types.Substitution) types.Type {
	if t == nil {
		return nil
	}
	return t.Substitute(s)
}

func substituteExpr(e Expression, s types.Substitution) Expression {
	if e == nil {
		return nil
	}
	return e.Substitute(s)
}

func substituteStmt(st Statement, s types.Substitution) Statement {
	if st == nil {
		return nil
	}
	return st.Substitute(s)
}

func substituteStmts(stmts []Statement, s types.Substitution) []Statement {
	if stmts == nil {
		return nil
	}
	out := make([]Statement, len(stmts))
	for i, st := range stmts {
		out[i] = st.Substitute(s)
	}
	return out
}
