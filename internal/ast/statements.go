package ast

import (
	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/isa"
	"qllc/internal/sema"
	"qllc/internal/types"
)

// ExpressionStatement evaluates an expression for its effects.
type ExpressionStatement struct {
	stmt
	Expr Expression
}

func (s *ExpressionStatement) Typecheck(ctx *sema.Context) { s.Expr.Typecheck(ctx, nil) }

func (s *ExpressionStatement) Compile(c *codegen.Compiler) {
	c.Deallocate(s.Expr.Compile(c, false))
}

func (s *ExpressionStatement) Substitute(sub types.Substitution) Statement {
	return &ExpressionStatement{stmt: s.stmt, Expr: s.Expr.Substitute(sub)}
}

// VarStatement declares a local. Without an initializer the storage is
// zeroed; without a type the initializer's type is used.
type VarStatement struct {
	stmt
	Name    string
	Type    types.Type
	Init    Expression
	storage *sema.TypedStorage
}

func (s *VarStatement) Typecheck(ctx *sema.Context) {
	var t types.Type
	if s.Type != nil {
		t = ctx.CheckType(s.Type)
		if !checkValueType(ctx, t, s.Loc, "variable "+s.Name) {
			t = types.Error
		}
	}
	switch {
	case s.Init == nil && t == nil:
		ctx.Errorf(s.Loc, diag.TypeInvalidDeclaration, "variable %s needs a type or an initializer", s.Name)
		t = types.Error
	case s.Init != nil:
		got := s.Init.Typecheck(ctx, t)
		switch {
		case t == nil:
			t = got
			if !checkValueType(ctx, got, s.Loc, "variable "+s.Name) {
				t = types.Error
			}
		case types.IsError(t) || types.IsError(got):
		case convertible(ctx, s.Init.Location(), got, t, "cannot initialize %s", s.Name):
			s.Init = coerce(s.Init, t)
		}
	}
	// the initializer does not see the variable
	s.storage = ctx.Declare(s.Name, t, sema.StorageLocal, s.Loc)
}

func (s *VarStatement) Compile(c *codegen.Compiler) {
	t := s.storage.Type
	c.DeclareLocal(s.storage, t.Size())
	if s.Init == nil {
		addr := c.Address(s.storage)
		zero := c.Allocate()
		c.Constant(zero, 0)
		c.Fill(addr, zero, t.Size())
		c.Deallocate(zero)
		c.Deallocate(addr)
		return
	}
	v := s.Init.Compile(c, false)
	addr := c.Address(s.storage)
	store(c, addr, v, t)
	c.Deallocate(addr)
	c.Deallocate(v)
}

func (s *VarStatement) Substitute(sub types.Substitution) Statement {
	return &VarStatement{stmt: s.stmt, Name: s.Name, Type: substituteType(s.Type, sub), Init: substituteExpr(s.Init, sub)}
}

// AssignStatement is lhs = rhs. Writing the length of a slice checks it
// against the capacity.
type AssignStatement struct {
	stmt
	Target Expression
	Value  Expression
	length bool
}

func (s *AssignStatement) Typecheck(ctx *sema.Context) {
	lt := s.Target.Typecheck(ctx, nil)
	rt := s.Value.Typecheck(ctx, lt)
	if types.IsError(lt) || types.IsError(rt) {
		return
	}
	if !addressable(s.Target) {
		ctx.Errorf(s.Target.Location(), diag.TypeNotAssignable, "cannot assign to a value of type %s", lt)
		return
	}
	if convertible(ctx, s.Value.Location(), rt, lt, "cannot assign") {
		s.Value = coerce(s.Value, lt)
	}
	s.length = isSliceLength(s.Target)
}

func (s *AssignStatement) Compile(c *codegen.Compiler) {
	v := s.Value.Compile(c, false)
	addr := s.Target.Compile(c, true)
	if s.length {
		capacity := c.Allocate()
		c.Emit(isa.Mov, capacity, addr)
		c.Offset(capacity, types.SliceCapacity-types.SliceLength)
		c.Emit(isa.Load, capacity, capacity)
		c.CheckCapacity(v, capacity)
		c.Deallocate(capacity)
	}
	store(c, addr, v, s.Target.Type())
	c.Deallocate(addr)
	c.Deallocate(v)
}

func (s *AssignStatement) Substitute(sub types.Substitution) Statement {
	return &AssignStatement{stmt: s.stmt, Target: s.Target.Substitute(sub), Value: s.Value.Substitute(sub)}
}

// condition checks a branch or loop condition.
func condition(ctx *sema.Context, e Expression) {
	t := e.Typecheck(ctx, nil)
	if !types.IsError(t) && !types.IsIntegral(t) {
		ctx.Errorf(e.Location(), diag.TypeNotIntegral, "condition must be integral, got %s", t)
	}
}

// block checks stmts in a scope of their own.
func block(ctx *sema.Context, stmts []Statement) {
	ctx.Push()
	typecheckStatements(ctx, stmts)
	ctx.Pop()
}

type IfStatement struct {
	stmt
	Cond Expression
	Then []Statement
	Else []Statement
}

func (s *IfStatement) Typecheck(ctx *sema.Context) {
	condition(ctx, s.Cond)
	block(ctx, s.Then)
	block(ctx, s.Else)
}

func (s *IfStatement) Compile(c *codegen.Compiler) {
	otherwise, end := c.NewLabel("else"), c.NewLabel("endif")
	r := s.Cond.Compile(c, false)
	c.JumpIfZero(r, otherwise)
	c.Deallocate(r)
	compileStatements(c, s.Then)
	if len(s.Else) > 0 {
		c.Jump(end)
	}
	c.Label(otherwise)
	if len(s.Else) > 0 {
		compileStatements(c, s.Else)
		c.Label(end)
	}
}

func (s *IfStatement) Substitute(sub types.Substitution) Statement {
	return &IfStatement{stmt: s.stmt, Cond: s.Cond.Substitute(sub), Then: substituteStmts(s.Then, sub), Else: substituteStmts(s.Else, sub)}
}

type WhileStatement struct {
	stmt
	Cond Expression
	Body []Statement
}

func (s *WhileStatement) Typecheck(ctx *sema.Context) {
	condition(ctx, s.Cond)
	ctx.EnterLoop()
	block(ctx, s.Body)
	ctx.LeaveLoop()
}

func (s *WhileStatement) Compile(c *codegen.Compiler) {
	top, end := c.NewLabel("while"), c.NewLabel("endwhile")
	c.Label(top)
	r := s.Cond.Compile(c, false)
	c.JumpIfZero(r, end)
	c.Deallocate(r)
	c.PushBreak(end)
	compileStatements(c, s.Body)
	c.PopBreak()
	c.Jump(top)
	c.Label(end)
}

func (s *WhileStatement) Substitute(sub types.Substitution) Statement {
	return &WhileStatement{stmt: s.stmt, Cond: s.Cond.Substitute(sub), Body: substituteStmts(s.Body, sub)}
}

// ForStatement is for (init; cond; step) body. Each part may be missing;
// without a condition the loop runs until a break.
type ForStatement struct {
	stmt
	Init Statement
	Cond Expression
	Step Statement
	Body []Statement
}

func (s *ForStatement) Typecheck(ctx *sema.Context) {
	ctx.Push()
	if s.Init != nil {
		s.Init.Typecheck(ctx)
	}
	if s.Cond != nil {
		condition(ctx, s.Cond)
	}
	ctx.EnterLoop()
	block(ctx, s.Body)
	ctx.LeaveLoop()
	if s.Step != nil {
		s.Step.Typecheck(ctx)
	}
	ctx.Pop()
}

func (s *ForStatement) Compile(c *codegen.Compiler) {
	top, end := c.NewLabel("for"), c.NewLabel("endfor")
	if s.Init != nil {
		c.Statement(func() { s.Init.Compile(c) })
	}
	c.Label(top)
	if s.Cond != nil {
		r := s.Cond.Compile(c, false)
		c.JumpIfZero(r, end)
		c.Deallocate(r)
	}
	c.PushBreak(end)
	compileStatements(c, s.Body)
	c.PopBreak()
	if s.Step != nil {
		c.Statement(func() { s.Step.Compile(c) })
	}
	c.Jump(top)
	c.Label(end)
}

func (s *ForStatement) Substitute(sub types.Substitution) Statement {
	return &ForStatement{
		stmt: s.stmt,
		Init: substituteStmt(s.Init, sub),
		Cond: substituteExpr(s.Cond, sub),
		Step: substituteStmt(s.Step, sub),
		Body: substituteStmts(s.Body, sub),
	}
}

type BreakStatement struct {
	stmt
}

func (s *BreakStatement) Typecheck(ctx *sema.Context) {
	if !ctx.InLoop() {
		ctx.Errorf(s.Loc, diag.TypeBreakOutsideLoop, "break outside of a loop")
	}
}

func (s *BreakStatement) Compile(c *codegen.Compiler) { c.Break() }

func (s *BreakStatement) Substitute(types.Substitution) Statement {
	return &BreakStatement{stmt: s.stmt}
}

type ReturnStatement struct {
	stmt
	Value Expression
}

func (s *ReturnStatement) Typecheck(ctx *sema.Context) {
	ret, ok := ctx.ReturnType()
	if !ok {
		ctx.Errorf(s.Loc, diag.TypeReturnOutside, "return outside of a function")
		if s.Value != nil {
			s.Value.Typecheck(ctx, nil)
		}
		return
	}
	if s.Value == nil {
		if !types.IsVoid(ret) && !types.IsError(ret) {
			ctx.Errorf(s.Loc, diag.TypeMismatch, "missing return value of type %s", ret)
		}
		return
	}
	got := s.Value.Typecheck(ctx, ret)
	switch {
	case types.IsError(got) || types.IsError(ret):
	case types.IsVoid(ret):
		ctx.Errorf(s.Value.Location(), diag.TypeMismatch, "function returning void returns a value of type %s", got)
	case convertible(ctx, s.Value.Location(), got, ret, "cannot return"):
		s.Value = coerce(s.Value, ret)
	}
}

func (s *ReturnStatement) Compile(c *codegen.Compiler) {
	if s.Value == nil {
		c.Return(0, codegen.Void.Size, false)
		return
	}
	res := resultOf(s.Value.Type())
	v := s.Value.Compile(c, false)
	c.Return(v, res.Size, res.Integral)
	c.Deallocate(v)
}

func (s *ReturnStatement) Substitute(sub types.Substitution) Statement {
	return &ReturnStatement{stmt: s.stmt, Value: substituteExpr(s.Value, sub)}
}

// BlockStatement is { ... } with its own scope.
type BlockStatement struct {
	stmt
	Body []Statement
}

func (s *BlockStatement) Typecheck(ctx *sema.Context) { block(ctx, s.Body) }

func (s *BlockStatement) Compile(c *codegen.Compiler) { compileStatements(c, s.Body) }

func (s *BlockStatement) Substitute(sub types.Substitution) Statement {
	return &BlockStatement{stmt: s.stmt, Body: substituteStmts(s.Body, sub)}
}

// DeleteStatement releases what a pointer or slice refers to through
// global::dealloc.
type DeleteStatement struct {
	stmt
	Expr    Expression
	slice   bool
	dealloc *sema.TypedStorage
}

func (s *DeleteStatement) Typecheck(ctx *sema.Context) {
	t := s.Expr.Typecheck(ctx, nil)
	if types.IsError(t) {
		return
	}
	switch t.Resolve().(type) {
	case *types.Pointer:
	case *types.Slice:
		s.slice = true
	default:
		ctx.Errorf(s.Expr.Location(), diag.TypeNotPointer, "cannot delete a value of type %s", t)
		return
	}
	s.dealloc = heapFunction(ctx, "dealloc", deallocSignature, s.Loc)
}

func (s *DeleteStatement) Compile(c *codegen.Compiler) {
	callee := c.Address(s.dealloc)
	arg := codegen.Argument{Size: 1, Integral: true, Compile: func() isa.Register {
		r := s.Expr.Compile(c, false)
		if s.slice {
			c.Emit(isa.Load, r, r)
		}
		return r
	}}
	c.Deallocate(c.Call(callee, []codegen.Argument{arg}, codegen.Void))
}

func (s *DeleteStatement) Substitute(sub types.Substitution) Statement {
	return &DeleteStatement{stmt: s.stmt, Expr: s.Expr.Substitute(sub)}
}
