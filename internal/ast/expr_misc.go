package ast

import (
	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/isa"
	"qllc/internal/sema"
	"qllc/internal/types"
)

// Cast is <T>e. Conversions the type algebra allows keep the value's
// shape; between register-sized types the word is reinterpreted.
type Cast struct {
	expr
	Target types.Type
	Expr   Expression
}

func (e *Cast) Typecheck(ctx *sema.Context, _ types.Type) types.Type {
	t := ctx.CheckType(e.Target)
	from := e.Expr.Typecheck(ctx, t)
	if types.IsError(t) || types.IsError(from) {
		return e.set(types.Error)
	}
	if !checkValueType(ctx, t, e.Loc, "cast target") {
		return e.set(types.Error)
	}
	switch {
	case types.IsConvertibleTo(from, t):
		e.Expr = coerce(e.Expr, t)
	case types.IsIntegral(from) && types.IsIntegral(t):
	default:
		ctx.Errorf(e.Loc, diag.TypeInvalidCast, "cannot cast %s to %s", from, t)
		return e.set(types.Error)
	}
	return e.set(t)
}

func (e *Cast) Compile(c *codegen.Compiler, _ bool) isa.Register {
	return e.Expr.Compile(c, false)
}

func (e *Cast) Substitute(s types.Substitution) Expression {
	return &Cast{expr: expr{Loc: e.Loc}, Target: e.Target.Substitute(s), Expr: e.Expr.Substitute(s)}
}

// SizeOf is sizeof T, the size of T in words.
type SizeOf struct {
	expr
	Target types.Type
	size   int
}

func (e *SizeOf) Typecheck(ctx *sema.Context, _ types.Type) types.Type {
	t := ctx.CheckType(e.Target)
	if !checkValueType(ctx, t, e.Loc, "sizeof operand") {
		return e.set(types.Error)
	}
	e.size = t.Size()
	return e.set(types.Byte)
}

func (e *SizeOf) Compile(c *codegen.Compiler, _ bool) isa.Register {
	r := c.Allocate()
	c.ConstantOf(r, e.size)
	return r
}

func (e *SizeOf) Substitute(s types.Substitution) Expression {
	return &SizeOf{expr: expr{Loc: e.Loc}, Target: e.Target.Substitute(s)}
}

// New allocates through global::alloc: new T gives *T, new T[n] gives a
// slice [T] of length and capacity n.
type New struct {
	expr
	Target types.Type
	Count  Expression
	elem   types.Type
	alloc  *sema.TypedStorage
}

func (e *New) Typecheck(ctx *sema.Context, _ types.Type) types.Type {
	t := ctx.CheckType(e.Target)
	if e.Count != nil {
		ct := e.Count.Typecheck(ctx, types.Byte)
		if !types.IsError(ct) && !types.IsNumeric(ct) {
			ctx.Errorf(e.Count.Location(), diag.TypeNotNumeric, "element count must be numeric, got %s", ct)
			return e.set(types.Error)
		}
	}
	if !checkValueType(ctx, t, e.Loc, "allocated value") {
		return e.set(types.Error)
	}
	e.alloc = heapFunction(ctx, "alloc", allocSignature, e.Loc)
	if e.alloc == nil {
		return e.set(types.Error)
	}
	e.elem = t
	if e.Count != nil {
		return e.set(&types.Slice{Elem: t, Loc: e.Loc})
	}
	return e.set(types.NewPointer(t))
}

func (e *New) Compile(c *codegen.Compiler, _ bool) isa.Register {
	size := e.elem.Size()
	if e.Count == nil {
		callee := c.Address(e.alloc)
		arg := codegen.Argument{Size: 1, Integral: true, Compile: func() isa.Register {
			r := c.Allocate()
			c.ConstantOf(r, size)
			return r
		}}
		return c.Call(callee, []codegen.Argument{arg}, codegen.Result{Size: 1, Integral: true})
	}
	n := e.Count.Compile(c, false)
	callee := c.Address(e.alloc)
	arg := codegen.Argument{Size: 1, Integral: true, Compile: func() isa.Register {
		r := c.Allocate()
		c.Emit(isa.Mov, r, n)
		scale(c, r, size)
		return r
	}}
	p := c.Call(callee, []codegen.Argument{arg}, codegen.Result{Size: 1, Integral: true})

	slot := c.Temporary(types.SliceSize)
	addr := c.SlotAddress(slot)
	c.Emit(isa.Store, addr, p)
	c.Deallocate(p)
	c.Offset(addr, types.SliceLength)
	c.Emit(isa.Store, addr, n)
	c.Offset(addr, types.SliceCapacity-types.SliceLength)
	c.Emit(isa.Store, addr, n)
	c.Deallocate(addr)
	c.Deallocate(n)
	return c.SlotAddress(slot)
}

func (e *New) Substitute(s types.Substitution) Expression {
	ne := &New{expr: expr{Loc: e.Loc}, Target: e.Target.Substitute(s)}
	if e.Count != nil {
		ne.Count = e.Count.Substitute(s)
	}
	return ne
}
