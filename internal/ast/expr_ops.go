package ast

import (
	"fmt"

	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/isa"
	"qllc/internal/sema"
	"qllc/internal/types"
)

// Binary is a two-operand expression; && and || evaluate the right
// operand only when needed.
type Binary struct {
	expr
	Op    BinaryOp
	Left  Expression
	Right Expression
	spec  BinarySpec
}

func (e *Binary) Typecheck(ctx *sema.Context, _ types.Type) types.Type {
	lt := e.Left.Typecheck(ctx, nil)
	rt := e.Right.Typecheck(ctx, lt)
	if types.IsError(lt) || types.IsError(rt) {
		return e.set(types.Error)
	}
	lf, rf := familyOf(lt), familyOf(rt)
	for _, spec := range BinarySpecs(e.Op) {
		if lf&spec.Left == 0 || rf&spec.Right == 0 {
			continue
		}
		if spec.Flags&BinaryFlagSameType != 0 && !types.IsConvertibleTo(rt, lt) && !types.IsConvertibleTo(lt, rt) {
			ctx.Errorf(e.Loc, diag.TypeMismatch, "operands of %s have different types %s and %s", e.Op, lt, rt)
			return e.set(types.Error)
		}
		e.spec = spec
		if spec.Result == BinaryResultLeft {
			return e.set(lt)
		}
		return e.set(types.Byte)
	}
	code := diag.TypeNotNumeric
	if e.Op == BinaryLogicalAnd || e.Op == BinaryLogicalOr {
		code = diag.TypeNotIntegral
	}
	ctx.Errorf(e.Loc, code, "operator %s is not defined for %s and %s", e.Op, lt, rt)
	return e.set(types.Error)
}

func (e *Binary) Compile(c *codegen.Compiler, _ bool) isa.Register {
	if e.spec.Flags&BinaryFlagShortCircuit != 0 {
		return e.compileShortCircuit(c)
	}
	a := e.Left.Compile(c, false)
	b := e.Right.Compile(c, false)
	if e.spec.Flags&BinaryFlagScaled != 0 {
		scale(c, b, elemOf(e.Left.Type()).Size())
	}
	low, ok := binaryLowering[e.Op]
	if !ok {
		panic(fmt.Errorf("no lowering for operator %s", e.Op))
	}
	if low.truth {
		return c.Compare(low.op, a, b)
	}
	c.Emit(low.op, a, a, b)
	c.Deallocate(b)
	return a
}

// compileShortCircuit leaves the deciding operand's value as the result.
func (e *Binary) compileShortCircuit(c *codegen.Compiler) isa.Register {
	r := e.Left.Compile(c, false)
	done := c.NewLabel("logic")
	if e.Op == BinaryLogicalAnd {
		c.JumpIfZero(r, done)
	} else {
		c.JumpIfNotZero(r, done)
	}
	v := e.Right.Compile(c, false)
	c.Emit(isa.Mov, r, v)
	c.Deallocate(v)
	c.Label(done)
	return r
}

func (e *Binary) Substitute(s types.Substitution) Expression {
	return &Binary{expr: expr{Loc: e.Loc}, Op: e.Op, Left: e.Left.Substitute(s), Right: e.Right.Substitute(s)}
}

// elemOf is the element type of a pointer or unsized array, nil otherwise.
func elemOf(t types.Type) types.Type {
	switch r := t.Resolve().(type) {
	case *types.Pointer:
		return r.Elem
	case *types.Array:
		if r.Length == types.UnsizedLength {
			return r.Elem
		}
	}
	return nil
}

// Unary is a prefix operator.
type Unary struct {
	expr
	Op      UnaryOp
	Operand Expression
}

func (e *Unary) Typecheck(ctx *sema.Context, _ types.Type) types.Type {
	ot := e.Operand.Typecheck(ctx, nil)
	if types.IsError(ot) {
		return e.set(types.Error)
	}
	spec, ok := unarySpecTable[e.Op]
	if !ok {
		panic(fmt.Errorf("unknown unary operator %d", e.Op))
	}
	if spec.Flags&UnaryFlagRequiresAddressable != 0 && !addressable(e.Operand) {
		ctx.Errorf(e.Loc, diag.TypeNotAddressable, "cannot take the address of a value of type %s", ot)
		return e.set(types.Error)
	}
	switch spec.Result {
	case UnaryResultPointer:
		return e.set(types.NewPointer(ot))
	case UnaryResultElem:
		elem := elemOf(ot)
		if elem == nil || familyOf(ot)&spec.Operand == 0 {
			ctx.Errorf(e.Loc, diag.TypeNotPointer, "cannot dereference a value of type %s", ot)
			return e.set(types.Error)
		}
		if !checkValueType(ctx, elem, e.Loc, "dereferenced value") {
			return e.set(types.Error)
		}
		return e.set(elem)
	}
	if familyOf(ot)&spec.Operand == 0 {
		code := diag.TypeNotNumeric
		if spec.Operand == FamilyIntegral {
			code = diag.TypeNotIntegral
		}
		ctx.Errorf(e.Loc, code, "operator %s is not defined for %s", e.Op, ot)
		return e.set(types.Error)
	}
	return e.set(types.Byte)
}

func (e *Unary) Compile(c *codegen.Compiler, lvalue bool) isa.Register {
	switch e.Op {
	case UnaryAddr:
		return e.Operand.Compile(c, true)
	case UnaryDeref:
		p := e.Operand.Compile(c, false)
		c.CheckNull(p)
		return load(c, p, e.Type(), lvalue)
	}
	r := e.Operand.Compile(c, false)
	switch e.Op {
	case UnaryNeg:
		z := c.Allocate()
		c.Constant(z, 0)
		c.Emit(isa.Sub, r, z, r)
		c.Deallocate(z)
	case UnaryNot:
		c.Not(r)
	case UnaryBitNot:
		c.Emit(isa.Not, r, r)
	}
	return r
}

func (e *Unary) Substitute(s types.Substitution) Expression {
	return &Unary{expr: expr{Loc: e.Loc}, Op: e.Op, Operand: e.Operand.Substitute(s)}
}
