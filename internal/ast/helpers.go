package ast

import (
	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/isa"
	"qllc/internal/sema"
	"qllc/internal/source"
	"qllc/internal/types"
)

// load turns the address in r into the value it holds unless an address
// was asked for or the value does not fit a register.
func load(c *codegen.Compiler, r isa.Register, t types.Type, lvalue bool) isa.Register {
	if lvalue || !types.IsIntegral(t) {
		return r
	}
	c.Emit(isa.Load, r, r)
	return r
}

// store writes v, a value or the address of one, to addr.
func store(c *codegen.Compiler, addr, v isa.Register, t types.Type) {
	if types.IsIntegral(t) {
		c.Emit(isa.Store, addr, v)
		return
	}
	c.Copy(addr, v, t.Size())
}

func compileStatements(c *codegen.Compiler, stmts []Statement) {
	for _, s := range stmts {
		c.Statement(func() { s.Compile(c) })
	}
}

func typecheckStatements(ctx *sema.Context, stmts []Statement) {
	for _, s := range stmts {
		s.Typecheck(ctx)
	}
}

// addressable reports whether e denotes storage.
func addressable(e Expression) bool {
	switch e := e.(type) {
	case *Identifier:
		return e.storage != nil && e.storage.Class != sema.StorageFunction
	case *Unary:
		return e.Op == UnaryDeref
	case *Member:
		return addressable(e.Expr)
	case *Arrow:
		return true
	case *Index:
		return e.kind != indexArray || addressable(e.Expr)
	}
	return false
}

// convertible checks that got can be used as want and reports the
// mismatch with both types. Error types were reported already.
func convertible(ctx *sema.Context, loc *source.Location, got, want types.Type, format string, args ...any) bool {
	if types.IsConvertibleTo(got, want) {
		return true
	}
	ctx.Errorf(loc, diag.TypeMismatch, format+": expected %s, got %s", append(args, want, got)...)
	return false
}

// coerce wraps e when its value must change shape to become a to: fixed
// arrays and pointers to them become slice descriptors.
func coerce(e Expression, to types.Type) Expression {
	if _, ok := to.Resolve().(*types.Slice); !ok {
		return e
	}
	from := e.Type().Resolve()
	if p, ok := from.(*types.Pointer); ok {
		from = p.Elem.Resolve()
	}
	arr, ok := from.(*types.Array)
	if !ok || arr.Length == types.UnsizedLength {
		return e
	}
	d := &decay{inner: e, length: arr.Length}
	d.Loc = e.Location()
	d.set(to)
	return d
}

// decay builds the descriptor {data, length, length} of a fixed array.
type decay struct {
	expr
	inner  Expression
	length int
}

func (d *decay) Typecheck(*sema.Context, types.Type) types.Type { return d.Type() }

func (d *decay) Compile(c *codegen.Compiler, _ bool) isa.Register {
	data := d.inner.Compile(c, false)
	slot := c.Temporary(types.SliceSize)
	addr := c.SlotAddress(slot)
	c.Emit(isa.Store, addr, data)
	c.Deallocate(data)
	n := c.Allocate()
	c.ConstantOf(n, d.length)
	c.Offset(addr, types.SliceLength)
	c.Emit(isa.Store, addr, n)
	c.Offset(addr, types.SliceCapacity-types.SliceLength)
	c.Emit(isa.Store, addr, n)
	c.Deallocate(n)
	c.Deallocate(addr)
	return c.SlotAddress(slot)
}

// Substitute drops the wrapper: the copy is checked again.
func (d *decay) Substitute(s types.Substitution) Expression { return d.inner.Substitute(s) }

var (
	allocSignature   = &types.Function{Args: []types.Type{types.Byte}, Return: types.NewPointer(types.Byte)}
	deallocSignature = &types.Function{Args: []types.Type{types.NewPointer(types.Byte)}, Return: types.Void}
)

// heapFunction finds global::name and checks it against want.
func heapFunction(ctx *sema.Context, name string, want *types.Function, loc *source.Location) *sema.TypedStorage {
	qualified := RootName + Separator + name
	st := ctx.Lookup(qualified, loc)
	if st == nil {
		return nil
	}
	if st.Class != sema.StorageFunction || !types.IsConvertibleTo(st.Type, want) {
		ctx.Errorf(loc, diag.TypeMismatch, "%s must be a function of type %s, found %s", qualified, want, st.Type)
		return nil
	}
	return st
}
