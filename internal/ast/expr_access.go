package ast

import (
	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/isa"
	"qllc/internal/sema"
	"qllc/internal/source"
	"qllc/internal/types"
)

// memberOf finds name in a struct or a slice descriptor.
func memberOf(ctx *sema.Context, t types.Type, name string, loc *source.Location) (types.Type, int, bool) {
	switch r := t.Resolve().(type) {
	case *types.Struct:
		if m, off, ok := r.Member(name); ok {
			return m.Type, off, true
		}
	case *types.Slice:
		switch name {
		case "pointer":
			return types.NewPointer(r.Elem), types.SlicePointer, true
		case "length":
			return types.Byte, types.SliceLength, true
		case "capacity":
			return types.Byte, types.SliceCapacity, true
		}
	case *types.Pointer:
		ctx.Errorf(loc, diag.TypeNoMember, "%s is a pointer, use -> to reach member %s", t, name)
		return nil, 0, false
	}
	ctx.Errorf(loc, diag.TypeNoMember, "%s has no member %s", t, name)
	return nil, 0, false
}

// isSliceLength reports whether e is the length word of a slice.
func isSliceLength(e Expression) bool {
	var base types.Type
	switch m := e.(type) {
	case *Member:
		if m.Name != "length" {
			return false
		}
		base = m.Expr.Type()
	case *Arrow:
		if m.Name != "length" {
			return false
		}
		p, ok := m.Expr.Type().Resolve().(*types.Pointer)
		if !ok {
			return false
		}
		base = p.Elem
	default:
		return false
	}
	_, ok := base.Resolve().(*types.Slice)
	return ok
}

// Member is e.m on a struct or slice value.
type Member struct {
	expr
	Expr   Expression
	Name   string
	offset int
}

func (e *Member) Typecheck(ctx *sema.Context, _ types.Type) types.Type {
	bt := e.Expr.Typecheck(ctx, nil)
	if types.IsError(bt) {
		return e.set(types.Error)
	}
	mt, off, ok := memberOf(ctx, bt, e.Name, e.Loc)
	if !ok {
		return e.set(types.Error)
	}
	e.offset = off
	return e.set(mt)
}

func (e *Member) Compile(c *codegen.Compiler, lvalue bool) isa.Register {
	r := e.Expr.Compile(c, true)
	c.Offset(r, e.offset)
	return load(c, r, e.Type(), lvalue)
}

func (e *Member) Substitute(s types.Substitution) Expression {
	return &Member{expr: expr{Loc: e.Loc}, Expr: e.Expr.Substitute(s), Name: e.Name}
}

// Arrow is p->m, a member reached through a pointer.
type Arrow struct {
	expr
	Expr   Expression
	Name   string
	offset int
}

func (e *Arrow) Typecheck(ctx *sema.Context, _ types.Type) types.Type {
	bt := e.Expr.Typecheck(ctx, nil)
	if types.IsError(bt) {
		return e.set(types.Error)
	}
	p, ok := bt.Resolve().(*types.Pointer)
	if !ok {
		ctx.Errorf(e.Loc, diag.TypeNotPointer, "-> needs a pointer, got %s", bt)
		return e.set(types.Error)
	}
	mt, off, ok := memberOf(ctx, p.Elem, e.Name, e.Loc)
	if !ok {
		return e.set(types.Error)
	}
	e.offset = off
	return e.set(mt)
}

func (e *Arrow) Compile(c *codegen.Compiler, lvalue bool) isa.Register {
	r := e.Expr.Compile(c, false)
	c.CheckNull(r)
	c.Offset(r, e.offset)
	return load(c, r, e.Type(), lvalue)
}

func (e *Arrow) Substitute(s types.Substitution) Expression {
	return &Arrow{expr: expr{Loc: e.Loc}, Expr: e.Expr.Substitute(s), Name: e.Name}
}

type indexKind uint8

const (
	indexArray indexKind = iota
	indexPointer
	indexSlice
)

// Index is a[i]. Fixed arrays and slices are bounds-checked unless the
// access is marked unsafe; pointers and unsized arrays never are.
type Index struct {
	expr
	Expr   Expression
	Index  Expression
	Unsafe bool
	kind   indexKind
	length int
}

func (e *Index) Typecheck(ctx *sema.Context, _ types.Type) types.Type {
	bt := e.Expr.Typecheck(ctx, nil)
	it := e.Index.Typecheck(ctx, types.Byte)
	if types.IsError(bt) || types.IsError(it) {
		return e.set(types.Error)
	}
	if !types.IsNumeric(it) {
		ctx.Errorf(e.Index.Location(), diag.TypeNotNumeric, "index must be numeric, got %s", it)
		return e.set(types.Error)
	}
	var elem types.Type
	switch r := bt.Resolve().(type) {
	case *types.Array:
		elem = r.Elem
		if r.Length == types.UnsizedLength {
			e.kind = indexPointer
		} else {
			e.kind, e.length = indexArray, r.Length
		}
	case *types.Pointer:
		elem, e.kind = r.Elem, indexPointer
	case *types.Slice:
		elem, e.kind = r.Elem, indexSlice
	default:
		ctx.Errorf(e.Loc, diag.TypeNotIndexable, "cannot index a value of type %s", bt)
		return e.set(types.Error)
	}
	if !checkValueType(ctx, elem, e.Loc, "element") {
		return e.set(types.Error)
	}
	return e.set(elem)
}

func (e *Index) Compile(c *codegen.Compiler, lvalue bool) isa.Register {
	var base isa.Register
	switch e.kind {
	case indexArray:
		base = e.Expr.Compile(c, true)
	case indexPointer:
		base = e.Expr.Compile(c, false)
	case indexSlice:
		base = e.Expr.Compile(c, true)
	}
	i := e.Index.Compile(c, false)
	switch {
	case e.kind == indexArray && !e.Unsafe:
		n := c.Allocate()
		c.ConstantOf(n, e.length)
		c.CheckBounds(i, n)
		c.Deallocate(n)
	case e.kind == indexSlice:
		if !e.Unsafe {
			n := c.Allocate()
			c.Emit(isa.Mov, n, base)
			c.Offset(n, types.SliceLength)
			c.Emit(isa.Load, n, n)
			c.CheckBounds(i, n)
			c.Deallocate(n)
		}
		c.Emit(isa.Load, base, base)
	}
	scale(c, i, e.Type().Size())
	c.Emit(isa.Add, base, base, i)
	c.Deallocate(i)
	return load(c, base, e.Type(), lvalue)
}

func (e *Index) Substitute(s types.Substitution) Expression {
	return &Index{expr: expr{Loc: e.Loc}, Expr: e.Expr.Substitute(s), Index: e.Index.Substitute(s), Unsafe: e.Unsafe}
}

// scale multiplies the element count in r by size words.
func scale(c *codegen.Compiler, r isa.Register, size int) {
	if size == 1 {
		return
	}
	t := c.Allocate()
	c.ConstantOf(t, size)
	c.Emit(isa.Mul, r, r, t)
	c.Deallocate(t)
}
