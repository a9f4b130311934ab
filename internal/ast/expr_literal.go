package ast

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/isa"
	"qllc/internal/sema"
	"qllc/internal/source"
	"qllc/internal/types"
)

// IntegerLiteral is a non-negative integer constant of type byte.
type IntegerLiteral struct {
	expr
	Value int64
	word  isa.Word
}

func NewInteger(v int64, loc *source.Location) *IntegerLiteral {
	return &IntegerLiteral{expr: expr{Loc: loc}, Value: v}
}

func (e *IntegerLiteral) Typecheck(ctx *sema.Context, _ types.Type) types.Type {
	w, err := isa.WordOf(e.Value)
	if err != nil {
		ctx.Errorf(e.Loc, diag.TypeInvalidLiteral, "integer literal %d: %v", e.Value, err)
		return e.set(types.Error)
	}
	e.word = w
	return e.set(types.Byte)
}

func (e *IntegerLiteral) Compile(c *codegen.Compiler, _ bool) isa.Register {
	r := c.Allocate()
	c.Constant(r, e.word)
	return r
}

func (e *IntegerLiteral) Substitute(types.Substitution) Expression {
	return NewInteger(e.Value, e.Loc)
}

// TextLiteral is a string constant: an array of one byte per code point
// of its NFC form.
type TextLiteral struct {
	expr
	Value      string
	normalized string
}

func (e *TextLiteral) Typecheck(*sema.Context, types.Type) types.Type {
	e.normalized = norm.NFC.String(e.Value)
	n := utf8.RuneCountInString(e.normalized)
	return e.set(&types.Array{Elem: types.Byte, Length: n, Loc: e.Loc})
}

func (e *TextLiteral) Compile(c *codegen.Compiler, _ bool) isa.Register {
	label := c.Text(e.normalized)
	r := c.Allocate()
	c.Reference(r, label)
	return r
}

func (e *TextLiteral) Substitute(types.Substitution) Expression {
	return &TextLiteral{expr: expr{Loc: e.Loc}, Value: e.Value}
}

// NullLiteral is the zero pointer. Its element type comes from the context
// or is left to unification.
type NullLiteral struct {
	expr
}

func (e *NullLiteral) Typecheck(ctx *sema.Context, hint types.Type) types.Type {
	if hint != nil {
		if _, ok := hint.Resolve().(*types.Pointer); ok {
			return e.set(hint)
		}
	}
	return e.set(types.NewPointer(ctx.NewVariable("null", e.Loc)))
}

func (e *NullLiteral) Compile(c *codegen.Compiler, _ bool) isa.Register {
	r := c.Allocate()
	c.Constant(r, 0)
	return r
}

func (e *NullLiteral) Substitute(types.Substitution) Expression {
	return &NullLiteral{expr: expr{Loc: e.Loc}}
}

// FieldInit is one name = value pair of a struct literal.
type FieldInit struct {
	Name  string
	Value Expression
	Loc   *source.Location
}

// StructLiteral builds a struct value: T { m = e, ... }. Members left out
// are zero.
type StructLiteral struct {
	expr
	Target types.Type
	Fields []FieldInit
	st     *types.Struct
}

func (e *StructLiteral) Typecheck(ctx *sema.Context, _ types.Type) types.Type {
	t := ctx.CheckType(e.Target)
	st, ok := t.Resolve().(*types.Struct)
	if !ok {
		if !types.IsError(t) {
			ctx.Errorf(e.Loc, diag.TypeMismatch, "%s is not a struct type", t)
		}
		for _, f := range e.Fields {
			f.Value.Typecheck(ctx, nil)
		}
		return e.set(types.Error)
	}
	seen := make(map[string]bool, len(e.Fields))
	for i := range e.Fields {
		f := &e.Fields[i]
		m, _, ok := st.Member(f.Name)
		if !ok {
			ctx.Errorf(f.Loc, diag.TypeNoMember, "%s has no member %s", t, f.Name)
			f.Value.Typecheck(ctx, nil)
			continue
		}
		if seen[f.Name] {
			ctx.Errorf(f.Loc, diag.ResDuplicate, "member %s is initialized twice", f.Name)
		}
		seen[f.Name] = true
		got := f.Value.Typecheck(ctx, m.Type)
		if convertible(ctx, f.Loc, got, m.Type, "member %s of %s", f.Name, t) {
			f.Value = coerce(f.Value, m.Type)
		}
	}
	e.st = st
	return e.set(t)
}

// Compile evaluates the fields in the order written and stores each at
// its declared offset.
func (e *StructLiteral) Compile(c *codegen.Compiler, _ bool) isa.Register {
	slot := c.Temporary(e.st.Size())
	given := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		m, off, _ := e.st.Member(f.Name)
		given[f.Name] = true
		v := f.Value.Compile(c, false)
		addr := c.SlotAddress(slot)
		c.Offset(addr, off)
		store(c, addr, v, m.Type)
		c.Deallocate(addr)
		c.Deallocate(v)
	}
	if len(given) < len(e.st.Members) {
		zero := c.Allocate()
		c.Constant(zero, 0)
		for _, m := range e.st.Members {
			if given[m.Name] {
				continue
			}
			_, off, _ := e.st.Member(m.Name)
			addr := c.SlotAddress(slot)
			c.Offset(addr, off)
			c.Fill(addr, zero, m.Type.Size())
			c.Deallocate(addr)
		}
		c.Deallocate(zero)
	}
	return c.SlotAddress(slot)
}

func (e *StructLiteral) Substitute(s types.Substitution) Expression {
	fields := make([]FieldInit, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = FieldInit{Name: f.Name, Value: f.Value.Substitute(s), Loc: f.Loc}
	}
	return &StructLiteral{expr: expr{Loc: e.Loc}, Target: e.Target.Substitute(s), Fields: fields}
}

// ArrayLiteral is [e, ...]; the element type is the first element's, or
// the expected one.
type ArrayLiteral struct {
	expr
	Elems []Expression
	elem  types.Type
}

func (e *ArrayLiteral) Typecheck(ctx *sema.Context, hint types.Type) types.Type {
	var elem types.Type
	if hint != nil {
		switch h := hint.Resolve().(type) {
		case *types.Array:
			elem = h.Elem
		case *types.Slice:
			elem = h.Elem
		}
	}
	for i, el := range e.Elems {
		got := el.Typecheck(ctx, elem)
		if elem == nil {
			elem = got
			if !checkValueType(ctx, got, el.Location(), "array element") {
				elem = types.Error
			}
			continue
		}
		if convertible(ctx, el.Location(), got, elem, "element %d", i+1) {
			e.Elems[i] = coerce(el, elem)
		}
	}
	if elem == nil {
		ctx.Errorf(e.Loc, diag.TypeCannotInfer, "cannot infer the element type of an empty array literal")
		return e.set(types.Error)
	}
	e.elem = elem
	return e.set(&types.Array{Elem: elem, Length: len(e.Elems), Loc: e.Loc})
}

func (e *ArrayLiteral) Compile(c *codegen.Compiler, _ bool) isa.Register {
	size := e.elem.Size()
	slot := c.Temporary(size * len(e.Elems))
	for i, el := range e.Elems {
		v := el.Compile(c, false)
		addr := c.SlotAddress(slot)
		c.Offset(addr, i*size)
		store(c, addr, v, e.elem)
		c.Deallocate(addr)
		c.Deallocate(v)
	}
	return c.SlotAddress(slot)
}

func (e *ArrayLiteral) Substitute(s types.Substitution) Expression {
	return &ArrayLiteral{expr: expr{Loc: e.Loc}, Elems: substituteAll(e.Elems, s)}
}
