package ast

import (
	"fmt"

	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/isa"
	"qllc/internal/sema"
	"qllc/internal/source"
	"qllc/internal/types"
)

// Identifier names a variable, a parameter, a global or a function,
// optionally with explicit template arguments: f<byte>.
type Identifier struct {
	expr
	Name     string
	TypeArgs []types.Type
	storage  *sema.TypedStorage
}

func NewIdentifier(name string, loc *source.Location) *Identifier {
	return &Identifier{expr: expr{Loc: loc}, Name: name}
}

// Storage is what the identifier resolved to, nil before type-checking.
func (e *Identifier) Storage() *sema.TypedStorage { return e.storage }

func (e *Identifier) Typecheck(ctx *sema.Context, hint types.Type) types.Type {
	st := ctx.Lookup(e.Name, e.Loc)
	if st == nil {
		return e.set(types.Error)
	}
	return e.set(e.bind(ctx, st, hint))
}

// bind finishes resolution once the storage is known. A bare template
// takes its arguments from the expected type when that fixes all of them.
func (e *Identifier) bind(ctx *sema.Context, st *sema.TypedStorage, hint types.Type) types.Type {
	d, tmpl, isTemplate := templateOf(ctx, st)
	switch {
	case len(e.TypeArgs) > 0 && !isTemplate:
		ctx.Errorf(e.Loc, diag.TplNotTemplate, "%s is not a template", e.Name)
		return types.Error
	case len(e.TypeArgs) > 0:
		args := make([]types.Type, len(e.TypeArgs))
		for i, a := range e.TypeArgs {
			args[i] = ctx.CheckType(a)
			if !checkValueType(ctx, args[i], a.Location(), "template argument") {
				args[i] = types.Error
			}
		}
		if len(args) != len(tmpl.Params) {
			ctx.Errorf(e.Loc, diag.TplArity, "template %s takes %d type arguments, got %d", e.Name, len(tmpl.Params), len(args))
			return types.Error
		}
		return e.instance(ctx, d, args)
	case isTemplate && hint != nil:
		if args, ok := inferFromHint(ctx, tmpl, hint); ok {
			return e.instance(ctx, d, args)
		}
		fallthrough
	case isTemplate:
		e.storage = st
		ctx.Defer(func() {
			ctx.Errorf(e.Loc, diag.DefUninstantiated, "template %s is used without template arguments", e.Name)
		})
		return st.Type
	}
	if v, ok := st.Type.(*types.Variable); ok && v.Bound() == nil {
		ctx.Errorf(e.Loc, diag.TypeCannotInfer, "type of %s is not known before its initializer is checked", e.Name)
		return types.Error
	}
	e.storage = st
	return st.Type
}

// inferFromHint binds a fresh copy of the template's signature against the
// expected type.
func inferFromHint(ctx *sema.Context, tmpl *types.Template, hint types.Type) ([]types.Type, bool) {
	fresh, vars := tmpl.Fresh(ctx.Variables())
	if !types.IsConvertibleTo(fresh, hint) {
		return nil, false
	}
	args := make([]types.Type, len(vars))
	for i, v := range vars {
		b := v.Bound()
		if b == nil {
			return nil, false
		}
		if bv, ok := b.(*types.Variable); ok && bv.Bound() == nil {
			return nil, false
		}
		args[i] = b
	}
	return args, true
}

// instance resolves the identifier to the instance of d for args.
func (e *Identifier) instance(ctx *sema.Context, d *TemplateFunctionDeclaration, args []types.Type) types.Type {
	for _, a := range args {
		if types.IsError(a) {
			return types.Error
		}
	}
	st := d.Instance(ctx, args, e.Loc)
	if st == nil {
		return types.Error
	}
	ctx.Reference(st.Qualified)
	e.storage = st
	return st.Type
}

// typecheckCallee checks the identifier in callee position. A template
// called without explicit arguments is instantiated with the arguments
// inferred from the call; the call's arguments are then already checked,
// which the second result reports.
func (e *Identifier) typecheckCallee(ctx *sema.Context, args []Expression, hint types.Type) (types.Type, bool) {
	st := ctx.Lookup(e.Name, e.Loc)
	if st == nil {
		return e.set(types.Error), false
	}
	d, tmpl, ok := templateOf(ctx, st)
	if !ok || len(e.TypeArgs) > 0 {
		return e.set(e.bind(ctx, st, nil)), false
	}
	return e.set(e.infer(ctx, d, tmpl, args, hint)), true
}

// infer unifies the argument types, and the expected result type, with a
// copy of the template's signature whose parameters are fresh variables.
func (e *Identifier) infer(ctx *sema.Context, d *TemplateFunctionDeclaration, tmpl *types.Template, args []Expression, hint types.Type) types.Type {
	fresh, vars := tmpl.Fresh(ctx.Variables())
	fn := fresh.(*types.Function)
	failed := false
	for i, a := range args {
		var want types.Type
		if i < len(fn.Args) {
			want = fn.Args[i]
		}
		got := a.Typecheck(ctx, want)
		switch {
		case types.IsError(got):
			failed = true
		case want != nil && !convertible(ctx, a.Location(), got, want, "argument %d of %s", i+1, e.Name):
			failed = true
		}
	}
	if len(args) != len(fn.Args) {
		ctx.Errorf(e.Loc, diag.TypeArgumentCount, "%s takes %d arguments, got %d", e.Name, len(fn.Args), len(args))
		return types.Error
	}
	if failed {
		return types.Error
	}
	if hint != nil {
		types.IsConvertibleTo(fn.Return, hint)
	}
	bound := make([]types.Type, len(vars))
	for i, v := range vars {
		if v.Bound() == nil {
			ctx.Errorf(e.Loc, diag.TplCannotInfer, "cannot infer template argument %s of %s", v.Name, e.Name)
			return types.Error
		}
		bound[i] = v.Bound()
	}
	return e.instance(ctx, d, bound)
}

func (e *Identifier) Compile(c *codegen.Compiler, lvalue bool) isa.Register {
	if e.storage == nil {
		panic(fmt.Errorf("identifier %s compiled without storage", e.Name))
	}
	addr := c.Address(e.storage)
	if e.storage.Class == sema.StorageFunction {
		return addr
	}
	return load(c, addr, e.Type(), lvalue)
}

func (e *Identifier) Substitute(s types.Substitution) Expression {
	return &Identifier{expr: expr{Loc: e.Loc}, Name: e.Name, TypeArgs: substituteTypes(e.TypeArgs, s)}
}

// Call applies a function value to arguments. Values that do not fit a
// register are passed and returned by address.
type Call struct {
	expr
	Callee Expression
	Args   []Expression
	fn     *types.Function
}

func (e *Call) Typecheck(ctx *sema.Context, hint types.Type) types.Type {
	var (
		ft      types.Type
		checked bool
	)
	if id, ok := e.Callee.(*Identifier); ok {
		ft, checked = id.typecheckCallee(ctx, e.Args, hint)
	} else {
		ft = e.Callee.Typecheck(ctx, nil)
	}
	fn, ok := ft.Resolve().(*types.Function)
	if !ok {
		if !types.IsError(ft) {
			ctx.Errorf(e.Loc, diag.TypeNotCallable, "value of type %s is not callable", ft)
		}
		if !checked {
			for _, a := range e.Args {
				a.Typecheck(ctx, nil)
			}
		}
		return e.set(types.Error)
	}
	if len(e.Args) != len(fn.Args) {
		ctx.Errorf(e.Loc, diag.TypeArgumentCount, "call takes %d arguments, got %d", len(fn.Args), len(e.Args))
		return e.set(types.Error)
	}
	for i, a := range e.Args {
		var got types.Type
		if checked {
			got = a.Type()
		} else {
			got = a.Typecheck(ctx, fn.Args[i])
		}
		if convertible(ctx, a.Location(), got, fn.Args[i], "argument %d", i+1) {
			e.Args[i] = coerce(a, fn.Args[i])
		}
	}
	e.fn = fn
	return e.set(fn.Return)
}

func (e *Call) Compile(c *codegen.Compiler, _ bool) isa.Register {
	callee := e.Callee.Compile(c, false)
	args := make([]codegen.Argument, len(e.Args))
	for i, a := range e.Args {
		t := e.fn.Args[i]
		args[i] = codegen.Argument{
			Size:     t.Size(),
			Integral: types.IsIntegral(t),
			Compile:  func() isa.Register { return a.Compile(c, false) },
		}
	}
	return c.Call(callee, args, resultOf(e.fn.Return))
}

func (e *Call) Substitute(s types.Substitution) Expression {
	return &Call{expr: expr{Loc: e.Loc}, Callee: e.Callee.Substitute(s), Args: substituteAll(e.Args, s)}
}
