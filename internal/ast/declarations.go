package ast

import (
	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/sema"
	"qllc/internal/source"
	"qllc/internal/types"
)

// Parameter is one declared function parameter.
type Parameter struct {
	Name string
	Type types.Type
	Loc  *source.Location
}

func signature(params []Parameter, ret types.Type, loc *source.Location) *types.Function {
	args := make([]types.Type, len(params))
	for i, p := range params {
		args[i] = p.Type
	}
	return &types.Function{Args: args, Return: ret, Loc: loc}
}

// checkValueType reports types a value cannot have: void and templates
// used without arguments.
func checkValueType(ctx *sema.Context, t types.Type, loc *source.Location, what string) bool {
	if types.IsError(t) {
		return false
	}
	if types.IsVoid(t) {
		ctx.Errorf(loc, diag.KindVoidValue, "%s cannot have type void", what)
		return false
	}
	if _, ok := t.Resolve().(*types.Template); ok {
		ctx.Errorf(loc, diag.KindTemplateArity, "%s: template %s used without arguments", what, t)
		return false
	}
	return true
}

// TypeDeclaration names a type: type Name = T.
type TypeDeclaration struct {
	Name string
	Type types.Type
	Loc  *source.Location

	ns        *Namespace
	qualified string
}

func (d *TypeDeclaration) Location() *source.Location { return d.Loc }

func (d *TypeDeclaration) declare(ns *Namespace) {
	d.ns = ns
	d.qualified = ns.qualify(d.Name)
	b := &types.Binding{Qualified: d.qualified, Type: d.Type, Scope: ns.ctx}
	if ns.addType(d.Name, b, d.Loc) {
		ns.program.typeDecls = append(ns.program.typeDecls, d)
	}
}

func (d *TypeDeclaration) bind() { d.Type.BindNames(d.ns.ctx) }

func (d *TypeDeclaration) kindcheck() {
	d.Type.Kindcheck(d.ns.ctx, types.NewKindChecker().Direct(d.qualified))
}

func (d *TypeDeclaration) Compile(*codegen.Unit) {}

// TemplateTypeDeclaration declares Name<Params...> = T.
type TemplateTypeDeclaration struct {
	Name   string
	Params []string
	Type   types.Type
	Loc    *source.Location

	ns        *Namespace
	qualified string
	template  *types.Template
	scope     *sema.Context
}

func (d *TemplateTypeDeclaration) Location() *source.Location { return d.Loc }

func (d *TemplateTypeDeclaration) declare(ns *Namespace) {
	d.ns = ns
	d.qualified = ns.qualify(d.Name)
	vars, params := typeParams(ns.ctx, d.Params, d.Loc)
	d.scope = ns.ctx.WithTypeParams(params)
	d.template = types.NewTemplate(vars, d.Type, d.Loc)
	b := &types.Binding{Qualified: d.qualified, Type: d.template, Scope: d.scope}
	if ns.addType(d.Name, b, d.Loc) {
		ns.program.typeDecls = append(ns.program.typeDecls, d)
	}
}

func (d *TemplateTypeDeclaration) bind() { d.template.BindNames(d.scope) }

func (d *TemplateTypeDeclaration) kindcheck() {
	d.template.Kindcheck(d.scope, types.NewKindChecker().Direct(d.qualified))
}

func (d *TemplateTypeDeclaration) Compile(*codegen.Unit) {}

// typeParams creates one variable per parameter name and the bindings
// that make the names visible inside the template.
func typeParams(ctx *sema.Context, names []string, loc *source.Location) ([]*types.Variable, map[string]*types.Binding) {
	vars := make([]*types.Variable, len(names))
	params := make(map[string]*types.Binding, len(names))
	for i, name := range names {
		vars[i] = ctx.NewVariable(name, loc)
		params[name] = &types.Binding{Qualified: name, Type: vars[i]}
	}
	return vars, params
}

// GlobalDeclaration is a variable with static storage. Its type is inferred
// from the initializer when not written.
type GlobalDeclaration struct {
	Name     string
	Type     types.Type
	Init     Expression
	Exported bool
	Loc      *source.Location

	ns        *Namespace
	qualified string
	storage   *sema.TypedStorage
	inferred  *types.Variable
	refs      []string
}

func (d *GlobalDeclaration) Location() *source.Location { return d.Loc }

// Qualified is the fully qualified name.
func (d *GlobalDeclaration) Qualified() string { return d.qualified }

func (d *GlobalDeclaration) declare(ns *Namespace) {
	d.ns = ns
	d.qualified = ns.qualify(d.Name)
	t := d.Type
	if t == nil {
		d.inferred = ns.ctx.NewVariable(d.Name, d.Loc)
		t = d.inferred
	}
	d.storage = &sema.TypedStorage{Name: d.Name, Qualified: d.qualified, Type: t, Class: sema.StorageGlobal, Loc: d.Loc}
	if ns.addValue(d.Name, d.storage, d.Loc) {
		ns.program.globals = append(ns.program.globals, d)
	}
}

func (d *GlobalDeclaration) kindcheck() {
	ctx := d.ns.ctx
	switch {
	case d.Type != nil:
		ctx.CheckType(d.Type)
		checkValueType(ctx, d.Type, d.Loc, "global "+d.Name)
	case d.Init == nil:
		ctx.Errorf(d.Loc, diag.TypeInvalidDeclaration, "global %s needs a type or an initializer", d.Name)
		d.inferred.Bind(types.Error)
	}
}

func (d *GlobalDeclaration) typecheck() {
	if d.Init == nil {
		return
	}
	ctx := d.ns.ctx.Declaration()
	got := d.Init.Typecheck(ctx, d.Type)
	d.refs = ctx.References()
	if d.inferred != nil {
		if d.inferred.Bound() != nil {
			return
		}
		if !checkValueType(ctx, got, d.Loc, "global "+d.Name) {
			got = types.Error
		}
		d.inferred.Bind(got)
		return
	}
	if !types.IsConvertibleTo(got, d.Type) {
		ctx.Errorf(d.Init.Location(), diag.TypeMismatch, "cannot initialize %s of type %s with a value of type %s", d.Name, d.Type, got)
		return
	}
	d.Init = coerce(d.Init, d.Type)
}

// Compile reserves the storage and appends the initializer to the unit's
// initialization routine.
func (d *GlobalDeclaration) Compile(u *codegen.Unit) {
	t := d.storage.Type
	u.AddGlobal(d.qualified, t.Size())
	if d.Init == nil {
		return
	}
	c := u.Initializer()
	c.Statement(func() {
		v := d.Init.Compile(c, false)
		addr := c.Address(d.storage)
		store(c, addr, v, t)
		c.Deallocate(addr)
		c.Deallocate(v)
	})
}

// FunctionDeclaration is a function or an interrupt handler. Template
// instances are function declarations too.
type FunctionDeclaration struct {
	Name      string
	Params    []Parameter
	Return    types.Type
	Body      []Statement
	Exported  bool
	Interrupt bool
	Loc       *source.Location

	ns        *Namespace
	qualified string
	sig       *types.Function
	storage   *sema.TypedStorage
	params    []*sema.TypedStorage
	refs      []string
	// scope is the context the body is checked in; template instances set
	// it to bind their parameters.
	scope   *sema.Context
	checked bool
}

func (d *FunctionDeclaration) Location() *source.Location { return d.Loc }

// Qualified is the fully qualified name and the routine's label.
func (d *FunctionDeclaration) Qualified() string { return d.qualified }

// Signature is the function type.
func (d *FunctionDeclaration) Signature() *types.Function { return d.sig }

func (d *FunctionDeclaration) declare(ns *Namespace) {
	d.ns = ns
	d.qualified = ns.qualify(d.Name)
	d.sig = signature(d.Params, d.Return, d.Loc)
	d.storage = &sema.TypedStorage{Name: d.Name, Qualified: d.qualified, Type: d.sig, Class: sema.StorageFunction, Loc: d.Loc}
	if ns.addValue(d.Name, d.storage, d.Loc) {
		ns.program.addFunction(d)
	}
}

func (d *FunctionDeclaration) kindcheck() {
	ctx := d.ns.ctx
	ctx.CheckType(d.sig)
	if d.Interrupt && (len(d.Params) > 0 || !types.IsVoid(d.Return)) {
		ctx.Errorf(d.Loc, diag.KindInvalidInterrupt, "interrupt handler %s must take no parameters and return void", d.Name)
	}
}

func (d *FunctionDeclaration) typecheck() {
	if d.checked {
		return
	}
	d.checked = true
	scope := d.scope
	if scope == nil {
		scope = d.ns.ctx
	}
	ctx := scope.Function(d.Return)
	d.params = make([]*sema.TypedStorage, len(d.Params))
	for i, p := range d.Params {
		checkValueType(ctx, p.Type, p.Loc, "parameter "+p.Name)
		d.params[i] = ctx.Declare(p.Name, p.Type, sema.StorageParameter, p.Loc)
	}
	for _, s := range d.Body {
		s.Typecheck(ctx)
	}
	d.refs = ctx.References()
}

// Compile emits the routine.
func (d *FunctionDeclaration) Compile(u *codegen.Unit) {
	var c *codegen.Compiler
	if d.Interrupt {
		c = codegen.NewInterrupt(d.qualified)
	} else {
		params := make([]codegen.Param, len(d.params))
		for i, st := range d.params {
			params[i] = codegen.Param{Storage: st, Size: st.Type.Size()}
		}
		c = codegen.NewFunction(d.qualified, params, resultOf(d.Return).Hidden())
	}
	compileStatements(c, d.Body)
	u.AddRoutine(c)
}

// Result is how a call of the function returns its value.
func (d *FunctionDeclaration) Result() codegen.Result { return resultOf(d.Return) }

// TemplateFunctionDeclaration is a function parameterised over types. Its
// body is checked only for concrete instances.
type TemplateFunctionDeclaration struct {
	Name       string
	TypeParams []string
	Params     []Parameter
	Return     types.Type
	Body       []Statement
	Loc        *source.Location

	ns        *Namespace
	qualified string
	sig       *types.Function
	template  *types.Template
	scope     *sema.Context
	storage   *sema.TypedStorage
	instances map[string]*FunctionDeclaration
}

func (d *TemplateFunctionDeclaration) Location() *source.Location { return d.Loc }

func (d *TemplateFunctionDeclaration) Qualified() string { return d.qualified }

func (d *TemplateFunctionDeclaration) declare(ns *Namespace) {
	d.ns = ns
	d.qualified = ns.qualify(d.Name)
	vars, params := typeParams(ns.ctx, d.TypeParams, d.Loc)
	d.scope = ns.ctx.WithTypeParams(params)
	d.sig = signature(d.Params, d.Return, d.Loc)
	d.template = types.NewTemplate(vars, d.sig, d.Loc)
	d.template.AddInstantiator(d.instantiate)
	d.instances = make(map[string]*FunctionDeclaration)
	d.storage = &sema.TypedStorage{Name: d.Name, Qualified: d.qualified, Type: d.template, Class: sema.StorageFunction, Loc: d.Loc}
	if ns.addValue(d.Name, d.storage, d.Loc) {
		ns.program.templates = append(ns.program.templates, d)
		ns.program.templateByName[d.qualified] = d
	}
}

func (d *TemplateFunctionDeclaration) kindcheck() {
	d.scope.CheckType(d.sig)
}

// Instance returns the storage of the instance for args, creating and
// checking it on first request. It returns nil when the instantiation
// chain is too deep.
func (d *TemplateFunctionDeclaration) Instance(ctx *sema.Context, args []types.Type, loc *source.Location) *sema.TypedStorage {
	key := types.Key(args)
	if fn, ok := d.instances[key]; ok {
		return fn.storage
	}
	ictx, ok := ctx.Instantiate(d.qualified+key, loc)
	if !ok {
		return nil
	}
	d.template.Instantiate(ictx, args)
	fn, ok := d.instances[key]
	if !ok {
		return nil
	}
	return fn.storage
}

// Instances returns the number of distinct instances created.
func (d *TemplateFunctionDeclaration) Instances() int { return len(d.instances) }

// instantiate is the template's instantiator: it clones the declaration
// with the parameters replaced, registers the clone next to the template
// and checks its body.
func (d *TemplateFunctionDeclaration) instantiate(env types.Env, inst types.Type, s types.Substitution, args []types.Type) {
	ctx, ok := env.(*sema.Context)
	if !ok || ctx == nil {
		ctx = d.ns.ctx
	}
	key := types.Key(args)
	sig := inst.(*types.Function)
	bound := make(map[string]*types.Binding, len(args))
	for i, name := range d.TypeParams {
		v := ctx.NewVariable(name, d.Loc)
		v.Bind(args[i])
		bound[name] = &types.Binding{Qualified: name, Type: v}
	}
	params := make([]Parameter, len(d.Params))
	for i, p := range d.Params {
		params[i] = Parameter{Name: p.Name, Type: sig.Args[i], Loc: p.Loc}
	}
	body := substituteStmts(d.Body, s)
	fn := &FunctionDeclaration{
		Name:   d.Name + key,
		Params: params,
		Return: sig.Return,
		Body:   body,
		Loc:    d.Loc,
	}
	fn.ns = d.ns
	fn.qualified = d.qualified + key
	fn.sig = sig
	fn.storage = &sema.TypedStorage{Name: fn.Name, Qualified: fn.qualified, Type: sig, Class: sema.StorageFunction, Loc: d.Loc}
	fn.scope = ctx.ForInstance(d.ns, bound)
	d.ns.addValue(fn.Name, fn.storage, d.Loc)
	d.ns.program.addFunction(fn)
	d.instances[key] = fn
	fn.typecheck()
}

// Compile does nothing: instances are compiled as functions.
func (d *TemplateFunctionDeclaration) Compile(*codegen.Unit) {}

// resultOf describes how a value of type t is returned.
func resultOf(t types.Type) codegen.Result {
	if types.IsVoid(t) {
		return codegen.Void
	}
	return codegen.Result{Size: t.Size(), Integral: types.IsIntegral(t)}
}
