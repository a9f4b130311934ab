package types

import (
	"fmt"
	"strings"

	"qllc/internal/diag"
	"qllc/internal/source"
)

// Instantiator is notified the first time a template is applied to a given
// list of arguments. Generic functions use it to produce and check the
// concrete declaration.
type Instantiator func(env Env, instance Type, s Substitution, args []Type)

// Template is a type parameterised over Params.
type Template struct {
	Params []*Variable
	Body   Type
	Loc    *source.Location

	instantiators []Instantiator
	instances     map[string]Type
}

func NewTemplate(params []*Variable, body Type, loc *source.Location) *Template {
	return &Template{Params: params, Body: body, Loc: loc}
}

func (t *Template) Location() *source.Location { return t.Loc }
func (t *Template) Resolve() Type              { return t }
func (t *Template) String() string             { return t.render(Type.String) }
func (t *Template) mangle() string             { return t.render(Type.mangle) }

func (t *Template) render(f func(Type) string) string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = f(p)
	}
	return "<" + strings.Join(params, ", ") + ">" + f(t.Body)
}

func (t *Template) Size() int {
	panic(fmt.Errorf("size of uninstantiated template %s", t))
}

// Substitute returns t: a template body only refers to its own parameters
// and to declared names.
func (t *Template) Substitute(Substitution) Type { return t }

func (t *Template) BindNames(env Env) { t.Body.BindNames(env) }

func (t *Template) Kindcheck(env Env, kc KindChecker) {
	t.Body.Kindcheck(env, kc)
}

func (t *Template) unifiable(other Type, _ *unifier) bool {
	return Type(t) == other
}

// AddInstantiator registers f for every future first instantiation.
func (t *Template) AddInstantiator(f Instantiator) {
	t.instantiators = append(t.instantiators, f)
}

// Key renders the argument list the way instances are cached: <A, B>.
func Key(args []Type) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.mangle()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// Substitution builds the parameter mapping for args.
func (t *Template) Substitution(args []Type) Substitution {
	if len(args) != len(t.Params) {
		panic(fmt.Errorf("template %s takes %d arguments, got %d", t, len(t.Params), len(args)))
	}
	s := make(Substitution, len(args))
	for i, p := range t.Params {
		s[p] = args[i]
	}
	return s
}

// Instantiate applies the template to args. The first application for a
// given Key substitutes the body and notifies the instantiators; later ones
// return the cached instance and do nothing else.
func (t *Template) Instantiate(env Env, args []Type) Type {
	key := Key(args)
	if inst, ok := t.instances[key]; ok {
		return inst
	}
	s := t.Substitution(args)
	inst := t.Body.Substitute(s)
	if t.instances == nil {
		t.instances = make(map[string]Type)
	}
	t.instances[key] = inst
	for _, f := range t.instantiators {
		f(env, inst, s, args)
	}
	return inst
}

// Fresh returns the body with every parameter replaced by a new unbound
// variable numbered from ids, for inferring arguments by unification.
func (t *Template) Fresh(ids *VariableIDs) (Type, []*Variable) {
	vars := make([]*Variable, len(t.Params))
	s := make(Substitution, len(t.Params))
	for i, p := range t.Params {
		vars[i] = ids.New(p.Name, p.Loc)
		s[p] = vars[i]
	}
	return t.Body.Substitute(s), vars
}

// TemplateInstantiation is a template type applied to arguments: Name<Args>.
type TemplateInstantiation struct {
	Name *Identifier
	Args []Type
	Loc  *source.Location

	inst   Type
	cyclic bool
}

func (ti *TemplateInstantiation) Location() *source.Location { return ti.Loc }

func (ti *TemplateInstantiation) String() string {
	return ti.Name.String() + ti.argsString()
}

func (ti *TemplateInstantiation) argsString() string {
	args := make([]string, len(ti.Args))
	for i, a := range ti.Args {
		args[i] = a.String()
	}
	return "<" + strings.Join(args, ", ") + ">"
}

func (ti *TemplateInstantiation) mangle() string {
	return ti.Name.mangle() + Key(ti.Args)
}

func (ti *TemplateInstantiation) template() (*Template, bool) {
	t, ok := ti.Name.target().(*Template)
	return t, ok
}

func (ti *TemplateInstantiation) instance() Type {
	if ti.cyclic {
		return Error
	}
	if ti.inst == nil {
		t, ok := ti.template()
		if !ok || len(t.Params) != len(ti.Args) {
			ti.inst = Error
			return ti.inst
		}
		ti.inst = t.Instantiate(nil, ti.Args)
	}
	return ti.inst
}

func (ti *TemplateInstantiation) Resolve() Type { return ti.instance().Resolve() }
func (ti *TemplateInstantiation) Size() int     { return ti.instance().Size() }

func (ti *TemplateInstantiation) Substitute(s Substitution) Type {
	name := ti.Name
	if name.binding == nil {
		name = NewIdentifier(name.Name, name.Loc)
	}
	args := make([]Type, len(ti.Args))
	for i, a := range ti.Args {
		args[i] = a.Substitute(s)
	}
	return &TemplateInstantiation{Name: name, Args: args, Loc: ti.Loc}
}

func (ti *TemplateInstantiation) BindNames(env Env) {
	if ti.Name.binding != nil {
		for _, a := range ti.Args {
			a.BindNames(env)
		}
		return
	}
	ti.Name.BindNames(env)
	for _, a := range ti.Args {
		a.BindNames(env)
	}
	if IsError(ti.Name.target()) {
		ti.inst = Error
		return
	}
	t, ok := ti.template()
	if !ok {
		env.Errorf(ti.Loc, diag.KindNotTemplate, "type %s is not a template", ti.Name)
		ti.inst = Error
		return
	}
	if len(t.Params) != len(ti.Args) {
		env.Errorf(ti.Loc, diag.KindTemplateArity, "template %s takes %d arguments, got %d", ti.Name, len(t.Params), len(ti.Args))
		ti.inst = Error
	}
}

func (ti *TemplateInstantiation) Kindcheck(env Env, kc KindChecker) {
	ti.BindNames(env)
	if IsError(ti.instance()) {
		return
	}
	scope := ti.Name.binding.Scope
	if scope == nil {
		scope = env
	}
	label := ti.Name.mangle() + ti.argsString()
	kc, ok := kc.Expand()
	if !ok {
		env.Errorf(ti.Loc, diag.TplDepthExceeded, "template expansion depth exceeds %d at %s", MaxExpansionDepth, label)
		ti.cyclic = true
		return
	}
	if !kc.Reference(env, ti.Loc, ti.mangle(), label, func(next KindChecker) {
		ti.instance().Kindcheck(scope, next)
	}) {
		ti.cyclic = true
	}
}

func (ti *TemplateInstantiation) unifiable(other Type, u *unifier) bool {
	o, ok := other.(*TemplateInstantiation)
	if !ok || ti.Name.mangle() != o.Name.mangle() || len(ti.Args) != len(o.Args) {
		return false
	}
	for i := range ti.Args {
		if !u.unify(ti.Args[i], o.Args[i]) {
			return false
		}
	}
	return true
}
