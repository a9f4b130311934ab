package ast

import (
	"slices"
	"testing"

	"qllc/internal/diag"
	"qllc/internal/liveness"
	"qllc/internal/types"
)

func identityTemplate() *TemplateFunctionDeclaration {
	return &TemplateFunctionDeclaration{
		Name:       "identity",
		TypeParams: []string{"T"},
		Params:     []Parameter{param("x", tid("T"))},
		Return:     tid("T"),
		Body:       []Statement{ret(id("x"))},
		Loc:        at(1),
	}
}

func TestSplitQualified(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a", []string{"a"}},
		{"a::b::c", []string{"a", "b", "c"}},
		{"list<a::b>::Node", []string{"list<a::b>", "Node"}},
		{"f<(byte) => byte>::g", []string{"f<(byte) => byte>", "g"}},
	}
	for _, tc := range cases {
		got := splitQualified(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("split %q: got %q, want %q", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("split %q: got %q, want %q", tc.in, got, tc.want)
			}
		}
	}
}

func TestNamespaceLookup(t *testing.T) {
	p, bag := check(t,
		&NamespaceDeclaration{Name: "a", Loc: at(1), Decls: []Declaration{
			&NamespaceDeclaration{Name: "b", Loc: at(2), Decls: []Declaration{
				fn("f", nil, types.Byte, ret(num(7))),
			}},
		}},
		&NamespaceDeclaration{Name: "a", Loc: at(3), Decls: []Declaration{
			fn("g", nil, types.Byte, ret(call(id("b::f")))),
		}},
	)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Strings())
	}
	for _, name := range []string{"a::b::f", "global::a::b::f", "a::g"} {
		st, err := p.Lookup(name)
		if err != nil || st == nil {
			t.Fatalf("lookup %s: %v, %v", name, st, err)
		}
	}
	if ns := p.Root.LookupNamespace("a::b"); ns == nil || ns.Qualified() != "global::a::b" {
		t.Fatalf("namespace a::b not found: %v", ns)
	}
	g, ok := p.Function("global::a::g")
	if !ok {
		t.Fatalf("global::a::g is not a function")
	}
	if refs := g.refs; len(refs) != 1 || refs[0] != "global::a::b::f" {
		t.Fatalf("refs of g = %v", refs)
	}
}

func TestUsingAmbiguity(t *testing.T) {
	_, bag := check(t,
		&NamespaceDeclaration{Name: "a", Loc: at(1), Decls: []Declaration{fn("f", nil, types.Byte, ret(num(1)))}},
		&NamespaceDeclaration{Name: "b", Loc: at(2), Decls: []Declaration{fn("f", nil, types.Byte, ret(num(2)))}},
		&UsingDeclaration{Namespace: "a", Loc: at(3)},
		&UsingDeclaration{Namespace: "b", Loc: at(4)},
		mainReturning(ret(call(id("f")))),
	)
	expectCode(t, bag, diag.ResAmbiguous)
}

func TestUnknownNamespace(t *testing.T) {
	_, bag := check(t, &UsingDeclaration{Namespace: "nowhere", Loc: at(1)})
	expectCode(t, bag, diag.ResUnknownNamespace)
}

func TestDuplicateDeclarations(t *testing.T) {
	_, bag := check(t,
		&GlobalDeclaration{Name: "x", Type: types.Byte, Loc: at(1)},
		&GlobalDeclaration{Name: "x", Type: types.Byte, Loc: at(2)},
	)
	expectCode(t, bag, diag.ResDuplicate)
}

func TestTypeErrors(t *testing.T) {
	cases := []struct {
		name string
		body []Statement
		want diag.Code
	}{
		{"text to byte", []Statement{local("b", types.Byte, &TextLiteral{expr: expr{Loc: at(1)}, Value: "hello"}), ret(num(0))}, diag.TypeMismatch},
		{"unknown identifier", []Statement{ret(id("missing"))}, diag.ResUnknownIdentifier},
		{"break outside loop", []Statement{&BreakStatement{stmt: stmt{Loc: at(1)}}, ret(num(0))}, diag.TypeBreakOutsideLoop},
		{"assign to literal", []Statement{assign(num(1), num(2)), ret(num(0))}, diag.TypeNotAssignable},
		{"address of literal", []Statement{ret(unary(UnaryAddr, num(1)))}, diag.TypeNotAddressable},
		{"call a byte", []Statement{ret(call(num(1)))}, diag.TypeNotCallable},
		{"missing value", []Statement{&ReturnStatement{stmt: stmt{Loc: at(1)}}}, diag.TypeMismatch},
		{"var without type", []Statement{local("v", nil, nil), ret(num(0))}, diag.TypeInvalidDeclaration},
		{"index a byte", []Statement{ret(&Index{expr: expr{Loc: at(1)}, Expr: num(1), Index: num(0)})}, diag.TypeNotIndexable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, bag := check(t, mainReturning(tc.body...))
			expectCode(t, bag, tc.want)
		})
	}
}

func TestInterruptSignature(t *testing.T) {
	h := fn("handler", []Parameter{param("x", types.Byte)}, types.Void)
	h.Interrupt = true
	_, bag := check(t, h)
	expectCode(t, bag, diag.KindInvalidInterrupt)
}

func TestTemplateInstancesAreShared(t *testing.T) {
	tmpl := identityTemplate()
	explicit := id("identity")
	explicit.TypeArgs = []types.Type{types.Byte}
	p, bag := check(t,
		tmpl,
		mainReturning(ret(bin(BinaryAdd, call(id("identity"), num(40)), call(explicit, num(2))))),
	)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Strings())
	}
	if n := tmpl.Instances(); n != 1 {
		t.Fatalf("instances = %d, want 1", n)
	}
	if _, ok := p.Function("global::identity<byte>"); !ok {
		t.Fatalf("instance global::identity<byte> was not registered")
	}
	main, _ := p.Function("global::main")
	if !slices.Contains(main.refs, "global::identity<byte>") {
		t.Fatalf("main refs = %v", main.refs)
	}
}

func TestTemplateCannotInfer(t *testing.T) {
	mk := &TemplateFunctionDeclaration{
		Name:       "make",
		TypeParams: []string{"T"},
		Return:     types.NewPointer(tid("T")),
		Body:       []Statement{ret(&NullLiteral{expr: expr{Loc: at(1)}})},
		Loc:        at(1),
	}
	_, bag := check(t, mk, mainReturning(local("p", nil, call(id("make"))), ret(num(0))))
	expectCode(t, bag, diag.TplCannotInfer)
}

func TestTemplateArity(t *testing.T) {
	callee := id("identity")
	callee.TypeArgs = []types.Type{types.Byte, types.Byte}
	_, bag := check(t, identityTemplate(), mainReturning(ret(call(callee, num(1)))))
	expectCode(t, bag, diag.TplArity)
}

func TestTemplateDepthLimit(t *testing.T) {
	next := id("grow")
	next.TypeArgs = []types.Type{types.NewPointer(tid("T"))}
	grow := &TemplateFunctionDeclaration{
		Name:       "grow",
		TypeParams: []string{"T"},
		Params:     []Parameter{param("x", tid("T"))},
		Return:     types.Byte,
		Body:       []Statement{ret(call(next, &NullLiteral{expr: expr{Loc: at(1)}}))},
		Loc:        at(1),
	}
	first := id("grow")
	first.TypeArgs = []types.Type{types.Byte}
	_, bag := check(t, grow, mainReturning(ret(call(first, num(0)))))
	expectCode(t, bag, diag.TplDepthExceeded)
	if grow.Instances() != 10 {
		t.Fatalf("instances = %d, want 10", grow.Instances())
	}
}

func TestTemplateTypeExpansionLimit(t *testing.T) {
	deeper := &types.TemplateInstantiation{Name: types.NewIdentifier("Grow", at(1)), Args: []types.Type{types.NewPointer(tid("T"))}, Loc: at(1)}
	grow := &TemplateTypeDeclaration{Name: "Grow", Params: []string{"T"}, Loc: at(1), Type: &types.Struct{Members: []types.Member{
		{Name: "value", Type: tid("T")},
		{Name: "next", Type: types.NewPointer(deeper)},
	}}}
	grown := &TypeDeclaration{Name: "Grown", Loc: at(2), Type: &types.TemplateInstantiation{
		Name: types.NewIdentifier("Grow", at(2)), Args: []types.Type{types.Byte}, Loc: at(2),
	}}
	_, bag := check(t, grow, grown, mainReturning(ret(num(0))))
	expectCode(t, bag, diag.TplDepthExceeded)
}

func TestDeferredTemplateChecks(t *testing.T) {
	_, bag := check(t, identityTemplate(), mainReturning(ret(num(0))))
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Strings())
	}
	expectCode(t, bag, diag.DefUnusedTemplate)

	_, bag = check(t, identityTemplate(), mainReturning(exprStmt(id("identity")), ret(num(0))))
	expectCode(t, bag, diag.DefUninstantiated)
}

func TestRoutinesRoots(t *testing.T) {
	h := fn("tick", nil, types.Void)
	h.Interrupt = true
	exported := fn("api", nil, types.Byte, ret(call(id("helper"))))
	exported.Exported = true
	p, bag := check(t,
		h,
		exported,
		fn("helper", nil, types.Byte, ret(num(1))),
		fn("unused", nil, types.Byte, ret(num(2))),
	)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Strings())
	}
	g := liveness.NewGraph()
	for _, n := range p.Routines() {
		g.Add(n)
	}
	live := g.Solve()
	for _, name := range []string{"global::tick", "global::api", "global::helper"} {
		if !live.Has(name) {
			t.Fatalf("%s is not live: %v", name, live.Sorted())
		}
	}
	if live.Has("global::unused") {
		t.Fatalf("global::unused is live")
	}
}
