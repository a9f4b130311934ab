package types

import "testing"

func TestArrayDecaysToSlice(t *testing.T) {
	arr := array(Byte, 3)
	if !IsConvertibleTo(arr, slice(Byte)) {
		t.Fatalf("[byte; 3] should convert to [byte]")
	}
	if IsEqualTo(arr, slice(Byte)) {
		t.Fatalf("[byte; 3] must not equal [byte]")
	}
	if !IsConvertibleTo(ptr(arr), slice(Byte)) {
		t.Fatalf("*[byte; 3] should convert to [byte]")
	}
	if IsConvertibleTo(slice(Byte), arr) {
		t.Fatalf("slices never convert back to arrays")
	}
	if IsConvertibleTo(array(Byte, 2), arr) {
		t.Fatalf("array lengths must match")
	}
}

func TestStructMemberOrderMatters(t *testing.T) {
	xy := st("x", Byte, "y", Byte)
	yx := st("y", Byte, "x", Byte)
	if xy.Size() != yx.Size() {
		t.Fatalf("sizes differ")
	}
	if IsConvertibleTo(xy, yx) || IsEqualTo(xy, yx) {
		t.Fatalf("member order and names must match")
	}
	if !IsConvertibleTo(xy, st("x", Byte, "y", Byte)) {
		t.Fatalf("identical structs should convert")
	}
	if off, ok := xy.Offset("y"); !ok || off != 1 {
		t.Fatalf("y should be at offset 1, got %d", off)
	}
}

func TestSliceShapedStruct(t *testing.T) {
	shape := st("pointer", ptr(Byte), "length", Byte, "capacity", Byte)
	if !IsConvertibleTo(shape, slice(Byte)) || !IsConvertibleTo(slice(Byte), shape) {
		t.Fatalf("slice-shaped struct should convert both ways")
	}
	if IsEqualTo(shape, slice(Byte)) {
		t.Fatalf("slice-shaped struct is not nominally a slice")
	}
	wrong := st("pointer", ptr(Byte), "capacity", Byte, "length", Byte)
	if IsConvertibleTo(wrong, slice(Byte)) {
		t.Fatalf("member order is part of the slice shape")
	}
}

func TestAliasesAreStructural(t *testing.T) {
	env := newTestEnv()
	env.declare("Size", Byte)
	env.declare("Count", Byte)
	expectErrors(t, env.check())
	size, count := id("Size"), id("Count")
	size.BindNames(env)
	count.BindNames(env)

	if !IsConvertibleTo(size, Byte) || !IsConvertibleTo(size, count) {
		t.Fatalf("aliases of byte should convert")
	}
	if IsEqualTo(size, Byte) || IsEqualTo(size, count) {
		t.Fatalf("aliases are distinct nominally")
	}
	other := id("Size")
	other.BindNames(env)
	if !IsEqualTo(size, other) {
		t.Fatalf("same name should be nominally equal")
	}
	if !IsNumeric(size) || !IsIntegral(size) {
		t.Fatalf("Size is numeric")
	}
}

func TestRecursiveStructuralComparisonTerminates(t *testing.T) {
	env := newTestEnv()
	env.declare("A", st("next", ptr(id("A"))))
	env.declare("B", st("next", ptr(id("B"))))
	expectErrors(t, env.check())
	a, b := id("A"), id("B")
	a.BindNames(env)
	b.BindNames(env)
	if !IsConvertibleTo(a, b) {
		t.Fatalf("structurally identical recursive types should convert")
	}
	if IsEqualTo(a, b) {
		t.Fatalf("differently named types are not equal")
	}
}

func TestVariablesBindOnce(t *testing.T) {
	var ids VariableIDs
	v := ids.New("T", nil)
	if !IsConvertibleTo(ptr(v), ptr(Byte)) {
		t.Fatalf("unbound variable should unify")
	}
	if v.Bound() != Byte {
		t.Fatalf("variable bound to %v", v.Bound())
	}
	if IsConvertibleTo(ptr(v), ptr(ptr(Byte))) {
		t.Fatalf("bound variable must keep its binding")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("binding twice should panic")
		}
	}()
	v.Bind(Void)
}

func TestErrorUnifiesWithAnything(t *testing.T) {
	for _, other := range []Type{Byte, Void, ptr(Byte), st("x", Byte), fn(Void)} {
		if !IsEqualTo(Error, other) || !IsConvertibleTo(other, Error) {
			t.Fatalf("error should unify with %s", other)
		}
	}
}

func TestFunctionUnification(t *testing.T) {
	env := newTestEnv()
	env.declare("Size", Byte)
	expectErrors(t, env.check())
	size := id("Size")
	size.BindNames(env)

	f := fn(Byte, ptr(Byte), Byte)
	if !IsConvertibleTo(f, fn(Byte, ptr(Byte), Byte)) {
		t.Fatalf("identical functions should convert")
	}
	if IsConvertibleTo(f, fn(Byte, ptr(Byte))) {
		t.Fatalf("arity must match")
	}
	if !IsConvertibleTo(fn(size, size), fn(Byte, Byte)) || IsEqualTo(fn(size, size), fn(Byte, Byte)) {
		t.Fatalf("aliases inside functions follow the unification mode")
	}

	// inference of the argument through the reversed direction
	var ids VariableIDs
	v := ids.New("T", nil)
	if !IsConvertibleTo(fn(Void, v), fn(Void, slice(Byte))) || !IsEqualTo(v, slice(Byte)) {
		t.Fatalf("argument variable should bind to the expected argument type")
	}
}

func TestIntegral(t *testing.T) {
	cases := []struct {
		t    Type
		want bool
	}{
		{Byte, true},
		{ptr(Byte), true},
		{fn(Void), true},
		{array(Byte, UnsizedLength), true},
		{array(Byte, 1), false},
		{slice(Byte), false},
		{st("x", Byte), false},
	}
	for _, c := range cases {
		if got := IsIntegral(c.t); got != c.want {
			t.Errorf("IsIntegral(%s) = %v", c.t, got)
		}
	}
}

func TestTemplateInstantiateCaches(t *testing.T) {
	var ids VariableIDs
	p := ids.New("T", nil)
	tmpl := NewTemplate([]*Variable{p}, fn(p, p), nil)
	calls := 0
	var want Type = Byte
	tmpl.AddInstantiator(func(_ Env, instance Type, s Substitution, args []Type) {
		calls++
		if !IsEqualTo(s[p], want) {
			t.Fatalf("substitution maps T to %s, want %s", s[p], want)
		}
	})
	first := tmpl.Instantiate(nil, []Type{Byte})
	second := tmpl.Instantiate(nil, []Type{Byte})
	if first != second || calls != 1 {
		t.Fatalf("second instantiation should be a cache hit (calls=%d)", calls)
	}
	if got := first.String(); got != "(byte) => byte" {
		t.Fatalf("instance is %s", got)
	}
	want = ptr(Byte)
	tmpl.Instantiate(nil, []Type{ptr(Byte)})
	if calls != 2 {
		t.Fatalf("new arguments should instantiate again")
	}
	if got := Key([]Type{Byte, ptr(Byte)}); got != "<byte, *byte>" {
		t.Fatalf("key is %q", got)
	}
}

func TestTemplateFreshInference(t *testing.T) {
	var ids VariableIDs
	p := ids.New("T", nil)
	tmpl := NewTemplate([]*Variable{p}, fn(p, ptr(p)), nil)
	body, vars := tmpl.Fresh(&ids)
	f := body.(*Function)
	if !IsConvertibleTo(ptr(Byte), f.Args[0]) {
		t.Fatalf("argument should unify with the fresh parameter")
	}
	if vars[0].Bound() == nil || !IsEqualTo(vars[0], Byte) {
		t.Fatalf("fresh variable not inferred")
	}
	if p.Bound() != nil {
		t.Fatalf("the template's own parameter must stay unbound")
	}
	if got := f.Return.Resolve().String(); got != "byte" {
		t.Fatalf("return type is %s", got)
	}
}

func TestVariableIDsAreLocal(t *testing.T) {
	mangled := func() string {
		var ids VariableIDs
		ids.New("T", nil)
		return ids.New("U", nil).mangle()
	}
	first, second := mangled(), mangled()
	if first != "U#2" || second != first {
		t.Fatalf("variable ids leak between counters: %q, %q", first, second)
	}
}

func TestSubstituteClones(t *testing.T) {
	var ids VariableIDs
	p := ids.New("T", nil)
	orig := st("value", p, "next", ptr(p))
	out := orig.Substitute(Substitution{p: Byte}).(*Struct)
	if out == orig || out.Members[1].Type == orig.Members[1].Type {
		t.Fatalf("substitution should clone composite types")
	}
	if out.Size() != 2 || out.String() != "struct { value: byte; next: *byte; }" {
		t.Fatalf("unexpected substitution %s", out)
	}
	if p.Bound() != nil {
		t.Fatalf("substitution must not bind")
	}
}

func TestDotProjection(t *testing.T) {
	env := newTestEnv()
	env.declare("Point", st("x", Byte, "y", ptr(Byte)))
	env.declare("Y", &Dot{Type: id("Point"), Member: "y"})
	env.declare("Z", &Dot{Type: id("Point"), Member: "z"})
	expectErrors(t, env.check(), "KND1008: type Point has no member z")
	y := id("Y")
	y.BindNames(env)
	if !IsConvertibleTo(y, ptr(Byte)) {
		t.Fatalf("Point.y should be *byte")
	}
}
