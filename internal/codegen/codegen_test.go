package codegen

import (
	"strings"
	"testing"

	"qllc/internal/asm"
	"qllc/internal/isa"
	"qllc/internal/sema"
	"qllc/internal/testkit"
)

var byteResult = Result{Size: 1, Integral: true}

func param(name string) *sema.TypedStorage {
	return &sema.TypedStorage{Name: name, Class: sema.StorageParameter}
}

func constant(c *Compiler, v int) isa.Register {
	r := c.Allocate()
	c.ConstantOf(r, v)
	return r
}

func loadParam(c *Compiler, st *sema.TypedStorage) isa.Register {
	r := c.Address(st)
	c.Emit(isa.Load, r, r)
	return r
}

func byteArg(c *Compiler, v int) Argument {
	return Argument{Size: 1, Integral: true, Compile: func() isa.Register { return constant(c, v) }}
}

func call(c *Compiler, name string, args []Argument, res Result) isa.Register {
	callee := c.Allocate()
	c.Reference(callee, name)
	return c.Call(callee, args, res)
}

func returnValue(c *Compiler, r isa.Register) {
	c.Return(r, 1, true)
	c.Deallocate(r)
}

func run(t *testing.T, u *Unit, entry string, interrupts map[isa.Word]string) isa.Word {
	t.Helper()
	ds := u.Link(entry, byteResult)
	m, err := testkit.Assemble(ds, 1<<14)
	if err != nil {
		t.Fatalf("assemble: %v\n%s", err, asm.Render(ds))
	}
	res, err := m.Run(testkit.Options{Start: StartLabel, Interrupts: interrupts})
	if err != nil {
		t.Fatalf("run: %v\n%s", err, asm.Render(ds))
	}
	return res.Return
}

func TestCallPassesArgumentsInOrder(t *testing.T) {
	a, b := param("a"), param("b")
	sub := NewFunction("global::sub", []Param{{a, 1}, {b, 1}}, false)
	sub.Statement(func() {
		x := loadParam(sub, a)
		y := loadParam(sub, b)
		sub.Emit(isa.Sub, x, x, y)
		sub.Deallocate(y)
		returnValue(sub, x)
	})
	main := NewFunction("global::main", nil, false)
	main.Statement(func() {
		r := call(main, "global::sub", []Argument{byteArg(main, 50), byteArg(main, 8)}, byteResult)
		returnValue(main, r)
	})
	u := NewUnit(false)
	u.AddRoutine(sub)
	u.AddRoutine(main)
	if got := run(t, u, "global::main", nil); got != 42 {
		t.Fatalf("sub(50, 8) = %d", got)
	}
}

func TestRecursionKeepsLiveRegisters(t *testing.T) {
	n := param("n")
	fact := NewFunction("global::fact", []Param{{n, 1}}, false)
	recurse := fact.NewLabel("recurse")
	fact.Statement(func() {
		v := loadParam(fact, n)
		z := constant(fact, 0)
		fact.Emit(isa.Eq, z, v, z)
		fact.Deallocate(v)
		fact.JumpIfNotZero(z, recurse)
		fact.Deallocate(z)
	})
	fact.Statement(func() { returnValue(fact, constant(fact, 1)) })
	fact.Label(recurse)
	fact.Statement(func() {
		v := loadParam(fact, n)
		r := call(fact, "global::fact", []Argument{{Size: 1, Integral: true, Compile: func() isa.Register {
			m := loadParam(fact, n)
			fact.Emit(isa.Sub, m, m, isa.One)
			return m
		}}}, byteResult)
		fact.Emit(isa.Mul, v, v, r)
		fact.Deallocate(r)
		returnValue(fact, v)
	})
	main := NewFunction("global::main", nil, false)
	main.Statement(func() {
		returnValue(main, call(main, "global::fact", []Argument{byteArg(main, 5)}, byteResult))
	})
	u := NewUnit(false)
	u.AddRoutine(fact)
	u.AddRoutine(main)
	if got := run(t, u, "global::main", nil); got != 120 {
		t.Fatalf("fact(5) = %d", got)
	}
}

func TestHiddenResultAndLocals(t *testing.T) {
	pair := NewFunction("global::pair", nil, true)
	local := &sema.TypedStorage{Name: "p", Class: sema.StorageLocal}
	pair.DeclareLocal(local, 2)
	pair.Statement(func() {
		addr := pair.Address(local)
		v := constant(pair, 7)
		pair.Emit(isa.Store, addr, v)
		pair.Offset(addr, 1)
		pair.ConstantOf(v, 35)
		pair.Emit(isa.Store, addr, v)
		pair.Deallocate(v)
		pair.Deallocate(addr)
	})
	pair.Statement(func() {
		addr := pair.Address(local)
		pair.Return(addr, 2, false)
		pair.Deallocate(addr)
	})
	main := NewFunction("global::main", nil, false)
	main.Statement(func() {
		p := call(main, "global::pair", nil, Result{Size: 2})
		x := main.Allocate()
		main.Emit(isa.Load, x, p)
		main.Offset(p, 1)
		main.Emit(isa.Load, p, p)
		main.Emit(isa.Add, x, x, p)
		main.Deallocate(p)
		returnValue(main, x)
	})
	u := NewUnit(false)
	u.AddRoutine(pair)
	u.AddRoutine(main)
	if got := run(t, u, "global::main", nil); got != 42 {
		t.Fatalf("pair sum = %d", got)
	}
}

// sumOf builds a function summing a struct of size words passed by value.
func sumOf(name string, size int) *Compiler {
	s := param("s")
	f := NewFunction(name, []Param{{s, size}}, false)
	f.Statement(func() {
		p := f.Address(s)
		acc := constant(f, 0)
		v := f.Allocate()
		for i := range size {
			f.Emit(isa.Load, v, p)
			f.Emit(isa.Add, acc, acc, v)
			if i < size-1 {
				f.Offset(p, 1)
			}
		}
		f.Deallocate(v)
		f.Deallocate(p)
		returnValue(f, acc)
	})
	return f
}

func TestStructArgumentsAreCopied(t *testing.T) {
	for _, size := range []int{1, 3, 8, 9, 12} {
		main := NewFunction("global::main", nil, false)
		local := &sema.TypedStorage{Name: "s", Class: sema.StorageLocal}
		main.DeclareLocal(local, size)
		main.Statement(func() {
			addr := main.Address(local)
			v := main.Allocate()
			for i := range size {
				main.ConstantOf(v, i+1)
				main.Emit(isa.Store, addr, v)
				main.Offset(addr, 1)
			}
			main.Deallocate(v)
			main.Deallocate(addr)
		})
		main.Statement(func() {
			arg := Argument{Size: size, Compile: func() isa.Register { return main.Address(local) }}
			returnValue(main, call(main, "global::sum", []Argument{byteArg(main, 100), arg}, byteResult))
		})
		u := NewUnit(false)
		u.AddRoutine(sumOf("global::sum", size))
		u.AddRoutine(main)
		if got, want := run(t, u, "global::main", nil), isa.Word(size*(size+1)/2); got != want {
			t.Fatalf("size %d: sum = %d, want %d", size, got, want)
		}
	}
}

func TestCalleeSaveRegistersSurviveCalls(t *testing.T) {
	clobber := NewFunction("global::clobber", nil, false)
	clobber.Statement(func() {
		var regs []isa.Register
		for range 31 {
			r := constant(clobber, 0xdead)
			regs = append(regs, r)
		}
		for _, r := range regs {
			clobber.Deallocate(r)
		}
	})
	main := NewFunction("global::main", nil, false)
	main.Statement(func() {
		var regs []isa.Register
		for i := range 31 {
			regs = append(regs, constant(main, i+1))
		}
		if !regs[30].IsCalleeSave() {
			t.Fatalf("expected the 31st register to be callee-save, got %s", regs[30])
		}
		r := call(main, "global::clobber", nil, Void)
		main.Deallocate(r)
		acc := regs[0]
		for _, r := range regs[1:] {
			main.Emit(isa.Add, acc, acc, r)
			main.Deallocate(r)
		}
		returnValue(main, acc)
	})
	u := NewUnit(false)
	u.AddRoutine(clobber)
	u.AddRoutine(main)
	if got := run(t, u, "global::main", nil); got != 31*32/2 {
		t.Fatalf("sum = %d", got)
	}
}

func TestRuntimeChecks(t *testing.T) {
	cases := []struct {
		name  string
		build func(c *Compiler)
		want  isa.Word
	}{
		{"null", func(c *Compiler) {
			p := constant(c, 0)
			c.CheckNull(p)
			c.Deallocate(p)
		}, isa.FaultNull},
		{"bounds", func(c *Compiler) {
			i, n := constant(c, 3), constant(c, 3)
			c.CheckBounds(i, n)
			c.Deallocate(n)
			c.Deallocate(i)
		}, isa.FaultBounds},
		{"capacity", func(c *Compiler) {
			l, cp := constant(c, 5), constant(c, 4)
			c.CheckCapacity(l, cp)
			c.Deallocate(cp)
			c.Deallocate(l)
		}, isa.FaultCapacity},
		{"passing", func(c *Compiler) {
			p, i, n := constant(c, 9), constant(c, 2), constant(c, 3)
			c.CheckNull(p)
			c.CheckBounds(i, n)
			c.CheckCapacity(i, n)
			c.CheckCapacity(n, n)
			c.Deallocate(n)
			c.Deallocate(i)
			c.Deallocate(p)
		}, 42},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			main := NewFunction("global::main", nil, false)
			main.Statement(func() { tc.build(main) })
			main.Statement(func() { returnValue(main, constant(main, 42)) })
			u := NewUnit(false)
			u.AddRoutine(main)
			if got := run(t, u, "global::main", nil); got != tc.want {
				t.Fatalf("got %#x want %#x", got, tc.want)
			}
		})
	}
}

func TestComparisonsYieldLanguageTruth(t *testing.T) {
	cases := []struct {
		op   isa.Opcode
		a, b int
		want isa.Word
	}{
		{isa.Eq, 3, 3, 1},
		{isa.Eq, 3, 4, 0},
		{isa.Neq, 3, 4, 1},
		{isa.Lt, 2, 7, 1},
		{isa.Gt, 2, 7, 0},
	}
	for _, tc := range cases {
		main := NewFunction("global::main", nil, false)
		main.Statement(func() {
			a := constant(main, tc.a)
			returnValue(main, main.Compare(tc.op, a, constant(main, tc.b)))
		})
		u := NewUnit(false)
		u.AddRoutine(main)
		if got := run(t, u, "global::main", nil); got != tc.want {
			t.Fatalf("%s %d %d = %d", tc.op, tc.a, tc.b, got)
		}
	}
	main := NewFunction("global::main", nil, false)
	main.Statement(func() {
		r := constant(main, 5)
		main.Not(r)
		z := constant(main, 0)
		main.Not(z)
		main.Emit(isa.Add, r, r, z)
		main.Deallocate(z)
		returnValue(main, r)
	})
	u := NewUnit(false)
	u.AddRoutine(main)
	if got := run(t, u, "global::main", nil); got != 1 {
		t.Fatalf("!5 + !0 = %d", got)
	}
}

func TestInterruptHandlerPreservesState(t *testing.T) {
	tick := NewInterrupt("global::tick")
	counter := &sema.TypedStorage{Name: "counter", Qualified: "global::counter", Class: sema.StorageGlobal}
	tick.Statement(func() {
		addr := tick.Address(counter)
		v := tick.Allocate()
		tick.Emit(isa.Load, v, addr)
		tick.Emit(isa.Add, v, v, isa.One)
		tick.Emit(isa.Store, addr, v)
		tick.Deallocate(v)
		tick.Deallocate(addr)
	})
	main := NewFunction("global::main", nil, false)
	main.Statement(func() {
		keep := constant(main, 40)
		n := constant(main, 3)
		main.Emit(isa.Int, n)
		main.Emit(isa.Int, n)
		main.Deallocate(n)
		addr := main.Address(counter)
		main.Emit(isa.Load, addr, addr)
		main.Emit(isa.Add, keep, keep, addr)
		main.Deallocate(addr)
		returnValue(main, keep)
	})
	u := NewUnit(false)
	u.AddGlobal("global::counter", 1)
	u.AddRoutine(tick)
	u.AddRoutine(main)
	if got := run(t, u, "global::main", map[isa.Word]string{3: "global::tick"}); got != 42 {
		t.Fatalf("got %d", got)
	}
}

func TestInterruptHandlerCallsKeepCallerSave(t *testing.T) {
	clobber := NewFunction("global::clobber", nil, false)
	clobber.Statement(func() {
		var regs []isa.Register
		for range 3 {
			regs = append(regs, constant(clobber, 7))
		}
		for _, r := range regs {
			clobber.Deallocate(r)
		}
	})
	tick := NewInterrupt("global::tick")
	tick.Statement(func() {
		r := call(tick, "global::clobber", nil, Void)
		tick.Deallocate(r)
	})
	main := NewFunction("global::main", nil, false)
	main.Statement(func() {
		keep := constant(main, 40)
		a, b := constant(main, 1), constant(main, 1)
		n := constant(main, 3)
		main.Emit(isa.Int, n)
		main.Deallocate(n)
		main.Emit(isa.Add, keep, keep, a)
		main.Emit(isa.Add, keep, keep, b)
		main.Deallocate(a)
		main.Deallocate(b)
		returnValue(main, keep)
	})
	u := NewUnit(false)
	u.AddRoutine(clobber)
	u.AddRoutine(tick)
	u.AddRoutine(main)
	if got := run(t, u, "global::main", map[isa.Word]string{3: "global::tick"}); got != 42 {
		t.Fatalf("interrupted code saw %d, want 42", got)
	}
}

func TestGlobalInitializer(t *testing.T) {
	u := NewUnit(false)
	u.AddGlobal("global::answer", 2)
	answer := &sema.TypedStorage{Name: "answer", Qualified: "global::answer", Class: sema.StorageGlobal}
	init := u.Initializer()
	init.Statement(func() {
		slot := init.Temporary(2)
		tmp := init.SlotAddress(slot)
		v := constant(init, 21)
		init.Fill(tmp, v, 2)
		init.Deallocate(v)
		dst := init.Address(answer)
		init.Copy(dst, tmp, 2)
		init.Deallocate(dst)
		init.Deallocate(tmp)
	})
	main := NewFunction("global::main", nil, false)
	main.Statement(func() {
		a := main.Address(answer)
		b := main.Allocate()
		main.Emit(isa.Load, b, a)
		main.Offset(a, 1)
		main.Emit(isa.Load, a, a)
		main.Emit(isa.Add, a, a, b)
		main.Deallocate(b)
		returnValue(main, a)
	})
	u.AddRoutine(main)
	if got := run(t, u, "global::main", nil); got != 42 {
		t.Fatalf("got %d", got)
	}
}

func TestLibraryHasNoStart(t *testing.T) {
	u := NewUnit(true)
	f := NewFunction("global::lib::f", nil, false)
	f.Statement(func() { returnValue(f, constant(f, 1)) })
	u.AddRoutine(f)
	ds := u.Link("", Void)
	labels := strings.Join(asm.Labels(ds), " ")
	if strings.Contains(labels, StartLabel) || !strings.HasPrefix(labels, InitializeLabel+" ") {
		t.Fatalf("unexpected labels %s", labels)
	}
	if err := testkit.CheckStreamInvariants(ds); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func countOps(ds []asm.Directive, op isa.Opcode) int {
	n := 0
	for _, d := range ds {
		if in, ok := d.(*asm.Instruction); ok && in.Op == op {
			n++
		}
	}
	return n
}

func TestCopyStrategies(t *testing.T) {
	cases := []struct {
		size        int
		loads, jnzs int
	}{
		{1, 1, 0},
		{2, 2, 0},
		{8, 8, 0},
		{9, 1, 1},
		{40, 1, 1},
	}
	for _, tc := range cases {
		c := NewFunction("global::f", nil, false)
		d, s := c.Allocate(), c.Allocate()
		c.Copy(d, s, tc.size)
		c.Deallocate(s)
		c.Deallocate(d)
		if got := countOps(c.code, isa.Load); got != tc.loads {
			t.Errorf("size %d: %d loads, want %d", tc.size, got, tc.loads)
		}
		if got := countOps(c.code, isa.Jnz); got != tc.jnzs {
			t.Errorf("size %d: %d loops, want %d", tc.size, got, tc.jnzs)
		}
	}
}

func expectPanic(t *testing.T, what string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s must panic", what)
		}
	}()
	f()
}

func TestBalanceAssertions(t *testing.T) {
	c := NewFunction("global::f", nil, false)
	expectPanic(t, "leaking statement", func() {
		c.Statement(func() { c.Allocate() })
	})
	c = NewFunction("global::f", nil, false)
	expectPanic(t, "expression holding two registers", func() {
		c.Expression(func() isa.Register {
			c.Allocate()
			return c.Allocate()
		})
	})
	c = NewFunction("global::f", nil, false)
	expectPanic(t, "unbalanced push", func() {
		c.Statement(func() {
			r := constant(c, 1)
			c.Push(r)
			c.Deallocate(r)
		})
	})
	c = NewFunction("global::f", nil, false)
	c.Allocate()
	expectPanic(t, "finish with live registers", func() { c.Finish() })
	c = NewFunction("global::f", nil, false)
	c.Finish()
	expectPanic(t, "second finish", func() { c.Finish() })
	c = NewFunction("global::f", nil, false)
	expectPanic(t, "break outside a loop", func() { c.Break() })
}

func TestLabelsAreUnique(t *testing.T) {
	c := NewFunction("global::identity<byte>", nil, false)
	a, b := c.NewLabel("loop"), c.NewLabel("loop")
	if a == b || !strings.HasPrefix(a, "global::identity<byte>$loop") {
		t.Fatalf("unexpected labels %s %s", a, b)
	}
	if got := Symbol("global::pair<byte, byte>"); got != "global::pair<byte,byte>" {
		t.Fatalf("unexpected symbol %s", got)
	}
}
