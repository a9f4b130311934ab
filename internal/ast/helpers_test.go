package ast

import (
	"slices"
	"testing"

	"qllc/internal/asm"
	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/isa"
	"qllc/internal/liveness"
	"qllc/internal/sema"
	"qllc/internal/source"
	"qllc/internal/testkit"
	"qllc/internal/types"
)

func at(line int) *source.Location { return source.At("test.qll", line, 1) }

func num(v int64) Expression { return NewInteger(v, at(1)) }

func id(name string) *Identifier { return NewIdentifier(name, at(1)) }

func tid(name string) types.Type { return types.NewIdentifier(name, at(1)) }

func bin(op BinaryOp, l, r Expression) Expression {
	return &Binary{expr: expr{Loc: at(1)}, Op: op, Left: l, Right: r}
}

func unary(op UnaryOp, e Expression) Expression {
	return &Unary{expr: expr{Loc: at(1)}, Op: op, Operand: e}
}

func call(callee Expression, args ...Expression) Expression {
	return &Call{expr: expr{Loc: at(1)}, Callee: callee, Args: args}
}

func ret(e Expression) Statement { return &ReturnStatement{stmt: stmt{Loc: at(1)}, Value: e} }

func local(name string, t types.Type, init Expression) Statement {
	return &VarStatement{stmt: stmt{Loc: at(1)}, Name: name, Type: t, Init: init}
}

func assign(target, value Expression) Statement {
	return &AssignStatement{stmt: stmt{Loc: at(1)}, Target: target, Value: value}
}

func exprStmt(e Expression) Statement { return &ExpressionStatement{stmt: stmt{Loc: at(1)}, Expr: e} }

func param(name string, t types.Type) Parameter { return Parameter{Name: name, Type: t, Loc: at(1)} }

func fn(name string, params []Parameter, result types.Type, body ...Statement) *FunctionDeclaration {
	return &FunctionDeclaration{Name: name, Params: params, Return: result, Body: body, Loc: at(1)}
}

func mainReturning(body ...Statement) *FunctionDeclaration {
	return fn("main", nil, types.Byte, body...)
}

// check runs every checking stage and returns the program with what was
// reported.
func check(t *testing.T, decls ...Declaration) (*Program, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(100)
	ctx := sema.New(diag.BagReporter{Bag: bag})
	p := NewProgram(ctx, decls)
	p.Bind()
	p.Kindcheck()
	p.Typecheck()
	p.Deferred()
	return p, bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	return slices.ContainsFunc(bag.Items(), func(d diag.Diagnostic) bool { return d.Code == code })
}

func expectCode(t *testing.T, bag *diag.Bag, code diag.Code) {
	t.Helper()
	if !hasCode(bag, code) {
		t.Fatalf("expected %s, got %v", code.ID(), bag.Strings())
	}
}

// run compiles the program rooted at global::main and returns what main
// returned.
func run(t *testing.T, decls ...Declaration) isa.Word {
	t.Helper()
	p, bag := check(t, decls...)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Strings())
	}
	const entry = "global::main"
	g := liveness.NewGraph()
	for _, n := range p.Routines() {
		g.Add(n)
	}
	live := g.Solve(entry)
	u := codegen.NewUnit(false)
	p.Compile(u, live, nil)
	main, ok := p.Function(entry)
	if !ok {
		t.Fatalf("no %s", entry)
	}
	ds := u.Link(entry, main.Result())
	res, err := testkit.Run(ds, codegen.StartLabel)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, asm.Render(ds))
	}
	return res.Return
}
