package pipeline

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"qllc/internal/asm"
	"qllc/internal/astio"
	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/testkit"
	"qllc/internal/trace"
)

const byteType = `{"kind": "name", "name": "byte"}`

// unit decodes a JSON translation unit.
func unit(t *testing.T, path, src string) astio.Unit {
	t.Helper()
	decls, err := astio.Decode(strings.NewReader(src), astio.FormatJSON)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return astio.Unit{Path: path, Decls: decls}
}

// library defines add and a global seed; main calls into it.
func libraryUnit(t *testing.T) astio.Unit {
	return unit(t, "lib.json", `[
	  {"kind": "global", "name": "seed", "type": `+byteType+`, "expr": {"kind": "integer", "value": 40}},
	  {"kind": "function", "name": "add", "type": `+byteType+`, "flags": ["exported"],
	   "args": [{"kind": "param", "name": "a", "type": `+byteType+`},
	            {"kind": "param", "name": "b", "type": `+byteType+`}],
	   "body": [{"kind": "return", "expr": {"kind": "binary", "op": "+",
	             "left": {"kind": "identifier", "name": "a"}, "right": {"kind": "identifier", "name": "b"}}}]},
	  {"kind": "function", "name": "unused", "type": `+byteType+`,
	   "body": [{"kind": "return", "expr": {"kind": "integer", "value": 1}}]}
	]`)
}

func mainUnit(t *testing.T) astio.Unit {
	return unit(t, "main.json", `[
	  {"kind": "function", "name": "main", "type": `+byteType+`,
	   "body": [{"kind": "return", "expr": {"kind": "call", "expr": {"kind": "identifier", "name": "add"},
	             "args": [{"kind": "identifier", "name": "seed"}, {"kind": "integer", "value": 2}]}}]}
	]`)
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestCompileRunsProgram(t *testing.T) {
	var events []Event
	res, err := Compile(context.Background(), []astio.Unit{libraryUnit(t), mainUnit(t)}, Options{
		OnEvent: func(ev Event) { events = append(events, ev) },
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if res.Bag.HasErrors() || res.Directives == nil {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Strings())
	}
	out, err := testkit.Run(res.Directives, codegen.StartLabel)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, asm.Render(res.Directives))
	}
	if out.Return != 42 {
		t.Fatalf("main returned %d, want 42", out.Return)
	}

	want := []string{"global::add", "global::main", "global::seed"}
	if !slices.Equal(res.Live, want) {
		t.Fatalf("live = %v, want %v", res.Live, want)
	}
	if slices.Contains(asm.Labels(res.Directives), "global::unused") {
		t.Fatalf("dead function was emitted")
	}

	var done []Stage
	for _, ev := range events {
		if ev.Status == StatusDone {
			done = append(done, ev.Stage)
		}
	}
	if !slices.Equal(done, Stages) {
		t.Fatalf("completed stages = %v, want %v", done, Stages)
	}
	if len(res.Timing.Phases) != len(Stages) {
		t.Fatalf("timed %d phases, want %d", len(res.Timing.Phases), len(Stages))
	}
}

func TestDuplicatesStopBeforeLiveness(t *testing.T) {
	var skipped []Stage
	res, err := Compile(context.Background(), []astio.Unit{mainUnit(t), libraryUnit(t), mainUnit(t)}, Options{
		OnEvent: func(ev Event) {
			if ev.Status == StatusSkipped {
				skipped = append(skipped, ev.Stage)
			}
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !slices.Contains(codes(res.Bag), diag.ResDuplicate) {
		t.Fatalf("expected a duplicate declaration, got %v", res.Bag.Strings())
	}
	if res.Directives != nil {
		t.Fatalf("directives produced despite errors")
	}
	if want := []Stage{StageLiveness, StageCodegen, StageLink}; !slices.Equal(skipped, want) {
		t.Fatalf("skipped = %v, want %v", skipped, want)
	}
}

func TestEntryPoint(t *testing.T) {
	tests := []struct {
		name  string
		units func(t *testing.T) []astio.Unit
		entry string
		want  diag.Code
	}{
		{
			name:  "missing",
			units: func(t *testing.T) []astio.Unit { return []astio.Unit{libraryUnit(t)} },
			want:  diag.DrvNoEntry,
		},
		{
			name:  "global",
			units: func(t *testing.T) []astio.Unit { return []astio.Unit{libraryUnit(t)} },
			entry: "seed",
			want:  diag.DrvBadEntry,
		},
		{
			name:  "parameters",
			units: func(t *testing.T) []astio.Unit { return []astio.Unit{libraryUnit(t)} },
			entry: "global::add",
			want:  diag.DrvBadEntry,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compile(context.Background(), tt.units(t), Options{Entry: tt.entry})
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if !slices.Contains(codes(res.Bag), tt.want) {
				t.Fatalf("expected %s, got %v", tt.want.ID(), res.Bag.Strings())
			}
			if res.Directives != nil {
				t.Fatalf("directives produced despite a bad entry point")
			}
		})
	}
}

func TestLibraryMode(t *testing.T) {
	res, err := Compile(context.Background(), []astio.Unit{libraryUnit(t)}, Options{Library: true, Exports: []string{"seed"}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Strings())
	}
	if want := []string{"global::add", "global::seed"}; !slices.Equal(res.Live, want) {
		t.Fatalf("live = %v, want %v", res.Live, want)
	}
	ls := asm.Labels(res.Directives)
	if slices.Contains(ls, codegen.StartLabel) || !slices.Contains(ls, codegen.InitializeLabel) {
		t.Fatalf("library labels = %v", ls)
	}

	res, err = Compile(context.Background(), []astio.Unit{libraryUnit(t)}, Options{Library: true, Exports: []string{"nothing"}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !slices.Contains(codes(res.Bag), diag.DrvNoEntry) {
		t.Fatalf("unknown export accepted: %v", res.Bag.Strings())
	}
}

func TestInterruptHandlersAreLive(t *testing.T) {
	u := unit(t, "irq.json", `[
	  {"kind": "global", "name": "ticks", "type": `+byteType+`},
	  {"kind": "function", "name": "tick", "flags": ["interrupt"],
	   "body": [{"kind": "assign", "left": {"kind": "identifier", "name": "ticks"},
	             "right": {"kind": "binary", "op": "+", "left": {"kind": "identifier", "name": "ticks"},
	                       "right": {"kind": "integer", "value": 1}}}]},
	  {"kind": "function", "name": "main", "body": []}
	]`)
	res, err := Compile(context.Background(), []astio.Unit{u}, Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Strings())
	}
	for _, name := range []string{"global::tick", "global::ticks", "global::main"} {
		if !slices.Contains(res.Live, name) {
			t.Fatalf("%s is not live: %v", name, res.Live)
		}
	}
}

func TestRecursionReportedOnce(t *testing.T) {
	u := unit(t, "rec.json", `[
	  {"kind": "type", "name": "A", "line": 1, "column": 1, "type": {"kind": "struct", "members": [
	    {"kind": "member", "name": "a", "type": {"kind": "name", "name": "A", "line": 1, "column": 20}}]}},
	  {"kind": "type", "name": "B", "line": 2, "column": 1, "type": {"kind": "name", "name": "A", "line": 2, "column": 10}}
	]`)
	res, err := Check(context.Background(), []astio.Unit{u}, Options{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	n := 0
	for _, c := range codes(res.Bag) {
		if c == diag.KindRecursiveType {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("recursion reported %d times: %v", n, res.Bag.Strings())
	}
}

func TestCheckStopsAfterDeferred(t *testing.T) {
	u := unit(t, "tpl.json", `[
	  {"kind": "function", "name": "id", "typeParams": ["T"], "type": {"kind": "name", "name": "T"},
	   "args": [{"kind": "param", "name": "x", "type": {"kind": "name", "name": "T"}}],
	   "body": [{"kind": "return", "expr": {"kind": "identifier", "name": "x"}}]},
	  {"kind": "function", "name": "main", "body": []}
	]`)
	var stages []Stage
	res, err := Check(context.Background(), []astio.Unit{u}, Options{
		OnEvent: func(ev Event) {
			if ev.Status == StatusWorking {
				stages = append(stages, ev.Stage)
			}
		},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !slices.Equal(stages, CheckStages) {
		t.Fatalf("stages = %v, want %v", stages, CheckStages)
	}
	if res.Bag.HasErrors() || res.Bag.Count(diag.SevWarning) != 1 || !slices.Contains(codes(res.Bag), diag.DefUnusedTemplate) {
		t.Fatalf("expected one unused template warning, got %v", res.Bag.Strings())
	}
	if res.Directives != nil || res.Live != nil {
		t.Fatalf("check must not generate code")
	}
}

func TestInternalErrorIsRecovered(t *testing.T) {
	boom := errors.New("boom")
	_, err := Compile(context.Background(), []astio.Unit{libraryUnit(t), mainUnit(t)}, Options{
		OnEvent: func(ev Event) {
			if ev.Stage == StageCodegen && ev.Status == StatusWorking {
				panic(boom)
			}
		},
	})
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("expected an internal error, got %v", err)
	}
	if ie.Stage != StageCodegen || len(ie.Stack) == 0 || !errors.Is(err, boom) || !IsInternal(err) {
		t.Fatalf("unexpected internal error %+v", ie)
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compile(ctx, []astio.Unit{mainUnit(t)}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestDeclarationSpans(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	if _, err := Compile(ctx, []astio.Unit{libraryUnit(t), mainUnit(t)}, Options{}); err != nil {
		t.Fatalf("compile: %v", err)
	}
	var codegenSpan uint64
	var decls []string
	for _, ev := range ring.Snapshot() {
		if ev.Kind != trace.KindSpanBegin {
			continue
		}
		switch {
		case ev.Scope == trace.ScopePass && ev.Name == string(StageCodegen):
			codegenSpan = ev.SpanID
		case ev.Scope == trace.ScopeDecl && ev.ParentID == codegenSpan:
			decls = append(decls, ev.Name)
		}
	}
	if want := []string{"global::seed", "global::add", "global::main"}; !slices.Equal(decls, want) {
		t.Fatalf("declaration spans = %v, want %v", decls, want)
	}
}
