package testkit

import (
	"errors"
	"strings"
	"testing"

	"qllc/internal/asm"
	"qllc/internal/isa"
)

func ins(op isa.Opcode, regs ...isa.Register) *asm.Instruction {
	in := &asm.Instruction{Op: op}
	for i, r := range regs {
		*[]*isa.Register{&in.D, &in.S0, &in.S1}[i] = r
	}
	return in
}

func TestRunCountsDown(t *testing.T) {
	ds := []asm.Directive{
		&asm.Label{Name: "start"},
		&asm.Constant{D: 1, Value: asm.Immediate(5)},
		&asm.Constant{D: 2, Value: asm.Reference("loop")},
		&asm.Constant{D: 0, Value: asm.Immediate(0)},
		&asm.Label{Name: "loop"},
		ins(isa.Add, 0, 0, 1),
		ins(isa.Sub, 1, 1, isa.One),
		ins(isa.Jnz, 1, 2),
		ins(isa.Halt),
	}
	res, err := Run(ds, "start")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Return != 15 {
		t.Fatalf("got %d want 15", res.Return)
	}
}

func TestDataLayout(t *testing.T) {
	ds := []asm.Directive{
		&asm.Label{Name: "start"},
		&asm.Constant{D: 1, Value: asm.Reference("text")},
		ins(isa.Add, 1, 1, isa.One),
		ins(isa.Load, 0, 1),
		ins(isa.Halt),
		&asm.Label{Name: "text"},
		&asm.Data{Values: []asm.Value{asm.Text("hé"), asm.Reference("start")}},
	}
	res, err := Run(ds, "start")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Return != 'é' {
		t.Fatalf("got %d", res.Return)
	}
	if res.Memory[7] != 0 {
		t.Fatalf("reference to start must hold address 0, got %d", res.Memory[7])
	}
}

func TestRunErrors(t *testing.T) {
	loop := []asm.Directive{
		&asm.Label{Name: "start"},
		&asm.Constant{D: 1, Value: asm.Reference("start")},
		ins(isa.Jmp, 1),
	}
	m, err := Assemble(loop, 64)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if _, err := m.Run(Options{Start: "start", Steps: 100}); !errors.Is(err, ErrStepLimit) {
		t.Fatalf("expected step limit, got %v", err)
	}
	div := []asm.Directive{
		&asm.Label{Name: "start"},
		ins(isa.Div, 1, isa.One, 2),
		ins(isa.Halt),
	}
	if _, err := Run(div, "start"); err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("expected division error, got %v", err)
	}
}

func TestStreamInvariants(t *testing.T) {
	cases := []struct {
		name string
		ds   []asm.Directive
		want string
	}{
		{"duplicate", []asm.Directive{&asm.Label{Name: "a"}, &asm.Label{Name: "a"}}, "defined at"},
		{"undefined", []asm.Directive{&asm.Constant{D: 1, Value: asm.Reference("nowhere")}}, "undefined label nowhere"},
		{"one", []asm.Directive{ins(isa.Mov, isa.One, 1)}, "overwrites one"},
	}
	for _, tc := range cases {
		err := CheckStreamInvariants(tc.ds)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: got %v, want %q", tc.name, err, tc.want)
		}
	}
}
