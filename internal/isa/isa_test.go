package isa

import "testing"

func TestRegisterPools(t *testing.T) {
	callers, callees := 0, 0
	for r := Register(0); r < RegisterCount; r++ {
		switch {
		case r.IsCallerSave():
			callers++
		case r.IsCalleeSave():
			callees++
		}
		if r.IsCallerSave() && r.IsCalleeSave() {
			t.Fatalf("%s is in both pools", r)
		}
	}
	if callers+callees != RegisterCount-ReservedCount {
		t.Fatalf("pools cover %d registers, want %d", callers+callees, RegisterCount-ReservedCount)
	}
	for _, r := range []Register{Return, One, SP} {
		if r.IsCallerSave() || r.IsCalleeSave() {
			t.Fatalf("%s must be reserved", r)
		}
	}
}

func TestRegisterNames(t *testing.T) {
	for r := Register(0); r < RegisterCount; r++ {
		got, err := ParseRegister(r.String())
		if err != nil || got != r {
			t.Fatalf("round trip of %s failed: %v %v", r, got, err)
		}
	}
	if _, err := ParseRegister("r64"); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestOpcodes(t *testing.T) {
	for o := Opcode(0); o < opcodeCount; o++ {
		got, err := ParseOpcode(o.String())
		if err != nil || got != o {
			t.Fatalf("round trip of %s failed", o)
		}
		_ = o.Operands()
	}
	if !Add.IsBinary() || Jz.IsBinary() {
		t.Fatalf("unexpected arity")
	}
}

func TestWordOf(t *testing.T) {
	if w, err := WordOf(42); err != nil || w != 42 {
		t.Fatalf("got %d, %v", w, err)
	}
	if _, err := WordOf(-1); err == nil {
		t.Fatalf("negative values must not narrow")
	}
	if _, err := WordOf(int64(1) << 40); err == nil {
		t.Fatalf("oversized values must not narrow")
	}
}
