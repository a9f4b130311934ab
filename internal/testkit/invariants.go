// Package testkit runs directive streams for tests: it assembles them in
// memory, checks their label invariants and executes them.
package testkit

import (
	"fmt"

	"qllc/internal/asm"
	"qllc/internal/isa"
)

// CheckStreamInvariants runs a minimal set of invariants on a linked stream:
// 1) every label is defined once
// 2) every referenced label is defined
// 3) nothing writes the constant-one register
func CheckStreamInvariants(ds []asm.Directive) error {
	defined := make(map[string]int, len(ds))
	for i, d := range ds {
		l, ok := d.(*asm.Label)
		if !ok {
			continue
		}
		if prev, dup := defined[l.Name]; dup {
			return fmt.Errorf("label %s defined at %d and %d", l.Name, prev, i)
		}
		defined[l.Name] = i
	}
	check := func(i int, v asm.Value) error {
		ref, ok := v.(asm.Reference)
		if !ok {
			return nil
		}
		if _, ok := defined[string(ref)]; !ok {
			return fmt.Errorf("directive %d references undefined label %s", i, string(ref))
		}
		return nil
	}
	for i, d := range ds {
		switch d := d.(type) {
		case *asm.Constant:
			if d.D == isa.One {
				return fmt.Errorf("directive %d overwrites %s", i, isa.One)
			}
			if err := check(i, d.Value); err != nil {
				return err
			}
		case *asm.Data:
			for _, v := range d.Values {
				if err := check(i, v); err != nil {
					return err
				}
			}
		case *asm.Instruction:
			if writes(d.Op) && d.D == isa.One {
				return fmt.Errorf("directive %d overwrites %s", i, isa.One)
			}
		case *asm.Label:
		default:
			return fmt.Errorf("directive %d: unknown kind %T", i, d)
		}
	}
	return nil
}

func writes(op isa.Opcode) bool {
	return op.IsBinary() || op == isa.Load || op == isa.Mov || op == isa.Not
}
