// Package isa describes the register machine the generated code targets:
// word size, register file layout, opcodes and the fault values written by
// compiled-in runtime checks.
package isa

import (
	"fmt"

	"fortio.org/safecast"
)

// Word is the machine word; memory is word addressed.
type Word = uint32

// Register indexes the generic register file.
type Register uint8

const (
	// RegisterCount is the number of generic registers.
	RegisterCount = 64

	// Return holds return values and, across a call, the return address.
	Return Register = 0
	// One always holds the constant 1.
	One Register = RegisterCount - 2
	// SP is the stack pointer; the stack grows downward.
	SP Register = RegisterCount - 1

	// ReservedCount is how many registers the compiler never allocates.
	ReservedCount = 3

	FirstCallerSave Register = 1
	LastCallerSave  Register = 30
	FirstCalleeSave Register = 31
	LastCalleeSave  Register = RegisterCount - 3
)

// Fault values left in Return before the machine halts on a failed runtime check.
const (
	FaultNull     Word = 0xfffffff0
	FaultBounds   Word = 0xfffffff1
	FaultCapacity Word = 0xfffffff2
)

func (r Register) String() string {
	switch r {
	case SP:
		return "sp"
	case One:
		return "one"
	}
	return fmt.Sprintf("r%d", uint8(r))
}

// IsCallerSave reports whether r belongs to the caller-save pool.
func (r Register) IsCallerSave() bool {
	return r >= FirstCallerSave && r <= LastCallerSave
}

// IsCalleeSave reports whether r belongs to the callee-save pool.
func (r Register) IsCalleeSave() bool {
	return r >= FirstCalleeSave && r <= LastCalleeSave
}

// ParseRegister accepts the names produced by Register.String.
func ParseRegister(s string) (Register, error) {
	switch s {
	case "sp":
		return SP, nil
	case "one":
		return One, nil
	}
	var n int
	if _, err := fmt.Sscanf(s, "r%d", &n); err != nil {
		return 0, fmt.Errorf("invalid register %q", s)
	}
	if n < 0 || n >= RegisterCount {
		return 0, fmt.Errorf("register %q out of range", s)
	}
	return Register(n), nil
}

// WordOf narrows a compile-time quantity (size, offset, literal) to a machine word.
func WordOf[T safecast.Integer](v T) (Word, error) {
	w, err := safecast.Conv[Word](v)
	if err != nil {
		return 0, fmt.Errorf("%v does not fit in a machine word: %w", v, err)
	}
	return w, nil
}

// MustWord is WordOf for values the compiler has already validated.
func MustWord[T safecast.Integer](v T) Word {
	w, err := WordOf(v)
	if err != nil {
		panic(err)
	}
	return w
}
