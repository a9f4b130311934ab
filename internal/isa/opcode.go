package isa

import "fmt"

// Opcode is a machine operation.
type Opcode uint8

// Operand conventions (D, S0, S1 in directive order):
//
//	load d s       d = mem[s]
//	store d s      mem[d] = s
//	mov d s        d = s
//	constant d     d = next word
//	add..shr d a b d = a op b
//	not d s        d = ^s
//	eq..gt d a b   d = 0 when the relation holds, 1 otherwise
//	jmp t          pc = t
//	jz c t         pc = t when c == 0
//	jnz c t        pc = t when c != 0
//	int n          raise interrupt n
const (
	Halt Opcode = iota
	Int
	Rti
	Wait
	Load
	Store
	Mov
	Constant
	Add
	Sub
	Mul
	Div
	Mod
	And
	Or
	Xor
	Shl
	Shr
	Not
	Eq
	Neq
	Lt
	Gt
	Jmp
	Jz
	Jnz
	Nop

	opcodeCount
)

var opcodeNames = [opcodeCount]string{
	Halt:     "halt",
	Int:      "int",
	Rti:      "rti",
	Wait:     "wait",
	Load:     "load",
	Store:    "store",
	Mov:      "mov",
	Constant: "constant",
	Add:      "add",
	Sub:      "sub",
	Mul:      "mul",
	Div:      "div",
	Mod:      "mod",
	And:      "and",
	Or:       "or",
	Xor:      "xor",
	Shl:      "shl",
	Shr:      "shr",
	Not:      "not",
	Eq:       "eq",
	Neq:      "neq",
	Lt:       "lt",
	Gt:       "gt",
	Jmp:      "jmp",
	Jz:       "jz",
	Jnz:      "jnz",
	Nop:      "nop",
}

func (o Opcode) String() string {
	if o < opcodeCount {
		return opcodeNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Operands returns how many register operands the opcode takes.
func (o Opcode) Operands() int {
	switch o {
	case Halt, Rti, Wait, Nop:
		return 0
	case Int, Jmp, Constant:
		return 1
	case Load, Store, Mov, Not, Jz, Jnz:
		return 2
	case Add, Sub, Mul, Div, Mod, And, Or, Xor, Shl, Shr, Eq, Neq, Lt, Gt:
		return 3
	}
	panic(fmt.Errorf("unknown opcode %d", uint8(o)))
}

// IsBinary reports whether o is a three-operand arithmetic or comparison op.
func (o Opcode) IsBinary() bool {
	return o.Operands() == 3
}

// ParseOpcode looks an opcode up by its mnemonic.
func ParseOpcode(s string) (Opcode, error) {
	for i, name := range opcodeNames {
		if name == s {
			return Opcode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown opcode %q", s)
}
