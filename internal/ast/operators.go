package ast

import (
	"qllc/internal/isa"
	"qllc/internal/types"
)

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	BinaryInvalid BinaryOp = iota
	BinaryAdd
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMod
	BinaryBitAnd
	BinaryBitOr
	BinaryBitXor
	BinaryShiftLeft
	BinaryShiftRight
	BinaryLogicalAnd
	BinaryLogicalOr
	BinaryEq
	BinaryNotEq
	BinaryLess
	BinaryLessEq
	BinaryGreater
	BinaryGreaterEq
)

var binaryNames = [...]string{
	BinaryInvalid:    "?",
	BinaryAdd:        "+",
	BinarySub:        "-",
	BinaryMul:        "*",
	BinaryDiv:        "/",
	BinaryMod:        "%",
	BinaryBitAnd:     "&",
	BinaryBitOr:      "|",
	BinaryBitXor:     "^",
	BinaryShiftLeft:  "<<",
	BinaryShiftRight: ">>",
	BinaryLogicalAnd: "&&",
	BinaryLogicalOr:  "||",
	BinaryEq:         "==",
	BinaryNotEq:      "!=",
	BinaryLess:       "<",
	BinaryLessEq:     "<=",
	BinaryGreater:    ">",
	BinaryGreaterEq:  ">=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return "?"
}

// ParseBinaryOp looks an operator up by its spelling.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	for op, name := range binaryNames {
		if name == s && BinaryOp(op) != BinaryInvalid {
			return BinaryOp(op), true
		}
	}
	return BinaryInvalid, false
}

// UnaryOp enumerates prefix operators.
type UnaryOp uint8

const (
	UnaryInvalid UnaryOp = iota
	UnaryNeg
	UnaryNot
	UnaryBitNot
	UnaryAddr
	UnaryDeref
)

var unaryNames = [...]string{
	UnaryInvalid: "?",
	UnaryNeg:     "-",
	UnaryNot:     "!",
	UnaryBitNot:  "~",
	UnaryAddr:    "&",
	UnaryDeref:   "*",
}

func (op UnaryOp) String() string {
	if int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return "?"
}

func ParseUnaryOp(s string) (UnaryOp, bool) {
	for op, name := range unaryNames {
		if name == s && UnaryOp(op) != UnaryInvalid {
			return UnaryOp(op), true
		}
	}
	return UnaryInvalid, false
}

// FamilyMask describes broad categories of types an operator accepts.
type FamilyMask uint8

const (
	FamilyNone    FamilyMask = 0
	FamilyNumeric FamilyMask = 1 << iota
	FamilyPointer
	FamilyFunction
)

const (
	// FamilyIntegral is everything that fits a register.
	FamilyIntegral = FamilyNumeric | FamilyPointer | FamilyFunction
)

// familyOf classifies t; error and void belong to no family.
func familyOf(t types.Type) FamilyMask {
	if types.IsError(t) || types.IsVoid(t) {
		return FamilyNone
	}
	if types.IsNumeric(t) {
		return FamilyNumeric
	}
	switch r := t.Resolve().(type) {
	case *types.Pointer:
		return FamilyPointer
	case *types.Array:
		if r.Length == types.UnsizedLength {
			return FamilyPointer
		}
	case *types.Function:
		return FamilyFunction
	}
	return FamilyNone
}

// BinaryResult describes how to derive the result type for an operator.
type BinaryResult uint8

const (
	BinaryResultByte BinaryResult = iota
	BinaryResultLeft
)

// BinaryFlags annotate special handling for binary operators.
type BinaryFlags uint8

const (
	BinaryFlagNone         BinaryFlags = 0
	BinaryFlagShortCircuit BinaryFlags = 1 << iota
	BinaryFlagSameType
	BinaryFlagScaled // right operand counts elements of the left pointer
)

// BinarySpec lists operand families and expected result for an operation.
type BinarySpec struct {
	Left   FamilyMask
	Right  FamilyMask
	Result BinaryResult
	Flags  BinaryFlags
}

var binarySpecTable = map[BinaryOp][]BinarySpec{
	BinaryAdd: {
		{Left: FamilyNumeric, Right: FamilyNumeric},
		{Left: FamilyPointer, Right: FamilyNumeric, Result: BinaryResultLeft, Flags: BinaryFlagScaled},
	},
	BinarySub: {
		{Left: FamilyNumeric, Right: FamilyNumeric},
		{Left: FamilyPointer, Right: FamilyNumeric, Result: BinaryResultLeft, Flags: BinaryFlagScaled},
	},
	BinaryMul:        {{Left: FamilyNumeric, Right: FamilyNumeric}},
	BinaryDiv:        {{Left: FamilyNumeric, Right: FamilyNumeric}},
	BinaryMod:        {{Left: FamilyNumeric, Right: FamilyNumeric}},
	BinaryBitAnd:     {{Left: FamilyNumeric, Right: FamilyNumeric}},
	BinaryBitOr:      {{Left: FamilyNumeric, Right: FamilyNumeric}},
	BinaryBitXor:     {{Left: FamilyNumeric, Right: FamilyNumeric}},
	BinaryShiftLeft:  {{Left: FamilyNumeric, Right: FamilyNumeric}},
	BinaryShiftRight: {{Left: FamilyNumeric, Right: FamilyNumeric}},
	BinaryLogicalAnd: {{Left: FamilyIntegral, Right: FamilyIntegral, Flags: BinaryFlagShortCircuit}},
	BinaryLogicalOr:  {{Left: FamilyIntegral, Right: FamilyIntegral, Flags: BinaryFlagShortCircuit}},
	BinaryEq:         {{Left: FamilyIntegral, Right: FamilyIntegral, Flags: BinaryFlagSameType}},
	BinaryNotEq:      {{Left: FamilyIntegral, Right: FamilyIntegral, Flags: BinaryFlagSameType}},
	BinaryLess:       {{Left: FamilyNumeric | FamilyPointer, Right: FamilyNumeric | FamilyPointer, Flags: BinaryFlagSameType}},
	BinaryLessEq:     {{Left: FamilyNumeric | FamilyPointer, Right: FamilyNumeric | FamilyPointer, Flags: BinaryFlagSameType}},
	BinaryGreater:    {{Left: FamilyNumeric | FamilyPointer, Right: FamilyNumeric | FamilyPointer, Flags: BinaryFlagSameType}},
	BinaryGreaterEq:  {{Left: FamilyNumeric | FamilyPointer, Right: FamilyNumeric | FamilyPointer, Flags: BinaryFlagSameType}},
}

// BinarySpecs returns the accepted operand shapes of op.
func BinarySpecs(op BinaryOp) []BinarySpec {
	return binarySpecTable[op]
}

// lowering is how an operator maps onto the machine.
type lowering struct {
	op isa.Opcode
	// truth is set for comparisons whose 0-when-true result is flipped.
	truth bool
}

// <= and >= are the negations of > and <, which the machine already
// yields as 1 when the relation fails.
var binaryLowering = map[BinaryOp]lowering{
	BinaryAdd:        {op: isa.Add},
	BinarySub:        {op: isa.Sub},
	BinaryMul:        {op: isa.Mul},
	BinaryDiv:        {op: isa.Div},
	BinaryMod:        {op: isa.Mod},
	BinaryBitAnd:     {op: isa.And},
	BinaryBitOr:      {op: isa.Or},
	BinaryBitXor:     {op: isa.Xor},
	BinaryShiftLeft:  {op: isa.Shl},
	BinaryShiftRight: {op: isa.Shr},
	BinaryEq:         {op: isa.Eq, truth: true},
	BinaryNotEq:      {op: isa.Neq, truth: true},
	BinaryLess:       {op: isa.Lt, truth: true},
	BinaryGreater:    {op: isa.Gt, truth: true},
	BinaryLessEq:     {op: isa.Gt},
	BinaryGreaterEq:  {op: isa.Lt},
}

// UnaryResult indicates how to derive the resulting type.
type UnaryResult uint8

const (
	UnaryResultByte UnaryResult = iota
	UnaryResultPointer
	UnaryResultElem
)

// UnaryFlags capture operator-specific metadata.
type UnaryFlags uint8

const (
	UnaryFlagNone                UnaryFlags = 0
	UnaryFlagRequiresAddressable UnaryFlags = 1 << iota
)

// UnarySpec describes operand expectations for unary operators.
type UnarySpec struct {
	Operand FamilyMask
	Result  UnaryResult
	Flags   UnaryFlags
}

var unarySpecTable = map[UnaryOp]UnarySpec{
	UnaryNeg:    {Operand: FamilyNumeric},
	UnaryNot:    {Operand: FamilyIntegral},
	UnaryBitNot: {Operand: FamilyNumeric},
	UnaryAddr:   {Result: UnaryResultPointer, Flags: UnaryFlagRequiresAddressable},
	UnaryDeref:  {Operand: FamilyPointer, Result: UnaryResultElem},
}
