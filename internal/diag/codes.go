package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Kind-checking of type definitions
	KindInfo             Code = 1000
	KindRecursiveType    Code = 1001
	KindUnknownType      Code = 1002
	KindInvalidInterrupt Code = 1003
	KindInvalidLength    Code = 1004
	KindNotTemplate      Code = 1005
	KindTemplateArity    Code = 1006
	KindDuplicateMember  Code = 1007
	KindUnknownMember    Code = 1008
	KindVoidValue        Code = 1009

	// Name resolution
	ResInfo              Code = 2000
	ResUnknownIdentifier Code = 2001
	ResUnknownType       Code = 2002
	ResAmbiguous         Code = 2003
	ResDuplicate         Code = 2004
	ResUnknownNamespace  Code = 2005

	// Type-checking of values
	TypeInfo               Code = 3000
	TypeMismatch           Code = 3001
	TypeNotNumeric         Code = 3002
	TypeNotIntegral        Code = 3003
	TypeNotCallable        Code = 3004
	TypeArgumentCount      Code = 3005
	TypeNoMember           Code = 3006
	TypeNotAssignable      Code = 3007
	TypeNotIndexable       Code = 3008
	TypeBreakOutsideLoop   Code = 3009
	TypeInvalidCast        Code = 3010
	TypeCannotInfer        Code = 3011
	TypeNotPointer         Code = 3012
	TypeInvalidLiteral     Code = 3013
	TypeMissingStorage     Code = 3014
	TypeReturnOutside      Code = 3015
	TypeNotAddressable     Code = 3016
	TypeInvalidDeclaration Code = 3017

	// Templates
	TplInfo            Code = 4000
	TplDepthExceeded   Code = 4001
	TplArity           Code = 4002
	TplCannotInfer     Code = 4003
	TplNotTemplate     Code = 4004
	TplInInstantiation Code = 4005

	// Checks run after the whole program has been type-checked
	DefInfo           Code = 5000
	DefUninstantiated Code = 5001
	DefUnusedTemplate Code = 5002

	// Driver, entry point and project
	DrvInfo     Code = 6000
	DrvNoEntry  Code = 6001
	DrvBadEntry Code = 6002
	DrvInput    Code = 6003
	DrvManifest Code = 6004
	DrvTimings  Code = 6005
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		KindInfo:               "Kind information",
		KindRecursiveType:      "recursive type has infinite size",
		KindUnknownType:        "unknown type",
		KindInvalidInterrupt:   "invalid interrupt handler signature",
		KindInvalidLength:      "invalid array length",
		KindNotTemplate:        "type is not a template",
		KindTemplateArity:      "wrong number of template arguments",
		KindDuplicateMember:    "duplicate struct member",
		KindUnknownMember:      "unknown member of type",
		KindVoidValue:          "void used as a value type",
		ResInfo:                "Resolution information",
		ResUnknownIdentifier:   "unknown identifier",
		ResUnknownType:         "unknown type identifier",
		ResAmbiguous:           "ambiguous identifier",
		ResDuplicate:           "duplicate declaration",
		ResUnknownNamespace:    "unknown namespace",
		TypeInfo:               "Type information",
		TypeMismatch:           "type mismatch",
		TypeNotNumeric:         "expected a numeric type",
		TypeNotIntegral:        "expected an integral type",
		TypeNotCallable:        "expression is not callable",
		TypeArgumentCount:      "wrong number of arguments",
		TypeNoMember:           "no such member",
		TypeNotAssignable:      "expression is not assignable",
		TypeNotIndexable:       "expression is not indexable",
		TypeBreakOutsideLoop:   "break outside of a loop",
		TypeInvalidCast:        "invalid cast",
		TypeCannotInfer:        "cannot infer type",
		TypeNotPointer:         "expected a pointer type",
		TypeInvalidLiteral:     "invalid literal",
		TypeMissingStorage:     "storage for identifier is missing",
		TypeReturnOutside:      "return outside of a function",
		TypeNotAddressable:     "expression is not addressable",
		TypeInvalidDeclaration: "invalid declaration",
		TplInfo:                "Template information",
		TplDepthExceeded:       "template instantiation depth exceeded",
		TplArity:               "wrong number of template arguments",
		TplCannotInfer:         "cannot infer template arguments",
		TplNotTemplate:         "identifier is not a template",
		TplInInstantiation:     "error in template instantiation",
		DefInfo:                "Deferred check information",
		DefUninstantiated:      "template used without instantiation",
		DefUnusedTemplate:      "template function is never instantiated",
		DrvInfo:                "Driver information",
		DrvNoEntry:             "entry point not found",
		DrvBadEntry:            "invalid entry point",
		DrvInput:               "cannot load input",
		DrvManifest:            "invalid project manifest",
		DrvTimings:             "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("KND%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("TPL%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("DEF%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("DRV%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
