package types

import (
	"fmt"

	"qllc/internal/source"
)

type BuiltinKind uint8

const (
	BuiltinByte BuiltinKind = iota
	BuiltinVoid
	BuiltinError
)

func (k BuiltinKind) String() string {
	switch k {
	case BuiltinByte:
		return "byte"
	case BuiltinVoid:
		return "void"
	case BuiltinError:
		return "error"
	}
	return fmt.Sprintf("BuiltinKind(%d)", k)
}

// Builtin is one of byte, void or error. Error is the sentinel substituted
// for expressions that failed to check; it unifies with everything.
type Builtin struct {
	Kind BuiltinKind
	Loc  *source.Location
}

var (
	Byte  = &Builtin{Kind: BuiltinByte}
	Void  = &Builtin{Kind: BuiltinVoid}
	Error = &Builtin{Kind: BuiltinError}
)

// LookupBuiltin returns the builtin named name, if any.
func LookupBuiltin(name string) (*Builtin, bool) {
	switch name {
	case "byte":
		return Byte, true
	case "void":
		return Void, true
	case "error":
		return Error, true
	}
	return nil, false
}

func (b *Builtin) Location() *source.Location   { return b.Loc }
func (b *Builtin) String() string               { return b.Kind.String() }
func (b *Builtin) mangle() string               { return b.Kind.String() }
func (b *Builtin) Resolve() Type                { return b }
func (b *Builtin) Size() int                    { return 1 }
func (b *Builtin) Substitute(Substitution) Type { return b }
func (b *Builtin) BindNames(Env)                {}
func (b *Builtin) Kindcheck(Env, KindChecker)   {}

func (b *Builtin) unifiable(other Type, _ *unifier) bool {
	o, ok := other.(*Builtin)
	return ok && o.Kind == b.Kind
}
