package sema

import (
	"qllc/internal/source"
	"qllc/internal/types"
)

// StorageClass says where a named value lives and therefore how codegen
// computes its address.
type StorageClass uint8

const (
	StorageGlobal    StorageClass = iota // data section
	StorageFunction                      // code label
	StorageParameter                     // above the frame pointer
	StorageLocal                         // below the frame pointer
)

func (c StorageClass) String() string {
	switch c {
	case StorageGlobal:
		return "global"
	case StorageFunction:
		return "function"
	case StorageParameter:
		return "parameter"
	case StorageLocal:
		return "local"
	default:
		return "invalid"
	}
}

// TypedStorage is a named value in scope. It is never modified after
// creation; codegen keys frame offsets by its address.
type TypedStorage struct {
	Name string
	// Qualified is set for globals and functions and is the liveness key.
	Qualified string
	Type      types.Type
	Class     StorageClass
	Loc       *source.Location
}

// IsStatic reports whether the storage has a link-time address.
func (s *TypedStorage) IsStatic() bool {
	return s.Class == StorageGlobal || s.Class == StorageFunction
}

// Namespace is the declaration table the context resolves names against.
// Both lookups return nil when nothing matches and an error when several
// imports match.
type Namespace interface {
	Qualified() string
	LookupType(name string) (*types.Binding, error)
	LookupValue(name string) (*TypedStorage, error)
}
