// Package astio reads the parser's output: translation units as arrays of
// tagged nodes, in JSON or msgpack, decoded into ast declarations.
package astio

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Node is one tagged node of the interchange format. Which fields are set
// depends on Kind.
type Node struct {
	Kind       string   `json:"kind" msgpack:"kind"`
	Name       string   `json:"name,omitempty" msgpack:"name,omitempty"`
	Text       string   `json:"text,omitempty" msgpack:"text,omitempty"`
	Op         string   `json:"op,omitempty" msgpack:"op,omitempty"`
	Value      int64    `json:"value,omitempty" msgpack:"value,omitempty"`
	Length     int      `json:"length,omitempty" msgpack:"length,omitempty"`
	Flags      []string `json:"flags,omitempty" msgpack:"flags,omitempty"`
	Type       *Node    `json:"type,omitempty" msgpack:"type,omitempty"`
	Left       *Node    `json:"left,omitempty" msgpack:"left,omitempty"`
	Right      *Node    `json:"right,omitempty" msgpack:"right,omitempty"`
	Expr       *Node    `json:"expr,omitempty" msgpack:"expr,omitempty"`
	Cond       *Node    `json:"cond,omitempty" msgpack:"cond,omitempty"`
	Init       *Node    `json:"init,omitempty" msgpack:"init,omitempty"`
	Step       *Node    `json:"step,omitempty" msgpack:"step,omitempty"`
	Args       []*Node  `json:"args,omitempty" msgpack:"args,omitempty"`
	Types      []*Node  `json:"types,omitempty" msgpack:"types,omitempty"`
	Members    []*Node  `json:"members,omitempty" msgpack:"members,omitempty"`
	TypeParams []string `json:"typeParams,omitempty" msgpack:"typeParams,omitempty"`
	Body       []*Node  `json:"body,omitempty" msgpack:"body,omitempty"`
	Else       []*Node  `json:"else,omitempty" msgpack:"else,omitempty"`
	File       string   `json:"file,omitempty" msgpack:"file,omitempty"`
	Line       int      `json:"line,omitempty" msgpack:"line,omitempty"`
	Column     int      `json:"column,omitempty" msgpack:"column,omitempty"`
}

// Node flags.
const (
	FlagExported  = "exported"
	FlagInterrupt = "interrupt"
	FlagUnsafe    = "unsafe"
	FlagUnsized   = "unsized"
)

func (n *Node) Has(flag string) bool { return slices.Contains(n.Flags, flag) }

// Format is the encoding of a translation unit.
type Format uint8

const (
	FormatJSON Format = iota
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// ParseFormat accepts the names printed by String.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	}
	return 0, fmt.Errorf("unknown unit format %q (want json or msgpack)", s)
}

// FormatOf picks the format from a file extension; anything but .json is
// msgpack.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatMsgpack
}
