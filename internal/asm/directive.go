// Package asm holds the symbolic directive stream handed to the assembler.
// Labels may be referenced before they are defined; resolving them is the
// assembler's job.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"qllc/internal/isa"
)

// Directive is one entry of the stream.
type Directive interface {
	fmt.Stringer
	directive()
}

// Value is a data word source: an Immediate, a Text or a Reference.
type Value interface {
	fmt.Stringer
	value()
}

type Immediate isa.Word

type Text string

// Reference is the address of a label.
type Reference string

func (Immediate) value() {}
func (Text) value()      {}
func (Reference) value() {}

func (v Immediate) String() string { return fmt.Sprintf("0x%08x", uint32(v)) }
func (v Text) String() string      { return strconv.Quote(string(v)) }
func (v Reference) String() string { return "@" + string(v) }

// Label marks the address of the next directive.
type Label struct {
	Name string
}

// Data lays out words in the data section.
type Data struct {
	Values []Value
}

// Instruction is an opcode with up to three register operands.
type Instruction struct {
	Op isa.Opcode
	D  isa.Register
	S0 isa.Register
	S1 isa.Register
}

// Constant loads Value, an Immediate or a Reference, into D.
type Constant struct {
	D     isa.Register
	Value Value
}

func (*Label) directive()       {}
func (*Data) directive()        {}
func (*Instruction) directive() {}
func (*Constant) directive()    {}

func (l *Label) String() string { return l.Name + ":" }

func (d *Data) String() string {
	parts := make([]string, 0, len(d.Values)+1)
	parts = append(parts, "data")
	for _, v := range d.Values {
		parts = append(parts, v.String())
	}
	return "  " + strings.Join(parts, " ")
}

func (i *Instruction) String() string {
	regs := []isa.Register{i.D, i.S0, i.S1}[:i.Op.Operands()]
	var sb strings.Builder
	sb.WriteString("  ")
	sb.WriteString(i.Op.String())
	for _, r := range regs {
		sb.WriteByte(' ')
		sb.WriteString(r.String())
	}
	return sb.String()
}

func (c *Constant) String() string {
	return fmt.Sprintf("  constant %s %s", c.D, c.Value)
}

// Size reports how many words a directive occupies once assembled.
func Size(d Directive) int {
	switch d := d.(type) {
	case *Label:
		return 0
	case *Instruction:
		return 1
	case *Constant:
		return 2
	case *Data:
		n := 0
		for _, v := range d.Values {
			if t, ok := v.(Text); ok {
				n += len([]rune(string(t)))
				continue
			}
			n++
		}
		return n
	}
	panic(fmt.Errorf("unknown directive %T", d))
}

// Render writes one directive per line.
func Render(ds []Directive) string {
	var sb strings.Builder
	for _, d := range ds {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Labels returns the names of every label defined in the stream, in order.
func Labels(ds []Directive) []string {
	var out []string
	for _, d := range ds {
		if l, ok := d.(*Label); ok {
			out = append(out, l.Name)
		}
	}
	return out
}
