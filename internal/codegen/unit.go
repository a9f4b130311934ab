package codegen

import (
	"fmt"

	"qllc/internal/asm"
	"qllc/internal/isa"
)

const (
	// StartLabel is where a program begins.
	StartLabel = "global::$start"
	// InitializeLabel runs the global initializers; libraries export it.
	InitializeLabel = "global::$initialize"
)

// Unit gathers the routines and data of a whole program.
type Unit struct {
	library bool
	init    *Compiler
	code    []asm.Directive
	data    []asm.Directive
	globals []asm.Directive
	linked  bool
}

func NewUnit(library bool) *Unit {
	return &Unit{library: library, init: NewInitializer(InitializeLabel)}
}

// Initializer is the routine global initializers are compiled into, in
// declaration order.
func (u *Unit) Initializer() *Compiler { return u.init }

// AddRoutine finishes c and appends its code and data.
func (u *Unit) AddRoutine(c *Compiler) {
	if c == u.init {
		panic(fmt.Errorf("initializer is added by Link"))
	}
	u.code = append(u.code, c.Finish()...)
	u.data = append(u.data, c.Data()...)
}

// AddGlobal reserves size zeroed words labelled name.
func (u *Unit) AddGlobal(name string, size int) {
	values := make([]asm.Value, size)
	for i := range values {
		values[i] = asm.Immediate(0)
	}
	u.globals = append(u.globals, &asm.Label{Name: Symbol(name)}, &asm.Data{Values: values})
}

// Link returns the whole stream: the start routine in program mode, the
// initializer, every routine and then all data. entry is the qualified name
// of the entry point and is ignored for libraries.
func (u *Unit) Link(entry string, res Result) []asm.Directive {
	if u.linked {
		panic(fmt.Errorf("unit linked twice"))
	}
	u.linked = true
	var out []asm.Directive
	if !u.library {
		out = append(out, start(entry, res)...)
	}
	out = append(out, u.init.Finish()...)
	out = append(out, u.code...)
	out = append(out, u.globals...)
	out = append(out, u.data...)
	out = append(out, u.init.Data()...)
	return out
}

func start(entry string, res Result) []asm.Directive {
	c := newCompiler(StartLabel, nil)
	c.Label(c.name)
	for _, target := range []string{InitializeLabel, entry} {
		back := c.NewLabel("return")
		c.Reference(scratchFrame, target)
		c.Reference(isa.Return, back)
		c.Emit(isa.Jmp, scratchFrame)
		c.Label(back)
	}
	if res.Size < 0 {
		c.Constant(isa.Return, 0)
	}
	c.Emit(isa.Halt)
	return c.code
}
