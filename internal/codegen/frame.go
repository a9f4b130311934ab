package codegen

import (
	"fmt"
	"slices"

	"qllc/internal/asm"
	"qllc/internal/isa"
	"qllc/internal/sema"
)

// frame decides how a routine addresses named and anonymous storage and
// how it is entered and left.
type frame interface {
	address(c *Compiler, st *sema.TypedStorage) isa.Register
	declare(c *Compiler, st *sema.TypedStorage, size int)
	temporary(c *Compiler, size int) Slot
	slotAddress(c *Compiler, s Slot) isa.Register
	result(c *Compiler) isa.Register
	prologue(c *Compiler)
	epilogue(c *Compiler)
}

// Scratch registers of prologues and epilogues. Both are caller-save, so a
// callee may clobber them; interrupt handlers save them first.
const (
	scratchFrame isa.Register = isa.FirstCallerSave
	scratchSize  isa.Register = isa.FirstCallerSave + 1
)

// Param is one declared parameter, in declaration order.
type Param struct {
	Storage *sema.TypedStorage
	Size    int
}

// stackFrame is the layout shared by functions and interrupt handlers.
//
//	fp + 1 + k   parameters, the last one nearest to fp
//	fp           return address (functions) or an unused word (handlers)
//	fp - k       locals and temporaries
//	             saved registers
//	sp at body   saved fp
//
// Inside the body fp is read back from mem[sp + depth].
type stackFrame struct {
	params    map[*sema.TypedStorage]int
	locals    map[*sema.TypedStorage]int
	size      int
	out       int
	interrupt bool
}

func newStackFrame(params []Param, hiddenResult, interrupt bool) *stackFrame {
	f := &stackFrame{
		params:    make(map[*sema.TypedStorage]int, len(params)),
		locals:    make(map[*sema.TypedStorage]int),
		out:       -1,
		interrupt: interrupt,
	}
	above := 1
	for i := len(params) - 1; i >= 0; i-- {
		f.params[params[i].Storage] = above
		above += params[i].Size
	}
	if hiddenResult {
		f.out = above
	}
	return f
}

// NewFunction returns a compiler for a function body. hiddenResult is set
// when the function returns a value that does not fit a register; the
// caller then passes the result address before the first parameter.
func NewFunction(name string, params []Param, hiddenResult bool) *Compiler {
	return newCompiler(name, newStackFrame(params, hiddenResult, false))
}

// NewInterrupt returns a compiler for an interrupt handler body.
func NewInterrupt(name string) *Compiler {
	return newCompiler(name, newStackFrame(nil, false, true))
}

// framePointer loads fp.
func (f *stackFrame) framePointer(c *Compiler) isa.Register {
	r := c.Allocate()
	if c.depth == 0 {
		c.Emit(isa.Load, r, isa.SP)
		return r
	}
	c.ConstantOf(r, c.depth)
	c.Emit(isa.Add, r, isa.SP, r)
	c.Emit(isa.Load, r, r)
	return r
}

func (f *stackFrame) below(c *Compiler, n int) isa.Register {
	r := f.framePointer(c)
	t := c.Allocate()
	c.ConstantOf(t, n)
	c.Emit(isa.Sub, r, r, t)
	c.Deallocate(t)
	return r
}

func (f *stackFrame) address(c *Compiler, st *sema.TypedStorage) isa.Register {
	if off, ok := f.params[st]; ok {
		r := f.framePointer(c)
		c.Offset(r, off)
		return r
	}
	if off, ok := f.locals[st]; ok {
		return f.below(c, off)
	}
	panic(fmt.Errorf("%s: no storage for %s %s", c.name, st.Class, st.Name))
}

func (f *stackFrame) declare(c *Compiler, st *sema.TypedStorage, size int) {
	if _, ok := f.locals[st]; ok {
		panic(fmt.Errorf("%s: local %s declared twice", c.name, st.Name))
	}
	f.locals[st] = f.grow(size)
}

// grow reserves size words below fp and returns the distance from fp to
// their first word.
func (f *stackFrame) grow(size int) int {
	f.size += size
	return f.size
}

func (f *stackFrame) temporary(_ *Compiler, size int) Slot {
	return Slot{offset: f.grow(size), size: size}
}

func (f *stackFrame) slotAddress(c *Compiler, s Slot) isa.Register {
	return f.below(c, s.offset)
}

func (f *stackFrame) result(c *Compiler) isa.Register {
	if f.out < 0 {
		panic(fmt.Errorf("%s has no result pointer", c.name))
	}
	r := f.framePointer(c)
	c.Offset(r, f.out)
	c.Emit(isa.Load, r, r)
	return r
}

// saved is the set of registers the routine must preserve. A handler that
// calls out keeps the whole caller-save pool: the callee may use any of it.
func (f *stackFrame) saved(c *Compiler) []isa.Register {
	if !f.interrupt {
		return c.regs.CalleeSaveUsed()
	}
	regs := append([]isa.Register{isa.Return, scratchFrame, scratchSize}, c.regs.Used()...)
	if c.calls {
		for r := isa.FirstCallerSave; r <= isa.LastCallerSave; r++ {
			regs = append(regs, r)
		}
	}
	slices.Sort(regs)
	return slices.Compact(regs)
}

func (c *Compiler) rawPush(r isa.Register) {
	c.Emit(isa.Sub, isa.SP, isa.SP, isa.One)
	c.Emit(isa.Store, isa.SP, r)
}

func (c *Compiler) rawPop(r isa.Register) {
	c.Emit(isa.Load, r, isa.SP)
	c.Emit(isa.Add, isa.SP, isa.SP, isa.One)
}

func (f *stackFrame) prologue(c *Compiler) {
	saved := f.saved(c)
	if f.interrupt {
		// все регистры прерванного кода сохраняются над fp
		for _, r := range saved {
			c.rawPush(r)
		}
		c.Emit(isa.Sub, isa.SP, isa.SP, isa.One)
	} else {
		c.rawPush(isa.Return)
	}
	c.Emit(isa.Mov, scratchFrame, isa.SP)
	if f.size > 0 {
		c.ConstantOf(scratchSize, f.size)
		c.Emit(isa.Sub, isa.SP, isa.SP, scratchSize)
	}
	if !f.interrupt {
		for _, r := range saved {
			c.rawPush(r)
		}
	}
	c.rawPush(scratchFrame)
}

func (f *stackFrame) epilogue(c *Compiler) {
	saved := f.saved(c)
	c.rawPop(scratchFrame)
	if f.interrupt {
		c.Emit(isa.Mov, isa.SP, scratchFrame)
		c.Emit(isa.Add, isa.SP, isa.SP, isa.One)
		for _, r := range slices.Backward(saved) {
			c.rawPop(r)
		}
		c.Emit(isa.Rti)
		return
	}
	for _, r := range slices.Backward(saved) {
		c.rawPop(r)
	}
	c.Emit(isa.Mov, isa.SP, scratchFrame)
	c.rawPop(scratchFrame)
	c.Emit(isa.Jmp, scratchFrame)
}

// globalFrame runs global initializers. It has no locals; temporaries live
// in one data block addressed from its label.
type globalFrame struct {
	block string
	size  int
}

// NewInitializer returns the compiler for the routine that runs global
// initializers. It is an ordinary callable routine.
func NewInitializer(name string) *Compiler {
	sym := Symbol(name)
	return newCompiler(name, &globalFrame{block: sym + "$temporaries"})
}

func (f *globalFrame) address(c *Compiler, st *sema.TypedStorage) isa.Register {
	panic(fmt.Errorf("%s: %s %s in a global initializer", c.name, st.Class, st.Name))
}

func (f *globalFrame) declare(c *Compiler, st *sema.TypedStorage, _ int) {
	panic(fmt.Errorf("%s: local %s in a global initializer", c.name, st.Name))
}

func (f *globalFrame) temporary(_ *Compiler, size int) Slot {
	s := Slot{offset: f.size, size: size}
	f.size += size
	return s
}

func (f *globalFrame) slotAddress(c *Compiler, s Slot) isa.Register {
	r := c.Allocate()
	c.Reference(r, f.block)
	c.Offset(r, s.offset)
	return r
}

func (f *globalFrame) result(c *Compiler) isa.Register {
	panic(fmt.Errorf("%s: return from a global initializer", c.name))
}

func (f *globalFrame) prologue(c *Compiler) {
	c.rawPush(isa.Return)
	for _, r := range c.regs.CalleeSaveUsed() {
		c.rawPush(r)
	}
	if f.size > 0 {
		values := make([]asm.Value, f.size)
		for i := range values {
			values[i] = asm.Immediate(0)
		}
		c.data = append(c.data, &asm.Label{Name: f.block}, &asm.Data{Values: values})
	}
}

func (f *globalFrame) epilogue(c *Compiler) {
	for _, r := range slices.Backward(c.regs.CalleeSaveUsed()) {
		c.rawPop(r)
	}
	c.rawPop(scratchFrame)
	c.Emit(isa.Jmp, scratchFrame)
}
