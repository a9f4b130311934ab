// Package codegen lowers checked declarations to the directive stream.
//
// A Compiler holds the state of one routine: registers, emitted code, data
// it owns, a label counter and the loop exit stack. Three frame kinds decide
// how named storage is addressed and how the routine is entered and left.
package codegen

import (
	"fmt"
	"strings"

	"qllc/internal/asm"
	"qllc/internal/isa"
	"qllc/internal/regalloc"
	"qllc/internal/sema"
)

// Compiler emits the code of one routine.
type Compiler struct {
	name   string
	regs   *regalloc.Allocator
	code   []asm.Directive
	data   []asm.Directive
	labels int
	// depth is the number of words pushed since the prologue.
	depth  int
	breaks []string
	frame  frame
	exit   string
	done   bool
	// calls is set once the routine calls another routine.
	calls bool
}

func newCompiler(name string, f frame) *Compiler {
	sym := Symbol(name)
	return &Compiler{
		name:  sym,
		regs:  regalloc.New(),
		frame: f,
		exit:  sym + "$exit",
	}
}

// Symbol turns a qualified or mangled name into a label.
func Symbol(name string) string {
	return strings.ReplaceAll(name, " ", "")
}

// Name is the label of the routine.
func (c *Compiler) Name() string { return c.name }

// Allocate returns a free register.
func (c *Compiler) Allocate() isa.Register { return c.regs.Allocate() }

// Deallocate frees r.
func (c *Compiler) Deallocate(r isa.Register) { c.regs.Deallocate(r) }

// Outstanding is the number of registers currently allocated.
func (c *Compiler) Outstanding() int { return c.regs.Outstanding() }

// Depth is the number of words pushed since the prologue.
func (c *Compiler) Depth() int { return c.depth }

func (c *Compiler) emit(d asm.Directive) { c.code = append(c.code, d) }

// Emit appends an instruction.
func (c *Compiler) Emit(op isa.Opcode, regs ...isa.Register) {
	if len(regs) != op.Operands() {
		panic(fmt.Errorf("%s takes %d registers, got %d", op, op.Operands(), len(regs)))
	}
	in := &asm.Instruction{Op: op}
	dst := []*isa.Register{&in.D, &in.S0, &in.S1}
	for i, r := range regs {
		*dst[i] = r
	}
	c.emit(in)
}

// Constant loads an immediate into r.
func (c *Compiler) Constant(r isa.Register, v isa.Word) {
	c.emit(&asm.Constant{D: r, Value: asm.Immediate(v)})
}

// ConstantOf loads a size, offset or literal into r; values that do not fit
// a word are an internal error.
func (c *Compiler) ConstantOf(r isa.Register, v int) {
	c.Constant(r, isa.MustWord(v))
}

// Reference loads the address of label into r.
func (c *Compiler) Reference(r isa.Register, label string) {
	c.emit(&asm.Constant{D: r, Value: asm.Reference(Symbol(label))})
}

// Label defines name at the current position.
func (c *Compiler) Label(name string) { c.emit(&asm.Label{Name: name}) }

// NewLabel returns a fresh label local to the routine.
func (c *Compiler) NewLabel(hint string) string {
	c.labels++
	return fmt.Sprintf("%s$%s%d", c.name, hint, c.labels)
}

func (c *Compiler) jump(op isa.Opcode, cond isa.Register, label string) {
	t := c.Allocate()
	c.Reference(t, label)
	if op == isa.Jmp {
		c.Emit(isa.Jmp, t)
	} else {
		c.Emit(op, cond, t)
	}
	c.Deallocate(t)
}

// Jump transfers control to label.
func (c *Compiler) Jump(label string) { c.jump(isa.Jmp, 0, label) }

// JumpIfZero jumps to label when cond holds 0.
func (c *Compiler) JumpIfZero(cond isa.Register, label string) { c.jump(isa.Jz, cond, label) }

// JumpIfNotZero jumps to label when cond is not 0.
func (c *Compiler) JumpIfNotZero(cond isa.Register, label string) { c.jump(isa.Jnz, cond, label) }

// Push stores r below the stack pointer.
func (c *Compiler) Push(r isa.Register) {
	c.Emit(isa.Sub, isa.SP, isa.SP, isa.One)
	c.Emit(isa.Store, isa.SP, r)
	c.depth++
}

// Pop loads the top of the stack into r.
func (c *Compiler) Pop(r isa.Register) {
	c.Emit(isa.Load, r, isa.SP)
	c.Emit(isa.Add, isa.SP, isa.SP, isa.One)
	c.depth--
}

// Reserve grows the stack by n words.
func (c *Compiler) Reserve(n int) {
	c.moveStack(isa.Sub, n)
	c.depth += n
}

// Drop shrinks the stack by n words.
func (c *Compiler) Drop(n int) {
	c.moveStack(isa.Add, n)
	c.depth -= n
	if c.depth < 0 {
		panic(fmt.Errorf("%s: stack depth below the frame", c.name))
	}
}

func (c *Compiler) moveStack(op isa.Opcode, n int) {
	switch {
	case n == 0:
	case n == 1:
		c.Emit(op, isa.SP, isa.SP, isa.One)
	default:
		t := c.Allocate()
		c.ConstantOf(t, n)
		c.Emit(op, isa.SP, isa.SP, t)
		c.Deallocate(t)
	}
}

// Offset adds a constant word offset to r in place.
func (c *Compiler) Offset(r isa.Register, n int) {
	switch {
	case n == 0:
	case n == 1:
		c.Emit(isa.Add, r, r, isa.One)
	default:
		t := c.Allocate()
		c.ConstantOf(t, n)
		c.Emit(isa.Add, r, r, t)
		c.Deallocate(t)
	}
}

// PushBreak makes label the target of break statements.
func (c *Compiler) PushBreak(label string) { c.breaks = append(c.breaks, label) }

func (c *Compiler) PopBreak() {
	if len(c.breaks) == 0 {
		panic(fmt.Errorf("%s: break stack underflow", c.name))
	}
	c.breaks = c.breaks[:len(c.breaks)-1]
}

// Break jumps to the innermost loop exit.
func (c *Compiler) Break() {
	if len(c.breaks) == 0 {
		panic(fmt.Errorf("%s: break outside a loop", c.name))
	}
	c.Jump(c.breaks[len(c.breaks)-1])
}

// Text places s in the routine's data and returns its label.
func (c *Compiler) Text(s string) string {
	label := c.NewLabel("text")
	c.data = append(c.data, &asm.Label{Name: label}, &asm.Data{Values: []asm.Value{asm.Text(s)}})
	return label
}

// Statement runs f and checks that it released every register it took.
func (c *Compiler) Statement(f func()) {
	before, depth := c.regs.Outstanding(), c.depth
	f()
	if after := c.regs.Outstanding(); after != before {
		panic(fmt.Errorf("%s: statement left %d registers allocated", c.name, after-before))
	}
	if c.depth != depth {
		panic(fmt.Errorf("%s: statement moved the stack by %d words", c.name, c.depth-depth))
	}
}

// Expression runs f and checks that it holds exactly its result register.
func (c *Compiler) Expression(f func() isa.Register) isa.Register {
	before := c.regs.Outstanding()
	r := f()
	if after := c.regs.Outstanding(); after != before+1 || !c.regs.IsAllocated(r) {
		panic(fmt.Errorf("%s: expression holds %d registers, want its result only", c.name, after-before))
	}
	return r
}

// Address loads the address of named storage. Function storage yields the
// routine's label.
func (c *Compiler) Address(st *sema.TypedStorage) isa.Register {
	switch st.Class {
	case sema.StorageGlobal, sema.StorageFunction:
		r := c.Allocate()
		c.Reference(r, st.Qualified)
		return r
	}
	return c.frame.address(c, st)
}

// DeclareLocal reserves frame storage of size words for st.
func (c *Compiler) DeclareLocal(st *sema.TypedStorage, size int) {
	if st.Class != sema.StorageLocal {
		panic(fmt.Errorf("%s: %s is %s storage, not local", c.name, st.Name, st.Class))
	}
	c.frame.declare(c, st, size)
}

// Slot is anonymous storage owned by the routine.
type Slot struct {
	offset int
	size   int
}

func (s Slot) Size() int { return s.size }

// Temporary reserves size words of anonymous storage.
func (c *Compiler) Temporary(size int) Slot { return c.frame.temporary(c, size) }

// SlotAddress loads the address of s.
func (c *Compiler) SlotAddress(s Slot) isa.Register { return c.frame.slotAddress(c, s) }

// Return leaves the routine with r as the result: integral values are
// moved to the return register and others are copied through the hidden
// result pointer. A negative size returns nothing.
func (c *Compiler) Return(r isa.Register, size int, integral bool) {
	if size >= 0 {
		if integral {
			c.Emit(isa.Mov, isa.Return, r)
		} else {
			out := c.frame.result(c)
			c.Copy(out, r, size)
			c.Emit(isa.Mov, isa.Return, out)
			c.Deallocate(out)
		}
	}
	c.Jump(c.exit)
}

// Finish closes the routine and returns its code; the compiler cannot be
// used afterwards.
func (c *Compiler) Finish() []asm.Directive {
	if c.done {
		panic(fmt.Errorf("%s finished twice", c.name))
	}
	c.done = true
	if n := c.regs.Outstanding(); n != 0 {
		panic(fmt.Errorf("%s: %d registers still allocated", c.name, n))
	}
	if c.depth != 0 || len(c.breaks) != 0 {
		panic(fmt.Errorf("%s: unbalanced stack or loop exits", c.name))
	}
	body := c.code
	c.code = nil
	c.Label(c.name)
	c.frame.prologue(c)
	c.code = append(c.code, body...)
	c.Label(c.exit)
	c.frame.epilogue(c)
	return c.code
}

// Data returns the data the routine owns.
func (c *Compiler) Data() []asm.Directive { return c.data }
