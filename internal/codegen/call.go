package codegen

import (
	"slices"

	"qllc/internal/isa"
)

// Argument is one value passed to a routine. Compile returns the value when
// Integral is set and the address of Size words otherwise.
type Argument struct {
	Size     int
	Integral bool
	Compile  func() isa.Register
}

// Result describes what a call returns. Size < 0 means nothing.
type Result struct {
	Size     int
	Integral bool
}

// Void is the Result of routines returning nothing.
var Void = Result{Size: -1}

// Hidden reports whether the caller passes a result address.
func (r Result) Hidden() bool { return r.Size >= 0 && !r.Integral }

// Call invokes the routine whose address is in callee and returns the
// register holding the result: its value, or the address of caller storage
// for results that do not fit a register. callee is released.
func (c *Compiler) Call(callee isa.Register, args []Argument, res Result) isa.Register {
	c.calls = true
	var saved []isa.Register
	for _, r := range c.regs.LiveCallerSave() {
		if r != callee {
			saved = append(saved, r)
		}
	}
	for _, r := range saved {
		c.Push(r)
	}

	words := 0
	var out Slot
	if res.Hidden() {
		out = c.Temporary(res.Size)
		a := c.SlotAddress(out)
		c.Push(a)
		c.Deallocate(a)
		words++
	}
	for _, arg := range args {
		r := arg.Compile()
		if arg.Integral {
			c.Push(r)
		} else {
			c.Reserve(arg.Size)
			d := c.Allocate()
			c.Emit(isa.Mov, d, isa.SP)
			c.Copy(d, r, arg.Size)
			c.Deallocate(d)
		}
		c.Deallocate(r)
		if arg.Integral {
			words++
		} else {
			words += arg.Size
		}
	}

	back := c.NewLabel("return")
	c.Reference(isa.Return, back)
	c.Emit(isa.Jmp, callee)
	c.Label(back)
	c.Deallocate(callee)

	c.Drop(words)
	for _, r := range slices.Backward(saved) {
		c.Pop(r)
	}

	if res.Hidden() {
		return c.SlotAddress(out)
	}
	r := c.Allocate()
	c.Emit(isa.Mov, r, isa.Return)
	return r
}
