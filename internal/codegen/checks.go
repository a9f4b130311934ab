package codegen

import "qllc/internal/isa"

// fault stops the machine with code in the return register.
func (c *Compiler) fault(code isa.Word) {
	c.Constant(isa.Return, code)
	c.Emit(isa.Halt)
}

// CheckNull halts with isa.FaultNull when p is zero.
func (c *Compiler) CheckNull(p isa.Register) {
	ok := c.NewLabel("nonnull")
	c.JumpIfNotZero(p, ok)
	c.fault(isa.FaultNull)
	c.Label(ok)
}

// CheckBounds halts with isa.FaultBounds unless index < length.
func (c *Compiler) CheckBounds(index, length isa.Register) {
	ok := c.NewLabel("inbounds")
	t := c.Allocate()
	// lt gives 0 when the relation holds
	c.Emit(isa.Lt, t, index, length)
	c.JumpIfZero(t, ok)
	c.Deallocate(t)
	c.fault(isa.FaultBounds)
	c.Label(ok)
}

// CheckCapacity halts with isa.FaultCapacity when length > capacity.
func (c *Compiler) CheckCapacity(length, capacity isa.Register) {
	ok := c.NewLabel("fits")
	t := c.Allocate()
	c.Emit(isa.Gt, t, length, capacity)
	c.JumpIfNotZero(t, ok)
	c.Deallocate(t)
	c.fault(isa.FaultCapacity)
	c.Label(ok)
}

// Truth turns the 0-when-true result of a comparison in r into the
// language's truth value, 1 for true and 0 for false.
func (c *Compiler) Truth(r isa.Register) {
	c.Emit(isa.Sub, r, isa.One, r)
}

// Compare emits op on a and b and leaves the language truth value in a.
// b is released.
func (c *Compiler) Compare(op isa.Opcode, a, b isa.Register) isa.Register {
	c.Emit(op, a, a, b)
	c.Deallocate(b)
	c.Truth(a)
	return a
}

// Not replaces r with 1 when it is zero and 0 otherwise.
func (c *Compiler) Not(r isa.Register) {
	z := c.Allocate()
	c.Constant(z, 0)
	c.Emit(isa.Eq, r, r, z)
	c.Deallocate(z)
	c.Truth(r)
}
