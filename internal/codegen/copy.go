package codegen

import "qllc/internal/isa"

// unrollLimit is the largest copy emitted without a loop.
const unrollLimit = 8

// Copy copies size words from the address in src to the address in dst.
// dst and src are left unchanged.
func (c *Compiler) Copy(dst, src isa.Register, size int) {
	switch {
	case size <= 0:
	case size == 1:
		v := c.Allocate()
		c.Emit(isa.Load, v, src)
		c.Emit(isa.Store, dst, v)
		c.Deallocate(v)
	case size <= unrollLimit:
		c.copyUnrolled(dst, src, size)
	default:
		n := c.Allocate()
		c.ConstantOf(n, size)
		c.copyLoop(dst, src, n)
		c.Deallocate(n)
	}
}

func (c *Compiler) copyUnrolled(dst, src isa.Register, size int) {
	pd, ps, v := c.Allocate(), c.Allocate(), c.Allocate()
	c.Emit(isa.Mov, pd, dst)
	c.Emit(isa.Mov, ps, src)
	for i := range size {
		c.Emit(isa.Load, v, ps)
		c.Emit(isa.Store, pd, v)
		if i < size-1 {
			c.Emit(isa.Add, ps, ps, isa.One)
			c.Emit(isa.Add, pd, pd, isa.One)
		}
	}
	c.Deallocate(v)
	c.Deallocate(ps)
	c.Deallocate(pd)
}

// CopyN copies as many words as n holds at run time; n is consumed.
func (c *Compiler) CopyN(dst, src, n isa.Register) {
	done := c.NewLabel("copied")
	c.JumpIfZero(n, done)
	c.copyLoop(dst, src, n)
	c.Label(done)
}

// copyLoop copies n words, n > 0; n is counted down to zero.
func (c *Compiler) copyLoop(dst, src, n isa.Register) {
	pd, ps, v, target := c.Allocate(), c.Allocate(), c.Allocate(), c.Allocate()
	loop := c.NewLabel("copy")
	c.Emit(isa.Mov, pd, dst)
	c.Emit(isa.Mov, ps, src)
	c.Reference(target, loop)
	c.Label(loop)
	c.Emit(isa.Load, v, ps)
	c.Emit(isa.Store, pd, v)
	c.Emit(isa.Add, ps, ps, isa.One)
	c.Emit(isa.Add, pd, pd, isa.One)
	c.Emit(isa.Sub, n, n, isa.One)
	c.Emit(isa.Jnz, n, target)
	c.Deallocate(target)
	c.Deallocate(v)
	c.Deallocate(ps)
	c.Deallocate(pd)
}

// Fill stores the word in v into size consecutive words starting at dst.
func (c *Compiler) Fill(dst, v isa.Register, size int) {
	p := c.Allocate()
	c.Emit(isa.Mov, p, dst)
	for i := range size {
		c.Emit(isa.Store, p, v)
		if i < size-1 {
			c.Emit(isa.Add, p, p, isa.One)
		}
	}
	c.Deallocate(p)
}
