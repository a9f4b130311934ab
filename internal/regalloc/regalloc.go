// Package regalloc hands out the compiler's allocatable registers from two
// pools, caller-save first. Register pressure is never spilled: running out
// of registers is an internal error.
package regalloc

import (
	"fmt"
	"slices"

	"qllc/internal/isa"
)

// Allocator is scoped to the compilation of one declaration.
type Allocator struct {
	callerSave []bool // indexed from isa.FirstCallerSave
	calleeSave []bool // indexed from isa.FirstCalleeSave
	// ever remembers every register handed out, so a prologue can save
	// exactly those.
	ever        map[isa.Register]bool
	outstanding int
}

func New() *Allocator {
	return &Allocator{
		callerSave: make([]bool, isa.LastCallerSave-isa.FirstCallerSave+1),
		calleeSave: make([]bool, isa.LastCalleeSave-isa.FirstCalleeSave+1),
		ever:       make(map[isa.Register]bool),
	}
}

// Allocate returns the lowest free caller-save register, falling back to
// the lowest free callee-save register.
func (a *Allocator) Allocate() isa.Register {
	if i := slices.Index(a.callerSave, false); i >= 0 {
		a.callerSave[i] = true
		a.outstanding++
		r := isa.FirstCallerSave + isa.Register(i)
		a.ever[r] = true
		return r
	}
	if i := slices.Index(a.calleeSave, false); i >= 0 {
		a.calleeSave[i] = true
		a.outstanding++
		r := isa.FirstCalleeSave + isa.Register(i)
		a.ever[r] = true
		return r
	}
	panic(fmt.Errorf("register allocator exhausted: all %d registers in use", a.outstanding))
}

// Deallocate returns r to its pool.
func (a *Allocator) Deallocate(r isa.Register) {
	slot := a.slot(r)
	if slot == nil || !*slot {
		panic(fmt.Errorf("deallocating unallocated register %s", r))
	}
	*slot = false
	a.outstanding--
}

func (a *Allocator) slot(r isa.Register) *bool {
	switch {
	case r.IsCallerSave():
		return &a.callerSave[r-isa.FirstCallerSave]
	case r.IsCalleeSave():
		return &a.calleeSave[r-isa.FirstCalleeSave]
	}
	return nil
}

// IsAllocated reports whether r is currently handed out.
func (a *Allocator) IsAllocated(r isa.Register) bool {
	slot := a.slot(r)
	return slot != nil && *slot
}

// Outstanding is the number of registers currently allocated.
func (a *Allocator) Outstanding() int { return a.outstanding }

// LiveCallerSave lists the caller-save registers currently allocated, in
// ascending order; a call has to preserve them.
func (a *Allocator) LiveCallerSave() []isa.Register {
	var out []isa.Register
	for i, used := range a.callerSave {
		if used {
			out = append(out, isa.FirstCallerSave+isa.Register(i))
		}
	}
	return out
}

// CalleeSaveUsed lists, in ascending order, every callee-save register
// allocated at any point so far.
func (a *Allocator) CalleeSaveUsed() []isa.Register {
	return a.used(isa.Register.IsCalleeSave)
}

// Used lists every register allocated at any point so far. Interrupt
// handlers preserve all of them.
func (a *Allocator) Used() []isa.Register {
	return a.used(func(isa.Register) bool { return true })
}

func (a *Allocator) used(keep func(isa.Register) bool) []isa.Register {
	out := make([]isa.Register, 0, len(a.ever))
	for r := range a.ever {
		if keep(r) {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}
