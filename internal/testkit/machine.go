package testkit

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"qllc/internal/asm"
	"qllc/internal/isa"
)

// Options configures a run.
type Options struct {
	// Memory is the number of words; the stack starts at the top.
	Memory int
	// Steps bounds the number of executed instructions.
	Steps int
	// Start is the label execution begins at.
	Start string
	// Interrupts maps interrupt numbers to handler labels.
	Interrupts map[isa.Word]string
}

// Result is the machine state after halt.
type Result struct {
	Return isa.Word
	Steps  int
	// Registers and memory as left by the program.
	Registers [isa.RegisterCount]isa.Word
	Memory    []isa.Word
}

var ErrStepLimit = errors.New("step limit reached")

type cell struct {
	d    asm.Directive
	next isa.Word
}

// Machine is an assembled stream ready to run.
type Machine struct {
	labels map[string]isa.Word
	cells  map[isa.Word]cell
	image  []isa.Word
}

// Assemble lays ds out from address zero.
func Assemble(ds []asm.Directive, memory int) (*Machine, error) {
	if err := CheckStreamInvariants(ds); err != nil {
		return nil, err
	}
	m := &Machine{
		labels: make(map[string]isa.Word),
		cells:  make(map[isa.Word]cell),
		image:  make([]isa.Word, memory),
	}
	var addr isa.Word
	for _, d := range ds {
		if l, ok := d.(*asm.Label); ok {
			m.labels[l.Name] = addr
		}
		size, err := safecast.Conv[isa.Word](asm.Size(d))
		if err != nil {
			return nil, err
		}
		addr += size
	}
	if int(addr) > memory {
		return nil, fmt.Errorf("program of %d words does not fit %d", addr, memory)
	}
	addr = 0
	for _, d := range ds {
		size := isa.MustWord(asm.Size(d))
		switch d := d.(type) {
		case *asm.Instruction, *asm.Constant:
			m.cells[addr] = cell{d: d, next: addr + size}
		case *asm.Data:
			i := addr
			for _, v := range d.Values {
				switch v := v.(type) {
				case asm.Immediate:
					m.image[i] = isa.Word(v)
					i++
				case asm.Reference:
					m.image[i] = m.labels[string(v)]
					i++
				case asm.Text:
					for _, r := range string(v) {
						m.image[i] = isa.MustWord(r)
						i++
					}
				}
			}
		}
		addr += size
	}
	return m, nil
}

// Label returns the address of a label.
func (m *Machine) Label(name string) (isa.Word, bool) {
	a, ok := m.labels[name]
	return a, ok
}

// Run executes from opts.Start until halt.
func (m *Machine) Run(opts Options) (*Result, error) {
	if opts.Steps == 0 {
		opts.Steps = 1 << 20
	}
	pc, ok := m.labels[opts.Start]
	if !ok {
		return nil, fmt.Errorf("no label %s", opts.Start)
	}
	mem := append([]isa.Word(nil), m.image...)
	var regs [isa.RegisterCount]isa.Word
	regs[isa.One] = 1
	regs[isa.SP] = isa.MustWord(len(mem))
	var interrupted []isa.Word

	load := func(a isa.Word) (isa.Word, error) {
		if int(a) >= len(mem) {
			return 0, fmt.Errorf("load from %#x out of memory", a)
		}
		return mem[a], nil
	}
	for steps := 0; steps < opts.Steps; steps++ {
		c, ok := m.cells[pc]
		if !ok {
			return nil, fmt.Errorf("no instruction at %#x", pc)
		}
		next := c.next
		switch d := c.d.(type) {
		case *asm.Constant:
			switch v := d.Value.(type) {
			case asm.Immediate:
				regs[d.D] = isa.Word(v)
			case asm.Reference:
				regs[d.D] = m.labels[string(v)]
			default:
				return nil, fmt.Errorf("constant of %T", v)
			}
		case *asm.Instruction:
			a, b := regs[d.S0], regs[d.S1]
			switch d.Op {
			case isa.Halt:
				return &Result{Return: regs[isa.Return], Steps: steps + 1, Registers: regs, Memory: mem}, nil
			case isa.Nop, isa.Wait:
			case isa.Int:
				handler, ok := opts.Interrupts[regs[d.D]]
				if !ok {
					return nil, fmt.Errorf("no handler for interrupt %d", regs[d.D])
				}
				interrupted = append(interrupted, next)
				next = m.labels[handler]
			case isa.Rti:
				if len(interrupted) == 0 {
					return nil, fmt.Errorf("rti outside an interrupt at %#x", pc)
				}
				next = interrupted[len(interrupted)-1]
				interrupted = interrupted[:len(interrupted)-1]
			case isa.Load:
				v, err := load(a)
				if err != nil {
					return nil, err
				}
				regs[d.D] = v
			case isa.Store:
				if int(regs[d.D]) >= len(mem) {
					return nil, fmt.Errorf("store to %#x out of memory", regs[d.D])
				}
				mem[regs[d.D]] = a
			case isa.Mov:
				regs[d.D] = a
			case isa.Not:
				regs[d.D] = ^a
			case isa.Jmp:
				next = regs[d.D]
			case isa.Jz:
				if regs[d.D] == 0 {
					next = a
				}
			case isa.Jnz:
				if regs[d.D] != 0 {
					next = a
				}
			default:
				v, err := binary(d.Op, a, b)
				if err != nil {
					return nil, fmt.Errorf("%#x: %w", pc, err)
				}
				regs[d.D] = v
			}
		}
		if regs[isa.One] != 1 {
			return nil, fmt.Errorf("%#x: constant register overwritten", pc)
		}
		pc = next
	}
	return nil, ErrStepLimit
}

func binary(op isa.Opcode, a, b isa.Word) (isa.Word, error) {
	flag := func(ok bool) isa.Word {
		if ok {
			return 0
		}
		return 1
	}
	switch op {
	case isa.Add:
		return a + b, nil
	case isa.Sub:
		return a - b, nil
	case isa.Mul:
		return a * b, nil
	case isa.Div, isa.Mod:
		if b == 0 {
			return 0, errors.New("division by zero")
		}
		if op == isa.Div {
			return a / b, nil
		}
		return a % b, nil
	case isa.And:
		return a & b, nil
	case isa.Or:
		return a | b, nil
	case isa.Xor:
		return a ^ b, nil
	case isa.Shl:
		return a << (b & 31), nil
	case isa.Shr:
		return a >> (b & 31), nil
	case isa.Eq:
		return flag(a == b), nil
	case isa.Neq:
		return flag(a != b), nil
	case isa.Lt:
		return flag(a < b), nil
	case isa.Gt:
		return flag(a > b), nil
	}
	return 0, fmt.Errorf("unknown opcode %s", op)
}

// Run assembles ds and executes it from start.
func Run(ds []asm.Directive, start string) (*Result, error) {
	m, err := Assemble(ds, 1<<14)
	if err != nil {
		return nil, err
	}
	return m.Run(Options{Start: start})
}
